// Package metrics provides Prometheus metrics collection for pipeline runs.
// It exports:
//   - pvcohort_patients: Gauge of patients surviving each stage
//   - pvcohort_lookups_total: Counter with dictionary and result labels
//   - pvcohort_dictionary_entries: Gauge of loaded entries per dictionary
//   - pvcohort_dictionary_rows_skipped_total: Counter of malformed rows per dictionary
//   - pvcohort_stage_duration_seconds: Histogram per stage
//   - pvcohort_cohort_labels_total: Counter of cohort labels
//
// All metrics are registered with the Prometheus default registry during
// package initialization and can be dumped to a textfile at the end of a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup results
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

var (
	PatientsPerStage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pvcohort_patients",
			Help: "Patients remaining after each pipeline stage",
		},
		[]string{"stage"},
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcohort_lookups_total",
			Help: "Dictionary lookups by outcome",
		},
		[]string{"dictionary", "result"},
	)

	DictionaryEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pvcohort_dictionary_entries",
			Help: "Entries loaded per dictionary",
		},
		[]string{"dictionary"},
	)

	DictionaryRowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcohort_dictionary_rows_skipped_total",
			Help: "Malformed dictionary rows skipped while loading",
		},
		[]string{"dictionary"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pvcohort_stage_duration_seconds",
			Help:    "Pipeline stage latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	CohortLabels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvcohort_cohort_labels_total",
			Help: "Cohort labels assigned, by value",
		},
		[]string{"label"},
	)
)

func init() {
	prometheus.MustRegister(PatientsPerStage)
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(DictionaryEntries)
	prometheus.MustRegister(DictionaryRowsSkipped)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(CohortLabels)
}

// RecordLookup counts one dictionary lookup
func RecordLookup(dictionary string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	LookupsTotal.WithLabelValues(dictionary, result).Inc()
}

// RecordLabels counts cohort labels
func RecordLabels(labels []bool) {
	for _, l := range labels {
		if l {
			CohortLabels.WithLabelValues("1").Inc()
		} else {
			CohortLabels.WithLabelValues("0").Inc()
		}
	}
}

// WriteTextfile dumps the default registry in the text exposition format
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
