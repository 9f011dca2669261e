package pipeline

import (
	"time"

	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/logging"
	"github.com/giygas/pvcohort/metrics"
)

// Stage names, in execution order
const (
	StageExtracted        = "extracted"
	StageSubstanceFilter  = "substance_filter"
	StageCodeFilter       = "code_filter"
	StageIndexFilter      = "index_filter"
	stageNormalize        = "normalize"
	stageResolveCodes     = "resolve_codes"
	stageResolveHierarchy = "resolve_hierarchy"
)

// StageCount is the number of patients left after a stage
type StageCount struct {
	Stage    string
	Patients int
}

// Result is the output of a pipeline run
type Result struct {
	Patients []entities.Patient
	Stages   []StageCount
}

// Pipeline resolves patients through the three dictionaries
type Pipeline struct {
	substances interfaces.Lookup[string]
	codes      interfaces.Lookup[string]
	hierarchy  interfaces.Lookup[int]
}

// New creates a pipeline over the given dictionaries
func New(substances, codes interfaces.Lookup[string], hierarchy interfaces.Lookup[int]) *Pipeline {
	return &Pipeline{
		substances: substances,
		codes:      codes,
		hierarchy:  hierarchy,
	}
}

// Run resolves drug names to substances, substances to codes and codes to
// hierarchy indices, dropping every patient with an unresolved element after
// each step. Surviving patients keep their input order.
func (pl *Pipeline) Run(patients []entities.Patient) Result {
	var res Result
	record := func(stage string, n int) {
		res.Stages = append(res.Stages, StageCount{Stage: stage, Patients: n})
		metrics.PatientsPerStage.WithLabelValues(stage).Set(float64(n))
		logging.Debug("Pipeline stage completed", "stage", stage, "patients", n)
	}

	record(StageExtracted, len(patients))

	current := timed(stageNormalize, func() []entities.Patient {
		return DropUnresolved(NormalizeAll(patients, pl.substances))
	})
	record(StageSubstanceFilter, len(current))

	current = timed(stageResolveCodes, func() []entities.Patient {
		return DropUnresolved(ResolveCodesAll(current, pl.codes))
	})
	record(StageCodeFilter, len(current))

	current = timed(stageResolveHierarchy, func() []entities.Patient {
		return DropUnresolvedCodes(ResolveIndicesAll(current, pl.hierarchy))
	})
	record(StageIndexFilter, len(current))

	res.Patients = current
	return res
}

func timed(stage string, fn func() []entities.Patient) []entities.Patient {
	start := time.Now()
	out := fn()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return out
}
