package dictionary

import (
	"fmt"

	"github.com/giygas/pvcohort/logging"
	"github.com/giygas/pvcohort/metrics"
)

// unreadable logs the diagnostic for a file that cannot be opened and
// returns the matching error
func unreadable[V any](d *Dictionary[V], path string, err error) error {
	d.stats.Path = path
	d.stats.Unreadable = true
	logging.Error("Error opening dictionary file, continuing with an empty dictionary",
		"dictionary", d.name,
		"path", path,
		"error", err)
	metrics.DictionaryEntries.WithLabelValues(d.name).Set(0)
	return fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
}

// finish logs the load statistics and publishes them as metrics
func finish[V any](d *Dictionary[V], path string) {
	d.stats.Path = path
	d.stats.Entries = len(d.entries)

	if d.stats.SkippedEmptyLines > 0 || d.stats.SkippedMissingColumns > 0 {
		logging.Info("Dictionary skip statistics",
			"dictionary", d.name,
			"empty_lines", d.stats.SkippedEmptyLines,
			"missing_columns", d.stats.SkippedMissingColumns,
			"total_lines", d.stats.Lines,
			"entries", d.stats.Entries)
	}

	if d.stats.Collisions > 0 {
		logging.Debug("Dictionary key collisions",
			"dictionary", d.name,
			"collisions", d.stats.Collisions,
			"policy", d.policy.String())
	}

	metrics.DictionaryEntries.WithLabelValues(d.name).Set(float64(d.stats.Entries))
	metrics.DictionaryRowsSkipped.WithLabelValues(d.name).Add(float64(d.stats.SkippedMissingColumns))
	logging.Info("Dictionary loaded", "dictionary", d.name, "path", path, "entries", d.stats.Entries)
}

// skipMalformed records a row with too few columns
func skipMalformed[V any](d *Dictionary[V], path string, lineNumber int, columns int) {
	d.stats.SkippedMissingColumns++
	logging.Warn("Skipping a malformed line",
		"dictionary", d.name,
		"path", path,
		"line", lineNumber,
		"columns", columns)
}
