// Package validation checks command line options before a run and reports
// the quality of the loaded dictionaries.
package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/giygas/pvcohort/config"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/logging"
)

// ErrInvalidOptions is returned for a missing mandatory option or
// conflicting modes
var ErrInvalidOptions = errors.New("invalid options")

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() *DataValidatorImpl {
	return &DataValidatorImpl{}
}

// ValidateOptions checks the command line options. Every failure wraps
// ErrInvalidOptions.
func (v *DataValidatorImpl) ValidateOptions(opts config.Options) error {
	return ValidateOptions(opts)
}

// ValidateOptions checks the command line options. Every failure wraps
// ErrInvalidOptions.
func ValidateOptions(opts config.Options) error {
	if strings.TrimSpace(opts.Input) == "" {
		return fmt.Errorf("%w: the --input option is mandatory", ErrInvalidOptions)
	}

	if strings.TrimSpace(opts.Output) == "" {
		return fmt.Errorf("%w: the --output option is mandatory", ErrInvalidOptions)
	}

	switch n := opts.ModeCount(); {
	case n == 0:
		return fmt.Errorf("%w: one of --all, --specific or --csvspecific is required", ErrInvalidOptions)
	case n > 1:
		return fmt.Errorf("%w: only one of --all, --specific or --csvspecific can be specified at a time", ErrInvalidOptions)
	}

	if opts.Mode() != config.ModeAll && strings.TrimSpace(opts.Term()) == "" {
		return fmt.Errorf("%w: the adverse event term cannot be empty", ErrInvalidOptions)
	}

	if opts.FromReports() && !opts.Processed && strings.TrimSpace(opts.Mapping) == "" {
		return fmt.Errorf("%w: the --mapping option is mandatory when going from xml to csv", ErrInvalidOptions)
	}

	if _, err := os.Stat(opts.Input); err != nil {
		return fmt.Errorf("%w: input file %s: %v", ErrInvalidOptions, opts.Input, err)
	}

	if opts.FromReports() && !opts.Processed {
		if _, err := os.Stat(opts.Mapping); err != nil {
			return fmt.Errorf("%w: mapping file %s: %v", ErrInvalidOptions, opts.Mapping, err)
		}
	}

	return nil
}

// ReportDictionaries summarises the loaded dictionaries. An empty dictionary
// is a risk: every lookup against it misses and every patient is dropped.
func (v *DataValidatorImpl) ReportDictionaries(dicts ...interfaces.DictionaryInfo) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		EmptyDictionaries:      []string{},
		UnreadableDictionaries: []string{},
		Entries:                make(map[string]int),
		Collisions:             make(map[string]int),
		SkippedRows:            make(map[string]int),
	}

	for _, d := range dicts {
		report.Entries[d.Name()] = d.Len()

		if d.Unreadable() {
			report.UnreadableDictionaries = append(report.UnreadableDictionaries, d.Name())
		}

		if d.Len() == 0 {
			report.EmptyDictionaries = append(report.EmptyDictionaries, d.Name())
		}

		if n := d.Collisions(); n > 0 {
			report.Collisions[d.Name()] = n
		}

		if skipped := d.SkippedRows(); skipped > 0 {
			report.SkippedRows[d.Name()] = skipped
		}
	}

	return report
}

// LogReport writes the report findings to the log
func LogReport(report *interfaces.DataQualityReport) {
	if len(report.UnreadableDictionaries) > 0 {
		logging.Error("Dictionaries could not be read",
			"dictionaries", report.UnreadableDictionaries,
		)
	}

	if len(report.EmptyDictionaries) > 0 {
		logging.Warn("Empty dictionaries, every lookup against them will miss and drop the patient",
			"dictionaries", report.EmptyDictionaries,
		)
	}

	for name, n := range report.Collisions {
		logging.Debug("Dictionary key collisions", "dictionary", name, "count", n)
	}

	for name, n := range report.SkippedRows {
		logging.Warn("Malformed dictionary rows skipped", "dictionary", name, "count", n)
	}
}
