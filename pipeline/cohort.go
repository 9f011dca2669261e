package pipeline

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/giygas/pvcohort/entities"
)

// CompileEventPattern builds the case-insensitive whole-word pattern for
// term. The term is used as a regular expression unless escape is set;
// callers passing user input should escape it.
func CompileEventPattern(term string, escape bool) (*regexp.Regexp, error) {
	if escape {
		term = regexp.QuoteMeta(term)
	}
	re, err := regexp.Compile(`(?i)^.*\b` + term + `\b.*$`)
	if err != nil {
		return nil, fmt.Errorf("invalid adverse event pattern %q: %w", term, err)
	}
	return re, nil
}

// HasEvent reports whether any event matches, stopping at the first match
func HasEvent(events []string, pattern *regexp.Regexp) bool {
	return slices.ContainsFunc(events, pattern.MatchString)
}

// Label returns one cohort label per patient, aligned with the input order
func Label(patients []entities.Patient, pattern *regexp.Regexp) []bool {
	labels := make([]bool, len(patients))
	for i, p := range patients {
		labels[i] = HasEvent(p.Events, pattern)
	}
	return labels
}
