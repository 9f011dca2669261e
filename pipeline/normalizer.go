// Package pipeline resolves patients' drug names down to classification
// hierarchy indices, drops patients with any unresolved element, and labels
// patients against a target adverse event.
package pipeline

import (
	"strings"

	"github.com/giygas/pvcohort/dictionary"
	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/metrics"
)

// correctionDelimiters flag a drug name carrying dosage or form qualifiers
const correctionDelimiters = "/([{^"

const substanceSeparator = ";"

// CorrectDrugName keeps only the leading token of a drug name that contains
// one of the correction delimiters, e.g. "drugx/2mg (tablet)" -> "drugx/2mg".
func CorrectDrugName(drug string) string {
	if !strings.ContainsAny(drug, correctionDelimiters) {
		return drug
	}
	token, _, _ := strings.Cut(drug, " ")
	return token
}

// Normalize replaces the patient's drug names with their substances. A drug
// missing from the dictionary contributes a single unresolved element; a
// drug mapping to a ';'-joined list contributes every substance in order.
func Normalize(p entities.Patient, substances interfaces.Lookup[string]) entities.Patient {
	out := make([]entities.Term, 0, len(p.Items))

	for _, drug := range p.Items {
		name, ok := drug.Value()
		if !ok {
			out = append(out, drug)
			continue
		}

		value, found := substances.Lookup(CorrectDrugName(name))
		metrics.RecordLookup(dictionary.NameSubstances, found)
		if !found {
			out = append(out, entities.Unresolved[string]())
			continue
		}

		for _, substance := range strings.Split(value, substanceSeparator) {
			out = append(out, entities.Resolved(strings.TrimSuffix(substance, "\r")))
		}
	}

	return p.WithItems(out)
}

// NormalizeAll normalizes every patient, keeping input order
func NormalizeAll(patients []entities.Patient, substances interfaces.Lookup[string]) []entities.Patient {
	out := make([]entities.Patient, len(patients))
	for i, p := range patients {
		out[i] = Normalize(p, substances)
	}
	return out
}
