package pipeline

import (
	"github.com/giygas/pvcohort/dictionary"
	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/metrics"
)

// ResolveCodes maps each substance to its primary classification code. The
// list keeps its order and duplicates; a miss becomes an unresolved element.
func ResolveCodes(p entities.Patient, codes interfaces.Lookup[string]) entities.Patient {
	out := make([]entities.Term, len(p.Items))

	for i, substance := range p.Items {
		name, ok := substance.Value()
		if !ok {
			out[i] = substance
			continue
		}

		code, found := codes.Lookup(name)
		metrics.RecordLookup(dictionary.NameCodes, found)
		if !found {
			out[i] = entities.Unresolved[string]()
			continue
		}
		out[i] = entities.Resolved(code)
	}

	return p.WithItems(out)
}

// ResolveIndices maps each classification code to its hierarchy index and
// collapses the indices into the patient's code set. The code list itself is
// left in place.
func ResolveIndices(p entities.Patient, hierarchy interfaces.Lookup[int]) entities.Patient {
	indices := make([]entities.Index, len(p.Items))

	for i, code := range p.Items {
		name, ok := code.Value()
		if !ok {
			indices[i] = entities.Unresolved[int]()
			continue
		}

		index, found := hierarchy.Lookup(name)
		metrics.RecordLookup(dictionary.NameHierarchy, found)
		if !found {
			indices[i] = entities.Unresolved[int]()
			continue
		}
		indices[i] = entities.Resolved(index)
	}

	return p.WithCodes(entities.NewCodeSet(indices...))
}

// ResolveCodesAll applies ResolveCodes to every patient, keeping input order
func ResolveCodesAll(patients []entities.Patient, codes interfaces.Lookup[string]) []entities.Patient {
	out := make([]entities.Patient, len(patients))
	for i, p := range patients {
		out[i] = ResolveCodes(p, codes)
	}
	return out
}

// ResolveIndicesAll applies ResolveIndices to every patient, keeping input order
func ResolveIndicesAll(patients []entities.Patient, hierarchy interfaces.Lookup[int]) []entities.Patient {
	out := make([]entities.Patient, len(patients))
	for i, p := range patients {
		out[i] = ResolveIndices(p, hierarchy)
	}
	return out
}
