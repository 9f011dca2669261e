package pipeline

import "github.com/giygas/pvcohort/entities"

// DropUnresolved keeps the patients whose list holds no unresolved element.
// A single unresolved element drops the whole patient. Order is preserved.
func DropUnresolved(patients []entities.Patient) []entities.Patient {
	return keep(patients, func(p entities.Patient) bool {
		return !p.HasUnresolvedItem()
	})
}

// DropUnresolvedCodes keeps the patients whose code set holds no unresolved
// index. Order is preserved.
func DropUnresolvedCodes(patients []entities.Patient) []entities.Patient {
	return keep(patients, func(p entities.Patient) bool {
		return !p.Codes.HasUnresolved()
	})
}

func keep(patients []entities.Patient, pred func(entities.Patient) bool) []entities.Patient {
	out := make([]entities.Patient, 0, len(patients))
	for _, p := range patients {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
