package pipeline

import (
	"cmp"
	"slices"

	"github.com/giygas/pvcohort/entities"
)

// EventCount is the number of occurrences of one adverse event term
type EventCount struct {
	Term  string
	Count int
}

// CountEvents counts every event occurrence across patients. The result is
// sorted by decreasing count, then by term.
func CountEvents(patients []entities.Patient) []EventCount {
	counts := make(map[string]int)
	for _, p := range patients {
		for _, e := range p.Events {
			counts[e]++
		}
	}

	out := make([]EventCount, 0, len(counts))
	for term, n := range counts {
		out = append(out, EventCount{Term: term, Count: n})
	}
	slices.SortFunc(out, func(a, b EventCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	return out
}
