package entities

import (
	"slices"
	"strconv"
	"strings"
)

// CodeSet is the deduplicated set of hierarchy indices of a patient.
// Resolved indices are kept sorted; unresolved ones are only counted.
type CodeSet struct {
	codes      []int
	unresolved int
}

// NewCodeSet collapses indices into a set.
func NewCodeSet(indices ...Index) CodeSet {
	var set CodeSet
	for _, idx := range indices {
		v, ok := idx.Value()
		if !ok {
			set.unresolved++
			continue
		}
		set.codes = append(set.codes, v)
	}
	slices.Sort(set.codes)
	set.codes = slices.Compact(set.codes)
	return set
}

// CodeSetOf builds a fully resolved set from plain indices.
func CodeSetOf(codes ...int) CodeSet {
	indices := make([]Index, len(codes))
	for i, c := range codes {
		indices[i] = Resolved(c)
	}
	return NewCodeSet(indices...)
}

// Codes returns the resolved indices in ascending order.
func (s CodeSet) Codes() []int {
	return slices.Clone(s.codes)
}

// Len is the number of distinct resolved indices.
func (s CodeSet) Len() int {
	return len(s.codes)
}

// HasUnresolved reports whether any index failed to resolve.
func (s CodeSet) HasUnresolved() bool {
	return s.unresolved > 0
}

// Contains reports whether the resolved index is in the set.
func (s CodeSet) Contains(code int) bool {
	_, found := slices.BinarySearch(s.codes, code)
	return found
}

// String joins the resolved indices with ':' in ascending order.
func (s CodeSet) String() string {
	parts := make([]string, len(s.codes))
	for i, c := range s.codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ":")
}
