// Package entities holds the patient record and the tagged values that flow
// through the resolution pipeline.
package entities

import "fmt"

// UnresolvedMarker is the textual form of an unresolved element in exported
// tables and logs.
const UnresolvedMarker = "NA"

// Element is a pipeline value that is either resolved or marks a failed lookup.
// The zero value is unresolved.
type Element[T comparable] struct {
	value    T
	resolved bool
}

// Term is a drug name, substance name or classification code.
type Term = Element[string]

// Index is an ordinal position in the classification hierarchy.
type Index = Element[int]

// Resolved wraps a successfully looked-up value.
func Resolved[T comparable](v T) Element[T] {
	return Element[T]{value: v, resolved: true}
}

// Unresolved returns the marker for a failed lookup.
func Unresolved[T comparable]() Element[T] {
	return Element[T]{}
}

// IsResolved reports whether the element carries a value.
func (e Element[T]) IsResolved() bool {
	return e.resolved
}

// Value returns the wrapped value and whether it is resolved.
func (e Element[T]) Value() (T, bool) {
	return e.value, e.resolved
}

func (e Element[T]) String() string {
	if !e.resolved {
		return UnresolvedMarker
	}
	return fmt.Sprint(e.value)
}

// Terms wraps raw strings as resolved terms.
func Terms(values ...string) []Term {
	terms := make([]Term, len(values))
	for i, v := range values {
		terms[i] = Resolved(v)
	}
	return terms
}
