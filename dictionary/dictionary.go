// Package dictionary loads the flat lookup tables used to resolve drug names:
// the substance dictionary, the classification code resolver and the
// hierarchy index.
package dictionary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/pvcohort/interfaces"
)

// Dictionary names used in logs, metrics and quality reports
const (
	NameSubstances = "substances"
	NameCodes      = "codes"
	NameHierarchy  = "hierarchy"
)

// ErrUnreadable is returned alongside an empty dictionary when its file
// cannot be opened or read.
var ErrUnreadable = errors.New("dictionary file unreadable")

// Policy decides which value is kept when a key appears more than once.
type Policy int

const (
	LastWins Policy = iota
	FirstWins
)

// ParsePolicy maps "first" or "last" to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first":
		return FirstWins, nil
	case "last":
		return LastWins, nil
	}
	return LastWins, fmt.Errorf("unknown collision policy %q", s)
}

func (p Policy) String() string {
	if p == FirstWins {
		return "first"
	}
	return "last"
}

// Compile-time checks to ensure Dictionary implements Lookup
var (
	_ interfaces.Lookup[string] = (*Dictionary[string])(nil)
	_ interfaces.Lookup[int]    = (*Dictionary[int])(nil)
)

// Dictionary is an immutable string-keyed lookup table. It is built once by a
// loader and only read afterwards.
type Dictionary[V any] struct {
	name    string
	policy  Policy
	entries map[string]V
	stats   LoadStats
}

// LoadStats summarises one dictionary load
type LoadStats struct {
	Path                  string
	Lines                 int
	Entries               int
	SkippedEmptyLines     int
	SkippedMissingColumns int
	Collisions            int
	Unreadable            bool
}

// New builds a dictionary from an in-memory map
func New[V any](name string, entries map[string]V) *Dictionary[V] {
	d := newDictionary[V](name, LastWins)
	for k, v := range entries {
		d.entries[k] = v
	}
	d.stats.Entries = len(d.entries)
	return d
}

func newDictionary[V any](name string, policy Policy) *Dictionary[V] {
	return &Dictionary[V]{
		name:    name,
		policy:  policy,
		entries: make(map[string]V),
	}
}

// put stores value under key following the collision policy
func (d *Dictionary[V]) put(key string, value V) {
	if _, exists := d.entries[key]; exists {
		d.stats.Collisions++
		if d.policy == FirstWins {
			return
		}
	}
	d.entries[key] = value
}

// Lookup returns the value stored for key and whether it was present
func (d *Dictionary[V]) Lookup(key string) (V, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Len returns the number of entries
func (d *Dictionary[V]) Len() int {
	return len(d.entries)
}

// Name returns the dictionary name
func (d *Dictionary[V]) Name() string {
	return d.name
}

// Policy returns the collision policy used while loading
func (d *Dictionary[V]) Policy() Policy {
	return d.policy
}

// Stats returns the load statistics
func (d *Dictionary[V]) Stats() LoadStats {
	return d.stats
}

// Unreadable reports whether the source file could not be opened
func (d *Dictionary[V]) Unreadable() bool { return d.stats.Unreadable }

// Collisions returns the number of repeated keys seen while loading
func (d *Dictionary[V]) Collisions() int { return d.stats.Collisions }

// SkippedRows returns the number of rows with too few columns
func (d *Dictionary[V]) SkippedRows() int { return d.stats.SkippedMissingColumns }
