// Package interfaces defines the contracts between the pipeline stages so that
// dictionaries, report trees and exporters can be swapped in tests.
package interfaces

import (
	"io"

	"github.com/giygas/pvcohort/config"
	"github.com/giygas/pvcohort/entities"
)

// DataQualityReport provides a summary of dictionary quality issues
type DataQualityReport struct {
	EmptyDictionaries      []string
	UnreadableDictionaries []string
	Entries                map[string]int // Entry count per dictionary
	Collisions             map[string]int // Repeated keys per dictionary
	SkippedRows            map[string]int // Rows with too few columns per dictionary
}

// HasRisk reports whether a dictionary is empty or unreadable
func (r *DataQualityReport) HasRisk() bool {
	return len(r.EmptyDictionaries) > 0 || len(r.UnreadableDictionaries) > 0
}

// Lookup is a read-only dictionary. A miss is reported through the boolean,
// never through an error.
type Lookup[V any] interface {
	// Lookup returns the value stored for key and whether it was present
	Lookup(key string) (V, bool)

	// Len returns the number of entries
	Len() int
}

// Node is one element of an already parsed report document.
type Node interface {
	// Name returns the local element name
	Name() string

	// Child returns the first child element with the given name, or nil
	Child(name string) Node

	// Children returns every child element with the given name, in document order
	Children(name string) []Node

	// Text returns the trimmed character data of the element
	Text() string
}

// Exporter serializes pipeline output to delimited text.
type Exporter interface {
	// WritePatients writes the full CODE/AE/SUBSTANCES table
	WritePatients(w io.Writer, patients []entities.Patient) error

	// WriteLabeled writes the code set of each patient with its cohort label
	WriteLabeled(w io.Writer, patients []entities.Patient, labels []bool) error
}

// PatientReader loads a previously exported full table.
type PatientReader interface {
	ReadPatientsFile(path string) ([]entities.Patient, error)
}

// DictionaryInfo is what the quality report reads from a loaded dictionary.
type DictionaryInfo interface {
	Name() string
	Len() int

	// Unreadable reports whether the source file could not be opened
	Unreadable() bool

	// Collisions returns the number of repeated keys seen while loading
	Collisions() int

	// SkippedRows returns the number of rows with too few columns
	SkippedRows() int
}

// DataValidator defines the contract for run validation.
type DataValidator interface {
	// ValidateOptions checks the command line options before any processing
	ValidateOptions(opts config.Options) error

	// ReportDictionaries summarises the quality of the loaded dictionaries
	ReportDictionaries(dicts ...DictionaryInfo) *DataQualityReport
}
