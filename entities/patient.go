package entities

import "slices"

// Patient is one case report. Items holds raw drug names, then substances,
// then classification codes as the pipeline advances; Codes is set once by
// the last resolution stage. Stages return modified copies.
type Patient struct {
	ID     string
	Items  []Term
	Events []string
	Codes  CodeSet
}

// NewPatient creates a record from extracted drug names and event terms.
func NewPatient(id string, drugs []string, events []string) Patient {
	return Patient{
		ID:     id,
		Items:  Terms(drugs...),
		Events: slices.Clone(events),
	}
}

// WithItems returns a copy of the patient with its list replaced.
func (p Patient) WithItems(items []Term) Patient {
	p.Items = slices.Clone(items)
	return p
}

// WithCodes returns a copy of the patient with its code set replaced.
func (p Patient) WithCodes(codes CodeSet) Patient {
	p.Codes = codes
	return p
}

// HasUnresolvedItem reports whether any list element is unresolved.
func (p Patient) HasUnresolvedItem() bool {
	return slices.ContainsFunc(p.Items, func(t Term) bool { return !t.IsResolved() })
}

// ItemValues returns the list as strings, using the unresolved marker where needed.
func (p Patient) ItemValues() []string {
	values := make([]string, len(p.Items))
	for i, t := range p.Items {
		values[i] = t.String()
	}
	return values
}
