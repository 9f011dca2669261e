package config

// Mode selects what a run produces
type Mode int

const (
	ModeNone Mode = iota
	// ModeAll exports the full patient table from a report file
	ModeAll
	// ModeSpecific labels patients from a report file against a term
	ModeSpecific
	// ModeCSVSpecific labels patients re-read from an exported full table
	ModeCSVSpecific
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeSpecific:
		return "specific"
	case ModeCSVSpecific:
		return "csvspecific"
	}
	return "none"
}

// Options holds the command line options of one run
type Options struct {
	Input       string
	Output      string
	Mapping     string
	Processed   bool // Mapping already reduced to two columns
	All         bool
	Specific    string
	CSVSpecific string
	// Set when the flag was given, even with an empty value
	SpecificSet    bool
	CSVSpecificSet bool
	Verbose        bool
	EscapeTerm     bool
}

// Mode returns the selected mode, or ModeNone when zero or several modes are set
func (o Options) Mode() Mode {
	if o.ModeCount() != 1 {
		return ModeNone
	}
	switch {
	case o.All:
		return ModeAll
	case o.SpecificSet:
		return ModeSpecific
	}
	return ModeCSVSpecific
}

// ModeCount returns how many mode flags were given
func (o Options) ModeCount() int {
	count := 0
	for _, set := range []bool{o.All, o.SpecificSet, o.CSVSpecificSet} {
		if set {
			count++
		}
	}
	return count
}

// Term returns the target adverse event of a labeling mode
func (o Options) Term() string {
	switch o.Mode() {
	case ModeSpecific:
		return o.Specific
	case ModeCSVSpecific:
		return o.CSVSpecific
	}
	return ""
}

// FromReports reports whether the run reads safety-report XML
func (o Options) FromReports() bool {
	m := o.Mode()
	return m == ModeAll || m == ModeSpecific
}
