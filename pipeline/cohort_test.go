package pipeline

import (
	"slices"
	"testing"

	"github.com/giygas/pvcohort/entities"
)

func TestCompileEventPattern(t *testing.T) {
	tests := []struct {
		name    string
		term    string
		escape  bool
		event   string
		matches bool
	}{
		{"case insensitive", "nausea", false, "Severe Nausea", true},
		{"whole word only", "nausea", false, "nauseating", false},
		{"exact", "nausea", false, "nausea", true},
		{"upper term", "NAUSEA", false, "nausea", true},
		{"inside phrase", "rash", false, "rash pruritic", true},
		{"prefix of word", "rash", false, "rashes", false},
		{"multi word term", "liver injury", false, "drug-induced liver injury", true},
		{"escaped dot matches itself", "a.b", true, "take a.b now", true},
		{"escaped dot is literal", "a.b", true, "axb", false},
		{"unescaped dot is a wildcard", "a.b", false, "axb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := CompileEventPattern(tt.term, tt.escape)
			if err != nil {
				t.Fatalf("CompileEventPattern(%q) error = %v", tt.term, err)
			}
			if got := re.MatchString(tt.event); got != tt.matches {
				t.Errorf("pattern %q on %q = %v, want %v", tt.term, tt.event, got, tt.matches)
			}
		})
	}
}

func TestCompileEventPatternInvalid(t *testing.T) {
	if _, err := CompileEventPattern("nausea(", false); err == nil {
		t.Error("Expected error for an invalid unescaped pattern")
	}
	if _, err := CompileEventPattern("nausea(", true); err != nil {
		t.Errorf("Expected escaped pattern to compile, got %v", err)
	}
}

func TestLabel(t *testing.T) {
	re, err := CompileEventPattern("nausea", false)
	if err != nil {
		t.Fatal(err)
	}

	patients := []entities.Patient{
		entities.NewPatient("1", []string{"x"}, []string{"rash", "Severe Nausea"}),
		entities.NewPatient("2", []string{"x"}, []string{"nauseating"}),
		entities.NewPatient("3", []string{"x"}, nil),
		entities.NewPatient("4", []string{"x"}, []string{"nausea", "nausea"}),
	}

	labels := Label(patients, re)
	if !slices.Equal(labels, []bool{true, false, false, true}) {
		t.Errorf("Label() = %v, want [true false false true]", labels)
	}
	if len(labels) != len(patients) {
		t.Errorf("Expected %d labels, got %d", len(patients), len(labels))
	}

	if got := Label(nil, re); len(got) != 0 {
		t.Errorf("Expected no labels for no patients, got %v", got)
	}
}

func TestCountEvents(t *testing.T) {
	patients := []entities.Patient{
		entities.NewPatient("1", []string{"x"}, []string{"rash", "nausea", "nausea"}),
		entities.NewPatient("2", []string{"x"}, []string{"headache", "rash"}),
		entities.NewPatient("3", []string{"x"}, []string{"nausea"}),
	}

	got := CountEvents(patients)
	want := []EventCount{{"nausea", 3}, {"rash", 2}, {"headache", 1}}
	if !slices.Equal(got, want) {
		t.Errorf("CountEvents() = %v, want %v", got, want)
	}
}
