// Package export writes pipeline output as ';'-delimited tables and reads a
// previously written full table back.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/interfaces"
)

// Table headers. Both carry a trailing space before the newline.
const (
	PatientsHeader = "CODE ; AE ; SUBSTANCES \n"
	LabeledHeader  = "patientATC ; patientADR \n"
)

const (
	fieldSeparator = ";"
	eventSeparator = ","
	itemSeparator  = " "
)

// ErrLabelMismatch is returned when labels and patients are not aligned
var ErrLabelMismatch = errors.New("labels do not align with patients")

// Compile-time checks to ensure TableExporter implements the export contracts
var (
	_ interfaces.Exporter      = (*TableExporter)(nil)
	_ interfaces.PatientReader = (*TableExporter)(nil)
)

// TableExporter implements interfaces.Exporter and interfaces.PatientReader
type TableExporter struct{}

// NewTableExporter creates a new table exporter
func NewTableExporter() *TableExporter {
	return &TableExporter{}
}

func (e *TableExporter) WritePatients(w io.Writer, patients []entities.Patient) error {
	return WritePatients(w, patients)
}

func (e *TableExporter) WriteLabeled(w io.Writer, patients []entities.Patient, labels []bool) error {
	return WriteLabeled(w, patients, labels)
}

// ReadPatientsFile reads a full table from disk, logging its skip statistics
func (e *TableExporter) ReadPatientsFile(path string) ([]entities.Patient, error) {
	patients, _, err := ReadPatientsFile(path)
	return patients, err
}

// FormatPatient renders one full-table row without its newline: the code
// set, the events and every list element followed by a space, each field
// terminated by ';'.
func FormatPatient(p entities.Patient) string {
	var sb strings.Builder
	sb.WriteString(p.Codes.String())
	sb.WriteString(fieldSeparator)
	sb.WriteString(strings.Join(p.Events, eventSeparator))
	sb.WriteString(fieldSeparator)
	for _, item := range p.Items {
		sb.WriteString(item.String())
		sb.WriteString(itemSeparator)
	}
	sb.WriteString(fieldSeparator)
	return sb.String()
}

// FormatLabeled renders one labeled row without its newline
func FormatLabeled(p entities.Patient, label bool) string {
	flag := "0"
	if label {
		flag = "1"
	}
	return p.Codes.String() + fieldSeparator + flag
}

// WritePatients writes the CODE/AE/SUBSTANCES table, one row per patient in
// input order
func WritePatients(w io.Writer, patients []entities.Patient) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(PatientsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range patients {
		if _, err := bw.WriteString(FormatPatient(p) + "\n"); err != nil {
			return fmt.Errorf("failed to write patient %s: %w", p.ID, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush patient table: %w", err)
	}
	return nil
}

// WriteLabeled writes the patientATC/patientADR table. labels must be aligned
// with patients.
func WriteLabeled(w io.Writer, patients []entities.Patient, labels []bool) error {
	if len(labels) != len(patients) {
		return fmt.Errorf("%w: %d patients, %d labels", ErrLabelMismatch, len(patients), len(labels))
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(LabeledHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range patients {
		if _, err := bw.WriteString(FormatLabeled(p, labels[i]) + "\n"); err != nil {
			return fmt.Errorf("failed to write patient %s: %w", p.ID, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush labeled table: %w", err)
	}
	return nil
}
