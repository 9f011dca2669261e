package reports

import (
	"fmt"
	"os"

	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/logging"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Element names of the ICH E2B export
const (
	reportElement     = "safetyreport"
	reportIDElement   = "safetyreportid"
	patientElement    = "patient"
	drugElement       = "drug"
	drugNameElement   = "medicinalproduct"
	reactionElement   = "reaction"
	reactionPTElement = "reactionmeddrapt"
)

// ExtractStats summarises one extraction
type ExtractStats struct {
	Reports           int
	Patients          int
	SkippedNoPatient  int
	SkippedNoDrug     int
	DuplicateReportID int
}

// Extract builds one patient per report id from the children of root.
// Drug names and PT terms are lower-cased and kept in report order. Patients
// come out in order of first appearance; a repeated report id replaces the
// content of the earlier one. Reports without a patient or without any drug
// are skipped.
func Extract(root interfaces.Node) ([]entities.Patient, ExtractStats) {
	var stats ExtractStats
	if root == nil {
		return nil, stats
	}

	lower := cases.Lower(language.Und)
	positions := make(map[string]int)
	var patients []entities.Patient

	for _, report := range root.Children(reportElement) {
		stats.Reports++
		id := childText(report, reportIDElement)

		patientNode := report.Child(patientElement)
		if patientNode == nil {
			stats.SkippedNoPatient++
			logging.Warn("Skipping report without patient", "report_id", id)
			continue
		}

		var drugs []string
		for _, drug := range patientNode.Children(drugElement) {
			drugs = append(drugs, lower.String(childText(drug, drugNameElement)))
		}
		if len(drugs) == 0 {
			stats.SkippedNoDrug++
			logging.Warn("Skipping report without drug", "report_id", id)
			continue
		}

		var events []string
		for _, reaction := range patientNode.Children(reactionElement) {
			events = append(events, lower.String(childText(reaction, reactionPTElement)))
		}

		patient := entities.NewPatient(id, drugs, events)
		if pos, seen := positions[id]; seen {
			stats.DuplicateReportID++
			logging.Debug("Report id seen twice, keeping the last one", "report_id", id)
			patients[pos] = patient
			continue
		}
		positions[id] = len(patients)
		patients = append(patients, patient)
	}

	stats.Patients = len(patients)
	return patients, stats
}

// ExtractFile parses the XML file at path and extracts its patients
func ExtractFile(path string) ([]entities.Patient, ExtractStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ExtractStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close report file", "error", err)
		}
	}()

	root, err := Parse(file)
	if err != nil {
		return nil, ExtractStats{}, fmt.Errorf("error parsing the xml file %s: %w", path, err)
	}

	patients, stats := Extract(root)
	logging.Info("Reports extracted",
		"path", path,
		"reports", stats.Reports,
		"patients", stats.Patients,
		"skipped_no_patient", stats.SkippedNoPatient,
		"skipped_no_drug", stats.SkippedNoDrug,
		"duplicate_ids", stats.DuplicateReportID)
	return patients, stats, nil
}
