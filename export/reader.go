package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/logging"
	"github.com/giygas/pvcohort/textfile"
)

// ReadStats summarises one table read
type ReadStats struct {
	Rows           int
	Patients       int
	SkippedColumns int
	SkippedCodes   int
}

// ReadPatients parses a CODE/AE/SUBSTANCES table. The header row is skipped
// and patients get sequential ids starting at 0. Codes may be joined by ':'
// or ','.
func ReadPatients(r io.Reader) ([]entities.Patient, error) {
	patients, _, err := readPatients(r)
	return patients, err
}

// ReadPatientsFile reads a table from disk and logs its skip statistics
func ReadPatientsFile(path string) ([]entities.Patient, ReadStats, error) {
	r, err := textfile.OpenDecoded(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("failed to read patient table %s: %w", path, err)
	}

	patients, stats, err := readPatients(r)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse patient table %s: %w", path, err)
	}

	if stats.SkippedColumns > 0 || stats.SkippedCodes > 0 {
		logging.Info("Patient table skip statistics",
			"path", path,
			"missing_columns", stats.SkippedColumns,
			"invalid_codes", stats.SkippedCodes,
			"total_rows", stats.Rows,
			"patients", stats.Patients)
	}

	return patients, stats, nil
}

func readPatients(r io.Reader) ([]entities.Patient, ReadStats, error) {
	var stats ReadStats
	patients := []entities.Patient{}

	scanner := textfile.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()

		// Header
		if lineNumber == 1 || strings.TrimSpace(line) == "" {
			continue
		}
		stats.Rows++

		record, err := textfile.SplitLine(line, ';')
		if err != nil || len(record) < 2 {
			stats.SkippedColumns++
			logging.Warn("Skipping a malformed table row", "line", lineNumber, "columns", len(record))
			continue
		}

		codes, err := parseCodes(record[0])
		if err != nil {
			stats.SkippedCodes++
			logging.Warn("Skipping a table row with an invalid code", "line", lineNumber, "error", err)
			continue
		}

		var items []string
		if len(record) > 2 {
			items = strings.Fields(record[2])
		}

		p := entities.NewPatient(strconv.Itoa(len(patients)), items, splitEvents(record[1])).
			WithCodes(codes)
		patients = append(patients, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read line %d: %w", lineNumber+1, err)
	}

	stats.Patients = len(patients)
	return patients, stats, nil
}

func parseCodes(field string) (entities.CodeSet, error) {
	parts := strings.FieldsFunc(field, func(r rune) bool {
		return r == ':' || r == ','
	})

	codes := make([]int, 0, len(parts))
	for _, part := range parts {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return entities.CodeSet{}, fmt.Errorf("invalid code %q", part)
		}
		codes = append(codes, code)
	}
	return entities.CodeSetOf(codes...), nil
}

func splitEvents(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, eventSeparator)
}
