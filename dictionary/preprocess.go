package dictionary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/giygas/pvcohort/logging"
	"github.com/giygas/pvcohort/textfile"
)

// Columns kept from the rich standardized drug names file
const (
	mappingDrugColumn       = 1
	mappingSubstancesColumn = 2
)

// PreprocessStats summarises one mapping preprocessing pass
type PreprocessStats struct {
	Rows    int
	Written int
	Skipped int
}

// PreprocessMapping reduces the rich standardized drug names file to the
// two-column form read by LoadSubstances: the drug name and the substance
// list, ';'-delimited. Quoted cells may contain ';' and are re-quoted on
// output. Each line is parsed on its own; lines with fewer than three
// columns are skipped.
func PreprocessMapping(inputPath, outputPath string) (PreprocessStats, error) {
	var stats PreprocessStats

	in, err := textfile.OpenDecoded(inputPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open mapping file %s: %w", inputPath, err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return stats, fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			logging.Warn("Failed to close processed mapping file", "error", err)
		}
	}()

	stats, err = preprocess(in, outFile)
	if err != nil {
		return stats, fmt.Errorf("failed to preprocess %s: %w", inputPath, err)
	}

	logging.Info("Mapping file preprocessed",
		"input", inputPath,
		"output", outputPath,
		"rows", stats.Rows,
		"written", stats.Written,
		"skipped", stats.Skipped)
	return stats, nil
}

func preprocess(r io.Reader, w io.Writer) (PreprocessStats, error) {
	var stats PreprocessStats

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	scanner := textfile.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Rows++

		record, err := textfile.SplitLine(line, ';')
		if err != nil || len(record) <= mappingSubstancesColumn {
			stats.Skipped++
			logging.Warn("Skipping a malformed line", "line", lineNumber, "columns", len(record))
			continue
		}

		if err := writer.Write([]string{record[mappingDrugColumn], record[mappingSubstancesColumn]}); err != nil {
			return stats, fmt.Errorf("failed to write line %d: %w", lineNumber, err)
		}
		stats.Written++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read line %d: %w", lineNumber+1, err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, fmt.Errorf("failed to flush processed mapping: %w", err)
	}
	return stats, nil
}
