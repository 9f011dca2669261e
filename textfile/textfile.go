// Package textfile reads the delimited reference files and exported tables
// line by line.
package textfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/giygas/pvcohort/logging"
	"golang.org/x/text/encoding/charmap"
)

const maxLineSize = 1024 * 1024

// OpenDecoded reads a whole file and returns a reader over its UTF-8 content.
// Files are published in either UTF-8 or ISO-8859-1.
func OpenDecoded(path string) (io.Reader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if utf8.Valid(content) {
		return bytes.NewReader(content), nil
	}

	logging.Debug("Decoding file as ISO-8859-1", "path", path)
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(content)), nil
}

// NewScanner returns a line scanner accepting lines up to 1MB
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// SplitLine splits one line on sep. A double-quoted field may contain sep;
// a quote left open runs to the end of the line and never past it.
func SplitLine(line string, sep rune) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	fields, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return fields, err
}
