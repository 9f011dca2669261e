package dictionary

import (
	"fmt"
	"strings"

	"github.com/giygas/pvcohort/textfile"
)

// LoadSubstances reads the two-column substance dictionary: a drug name, ';',
// then the substance list. A list naming several substances is quoted and
// ';'-joined; the quotes are stripped here and the list is split by the
// normalizer. Later rows override earlier ones.
//
// When the file cannot be read, an empty dictionary is returned together
// with an error wrapping ErrUnreadable.
func LoadSubstances(path string) (*Dictionary[string], error) {
	d := newDictionary[string](NameSubstances, LastWins)

	r, err := textfile.OpenDecoded(path)
	if err != nil {
		return d, unreadable(d, path, err)
	}

	scanner := textfile.NewScanner(r)
	for scanner.Scan() {
		d.stats.Lines++
		line := scanner.Text()

		// Skip empty lines silently
		if strings.TrimSpace(line) == "" {
			d.stats.SkippedEmptyLines++
			continue
		}

		drug, substances, found := strings.Cut(line, ";")
		if !found {
			skipMalformed(d, path, d.stats.Lines, 1)
			continue
		}

		d.put(drug, unquoteSubstances(substances))
	}

	if err := scanner.Err(); err != nil {
		return d, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	finish(d, path)
	return d, nil
}

// unquoteSubstances keeps what lies between the first pair of double quotes,
// or everything after an unmatched opening quote
func unquoteSubstances(value string) string {
	_, quoted, found := strings.Cut(value, `"`)
	if !found {
		return value
	}
	inner, _, _ := strings.Cut(quoted, `"`)
	return inner
}
