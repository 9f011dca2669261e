package dictionary

import (
	"fmt"
	"strings"

	"github.com/giygas/pvcohort/textfile"
)

// LoadHierarchy reads the classification hierarchy: ','-delimited with a
// header row, the code in column 0. A code's index is the 0-based position of
// its line after the header: blank lines add no entry but still take a
// position. A code listed twice keeps the index of its first row.
//
// When the file cannot be read, an empty dictionary is returned together
// with an error wrapping ErrUnreadable.
func LoadHierarchy(path string) (*Dictionary[int], error) {
	d := newDictionary[int](NameHierarchy, FirstWins)

	r, err := textfile.OpenDecoded(path)
	if err != nil {
		return d, unreadable(d, path, err)
	}

	scanner := textfile.NewScanner(r)
	header := true
	index := 0
	for scanner.Scan() {
		d.stats.Lines++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if header {
			header = false
			continue
		}

		position := index
		index++

		if strings.TrimSpace(line) == "" {
			d.stats.SkippedEmptyLines++
			continue
		}

		code, _, _ := strings.Cut(line, ",")
		d.put(code, position)
	}

	if err := scanner.Err(); err != nil {
		return d, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	finish(d, path)
	return d, nil
}
