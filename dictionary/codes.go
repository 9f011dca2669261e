package dictionary

import (
	"fmt"
	"strings"

	"github.com/giygas/pvcohort/textfile"
)

// Column positions in the code binder file
const (
	codeSubstanceColumn = 1
	codePrimaryColumn   = 3
)

// LoadCodes reads the code binder: ';'-delimited with a header row, the
// substance name in column 1 and its primary classification code in
// column 3. A substance listed with several codes resolves to exactly one of
// them, chosen by policy: FirstWins keeps the first listed code.
//
// When the file cannot be read, an empty dictionary is returned together
// with an error wrapping ErrUnreadable.
func LoadCodes(path string, policy Policy) (*Dictionary[string], error) {
	d := newDictionary[string](NameCodes, policy)

	r, err := textfile.OpenDecoded(path)
	if err != nil {
		return d, unreadable(d, path, err)
	}

	scanner := textfile.NewScanner(r)
	header := true
	for scanner.Scan() {
		d.stats.Lines++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if header {
			header = false
			continue
		}

		if strings.TrimSpace(line) == "" {
			d.stats.SkippedEmptyLines++
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) <= codePrimaryColumn {
			skipMalformed(d, path, d.stats.Lines, len(fields))
			continue
		}

		d.put(fields[codeSubstanceColumn], fields[codePrimaryColumn])
	}

	if err := scanner.Err(); err != nil {
		return d, fmt.Errorf("scanner error in %s: %w", path, err)
	}

	finish(d, path)
	return d, nil
}
