// Package compare checks whether two ranking reports agree on order and
// cluster structure, and tallies changes across a batch of ranking pairs.
package compare

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Spec is one line of a pairs list: "version,pair,year,interface".
type Spec struct {
	Version   string // e.g. SR-DC
	LangPair  string // e.g. de-en
	Year      string
	Interface string // e.g. mturk, appraise
}

// Line renders s as it appears in a pairs list.
func (s Spec) Line() string {
	return strings.Join([]string{s.Version, s.LangPair, s.Year, s.Interface}, ",")
}

// Key returns the tally bucket s counts towards.
func (s Spec) Key() Key {
	return Key{Version: s.Version, Year: s.Year, Interface: s.Interface}
}

// Path returns <dir>/<version>/<pair>-<year>.<suffix>.
func (s Spec) Path(dir, suffix string) string {
	return filepath.Join(dir, s.Version, s.LangPair+"-"+s.Year+"."+suffix)
}

// ReadPairs parses a pairs list. Blank lines are skipped; every other line
// must have exactly four comma separated fields.
func ReadPairs(r io.Reader) ([]Spec, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []Spec
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPairs, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		out = append(out, Spec{Version: rec[0], LangPair: rec[1], Year: rec[2], Interface: rec[3]})
	}
}

// LoadPairs reads the pairs list at path.
func LoadPairs(path string) ([]Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	specs, err := ReadPairs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}
