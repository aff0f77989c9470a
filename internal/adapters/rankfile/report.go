package rankfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/clusterrank/internal/domain/types"
)

// Report is a parsed ranking file.
type Report struct {
	Entries []types.Entry
}

// Parse reads a ranking report.
func Parse(r io.Reader) (*Report, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	rep := &Report{}
	lineNo := 0
	pending := false
	lastText := ""
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case lineNo == 1:
			if strings.TrimSpace(line) == "" {
				return nil, &FormatError{Line: lineNo, Text: line, Err: errMissingHeader}
			}
			continue
		case lineNo == 2:
			if !IsBoundary(line) {
				return nil, &FormatError{Line: lineNo, Text: line, Err: errMissingSeparator}
			}
			continue
		case strings.TrimSpace(line) == "":
			continue
		}

		if IsBoundary(line) {
			if len(rep.Entries) == 0 || pending {
				return nil, &FormatError{Line: lineNo, Text: line, Err: errLeadingBoundary}
			}
			rep.Entries[len(rep.Entries)-1].Boundary = parseBoundary(line)
			pending = true
			lastText = line
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			return nil, &FormatError{Line: lineNo, Text: line, Err: err}
		}
		e.Rank = len(rep.Entries) + 1
		rep.Entries = append(rep.Entries, e)
		pending = false
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ranking: %w", err)
	}
	if lineNo < 2 {
		return nil, &FormatError{Line: lineNo + 1, Err: errMissingSeparator}
	}
	if pending {
		return nil, &FormatError{Line: lineNo, Text: lastText, Err: errTrailingBoundary}
	}
	return rep, nil
}

// ReadFile parses the ranking file at path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rep, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// Names returns all system names in report order.
func (r *Report) Names() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.System
	}
	return out
}

// Clusters splits the names at every boundary.
func (r *Report) Clusters() [][]string {
	var out [][]string
	var cur []string
	for _, e := range r.Entries {
		cur = append(cur, e.System)
		if e.Boundary.Splits() {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

// First returns the name of the top system, or "" for an empty report.
func (r *Report) First() string {
	if len(r.Entries) == 0 {
		return ""
	}
	return r.Entries[0].System
}

// Last returns the name of the bottom system, or "" for an empty report.
func (r *Report) Last() string {
	if len(r.Entries) == 0 {
		return ""
	}
	return r.Entries[len(r.Entries)-1].System
}
