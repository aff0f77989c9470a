// Package rankfile reads and writes the plain-text ranking report.
//
// A report starts with a title line and a dash separator. Every following
// line is either an entry ("<raw> <z> <system>") or a boundary, which starts
// with at least MinDashes dashes and opens a new cluster. A boundary always
// sits between two entries.
package rankfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/clusterrank/internal/domain/types"
)

// FormatVersion is the version of the line grammar written by Write.
const FormatVersion = 1

// MinDashes is the shortest dash run recognized as a boundary line.
const MinDashes = 9

// Header lines of a report.
const (
	Title     = "   Ave.   Ave.z  System"
	Separator = "-----------------------------------------"
)

var markers = map[types.Boundary]string{
	types.BoundaryStrong:   "----------------------------------------TT (0.001)",
	types.BoundaryModerate: "-----------------------------------------T (0.01)",
	types.BoundaryWeak:     "-----------------------------------------X (0.05)",
	types.BoundaryUnranked: "----------------------------------------NA (unranked)",
}

// Marker returns the boundary line for b, or "" for BoundaryNone.
func Marker(b types.Boundary) string { return markers[b] }

// FormatEntry renders one entry line.
func FormatEntry(e types.Entry) string {
	z := fmt.Sprintf("%7.3f", e.ZScore)
	if math.IsNaN(e.ZScore) {
		z = fmt.Sprintf("%7s", "nan")
	}
	return fmt.Sprintf("%7.1f %s %s", e.RawScore, z, e.System)
}

// Write prints entries as a version 1 report. The boundary of the last
// entry is never printed.
func Write(w io.Writer, entries []types.Entry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Title)
	fmt.Fprintln(bw, Separator)
	for i, e := range entries {
		fmt.Fprintln(bw, FormatEntry(e))
		if i == len(entries)-1 {
			break
		}
		if m := Marker(e.Boundary); m != "" {
			fmt.Fprintln(bw, m)
		}
	}
	return bw.Flush()
}

// IsBoundary reports whether line is a boundary line.
func IsBoundary(line string) bool {
	return len(line) >= MinDashes && strings.Count(line[:MinDashes], "-") == MinDashes
}

// parseBoundary decodes the level annotation of a boundary line. Any dash
// run splits clusters, so unknown annotations are read as weak.
func parseBoundary(line string) types.Boundary {
	rest := strings.TrimLeft(line, "-")
	tag, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
	switch tag {
	case "TT":
		return types.BoundaryStrong
	case "T":
		return types.BoundaryModerate
	case "NA":
		return types.BoundaryUnranked
	default:
		return types.BoundaryWeak
	}
}

func parseEntry(line string) (types.Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return types.Entry{}, errEntryFields
	}
	raw, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return types.Entry{}, fmt.Errorf("raw score: %w", err)
	}
	z, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return types.Entry{}, fmt.Errorf("z-score: %w", err)
	}
	return types.Entry{
		System:   strings.Join(fields[2:], " "),
		RawScore: raw,
		ZScore:   z,
	}, nil
}
