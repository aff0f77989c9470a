// Package judgments loads crowd-sourced judgment records and applies the
// language-pair and exclusion filters.
package judgments

import (
	"strconv"
	"strings"

	"github.com/okian/clusterrank/internal/domain/model"
)

// FieldCount is the number of whitespace-separated fields per record.
const FieldCount = 12

// Field positions within a record. Unlisted positions are unused.
const (
	fieldHitID    = 0
	fieldWorkerID = 1
	fieldSrc      = 2
	fieldTrg      = 3
	fieldSystem   = 6
	fieldKind     = 8
	fieldSegment  = 9
	fieldScore    = 10
)

// Record is one parsed input line.
type Record struct {
	HitID    string
	WorkerID string
	Src      string
	Trg      string
	System   string
	Kind     model.ScoreKind
	Segment  string
	Score    float64
}

// Judgment converts the record into a domain judgment.
func (r Record) Judgment() model.Judgment {
	return model.Judgment{
		HitID:     r.HitID,
		Annotator: r.WorkerID,
		System:    r.System,
		Segment:   r.Segment,
		Kind:      r.Kind,
		Score:     r.Score,
	}
}

// ParseRecord parses a single line. path and lineNo only decorate errors.
func ParseRecord(path string, lineNo int, line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != FieldCount {
		return Record{}, &ParseError{Path: path, Line: lineNo, Text: line, Fields: len(fields)}
	}
	score, err := strconv.ParseFloat(fields[fieldScore], 64)
	if err != nil {
		return Record{}, &ParseError{Path: path, Line: lineNo, Text: line, Fields: len(fields), Err: err}
	}
	return Record{
		HitID:    fields[fieldHitID],
		WorkerID: fields[fieldWorkerID],
		Src:      fields[fieldSrc],
		Trg:      fields[fieldTrg],
		System:   fields[fieldSystem],
		Kind:     model.ScoreKind(fields[fieldKind]),
		Segment:  fields[fieldSegment],
		Score:    score,
	}, nil
}
