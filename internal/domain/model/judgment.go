// Package model contains domain models passed between pipeline stages.
package model

import (
	"sort"
	"strings"
)

// ScoreKind classifies a judgment by what was being scored.
type ScoreKind string

// Known score kinds. Other kinds may appear in calibration input and are
// carried through unchanged.
const (
	KindSystem ScoreKind = "SYSTEM" // regular system output
	KindRepeat ScoreKind = "REPEAT" // repeated item used for quality control
	KindRef    ScoreKind = "REF"    // reference / human translation
)

// Ranked reports whether judgments of this kind feed the system ranking.
func (k ScoreKind) Ranked() bool {
	return k == KindSystem || k == KindRepeat
}

// Pair is a source/target language pair, e.g. {"en", "de"}.
type Pair struct {
	Src string
	Trg string
}

// String renders the pair as "src-trg".
func (p Pair) String() string { return p.Src + "-" + p.Trg }

// Judgment is one annotator's score for one system's output on one segment.
// Judgments are immutable once parsed; stages that transform scores return
// new values.
type Judgment struct {
	HitID     string    // assessment task the judgment was collected in
	Annotator string    // worker id; the unit of calibration
	System    string    // system name
	Segment   string    // segment id
	Kind      ScoreKind // SYSTEM, REPEAT, REF, ...
	Score     float64   // raw score, or z-score after standardization
}

// WithScore returns a copy of j carrying score s.
func (j Judgment) WithScore(s float64) Judgment {
	j.Score = s
	return j
}

// IsHuman reports whether system names a human/reference translation,
// either by kind or by carrying marker in its name.
func IsHuman(system string, kind ScoreKind, marker string) bool {
	if kind == KindRef {
		return true
	}
	return marker != "" && strings.Contains(system, marker)
}

// GroupBySystem buckets judgments by system name. Order within a bucket
// follows input order.
func GroupBySystem(js []Judgment) map[string][]Judgment {
	out := make(map[string][]Judgment)
	for _, j := range js {
		out[j.System] = append(out[j.System], j)
	}
	return out
}

// GroupByAnnotator buckets judgments by annotator id.
func GroupByAnnotator(js []Judgment) map[string][]Judgment {
	out := make(map[string][]Judgment)
	for _, j := range js {
		out[j.Annotator] = append(out[j.Annotator], j)
	}
	return out
}

// Systems returns the sorted set of system names present in js.
func Systems(js []Judgment) []string {
	seen := make(map[string]struct{})
	for _, j := range js {
		seen[j.System] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scores extracts the score column.
func Scores(js []Judgment) []float64 {
	out := make([]float64, len(js))
	for i, j := range js {
		out[i] = j.Score
	}
	return out
}
