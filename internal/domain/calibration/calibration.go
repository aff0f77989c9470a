// Package calibration derives per-annotator score statistics and converts
// raw judgments into z-scores.
package calibration

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/clusterrank/internal/domain/model"
)

// Stat is one annotator's calibration: mean and sample standard deviation
// (N-1 denominator) over all of their raw scores.
type Stat struct {
	Mean   float64
	StdDev float64 // NaN when fewer than two scores
	N      int
}

// Usable reports whether judgments can be standardized with s.
func (s Stat) Usable() bool {
	return s.StdDev != 0 && !math.IsNaN(s.StdDev) && !math.IsInf(s.StdDev, 0)
}

// ZScore standardizes a raw score. Only meaningful when Usable.
func (s Stat) ZScore(raw float64) float64 {
	return (raw - s.Mean) / s.StdDev
}

// Table maps annotator ids to their calibration. A Table is read-only after
// Fit returns and may be shared freely.
type Table struct {
	stats map[string]Stat
}

// Fit computes calibration stats from the full filtered raw pool. The pool
// must not be deduplicated.
func Fit(pool []model.Judgment) *Table {
	t := &Table{stats: make(map[string]Stat)}
	for annotator, js := range model.GroupByAnnotator(pool) {
		t.stats[annotator] = fitOne(model.Scores(js))
	}
	return t
}

func fitOne(scores []float64) Stat {
	if len(scores) < 2 {
		return Stat{Mean: stat.Mean(scores, nil), StdDev: math.NaN(), N: len(scores)}
	}
	mean, std := stat.MeanStdDev(scores, nil)
	return Stat{Mean: mean, StdDev: std, N: len(scores)}
}

// Lookup returns the calibration for annotator.
func (t *Table) Lookup(annotator string) (Stat, bool) {
	s, ok := t.stats[annotator]
	return s, ok
}

// Len returns the number of calibrated annotators.
func (t *Table) Len() int { return len(t.stats) }

// Unusable returns the sorted ids of annotators whose calibration cannot
// standardize scores.
func (t *Table) Unusable() []string {
	var ids []string
	for id, s := range t.stats {
		if !s.Usable() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Outcome describes a Standardize pass.
type Outcome struct {
	// Excluded lists annotators whose judgments were left out of the z-score
	// stream, either for an unusable calibration or for having none at all.
	Excluded []string
	// Uncalibrated is the subset of Excluded absent from the table.
	Uncalibrated []string
	Dropped      int // judgments left out
}

// Standardize converts every judgment whose annotator has a usable
// calibration into a z-score. Judgments from other annotators are dropped,
// not zero-filled; the input slice is not modified.
func (t *Table) Standardize(_ context.Context, js []model.Judgment) ([]model.Judgment, Outcome) {
	var (
		out      = make([]model.Judgment, 0, len(js))
		excluded = make(map[string]bool)
		outcome  Outcome
	)
	for _, j := range js {
		s, ok := t.stats[j.Annotator]
		if !ok || !s.Usable() {
			if _, seen := excluded[j.Annotator]; !seen {
				excluded[j.Annotator] = !ok
			}
			outcome.Dropped++
			continue
		}
		out = append(out, j.WithScore(s.ZScore(j.Score)))
	}
	for id, missing := range excluded {
		outcome.Excluded = append(outcome.Excluded, id)
		if missing {
			outcome.Uncalibrated = append(outcome.Uncalibrated, id)
		}
	}
	sort.Strings(outcome.Excluded)
	sort.Strings(outcome.Uncalibrated)
	return out, outcome
}
