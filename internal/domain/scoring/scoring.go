// Package scoring aggregates deduplicated judgments into per-system scores
// and orders systems into a ranking.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	dedupe "github.com/okian/clusterrank/internal/domain/dedupe"
	"github.com/okian/clusterrank/internal/domain/model"
)

// Summary is a system's aggregate over its deduplicated raw and z-score
// pools. The two pools may cover different judgments: the z pool omits
// annotators that could not be standardized.
type Summary struct {
	System  string
	MeanRaw float64
	MeanZ   float64 // NaN when Z is empty
	Raw     []dedupe.Entry
	Z       []dedupe.Entry
}

// Ranked reports whether the system has at least one standardized segment
// and therefore a defined mean z-score.
func (s Summary) Ranked() bool { return len(s.Z) > 0 }

// ZSample returns the per-segment z-scores used for significance testing.
func (s Summary) ZSample() []float64 { return dedupe.Scores(s.Z) }

// Option applies a configuration option to Aggregate.
type Option func(*aggregator)

type aggregator struct {
	keep func(system string) bool
}

// WithSystemFilter limits aggregation to systems for which keep returns true.
// Judgments of filtered systems still influenced calibration upstream.
func WithSystemFilter(keep func(system string) bool) Option {
	return func(a *aggregator) {
		if keep != nil {
			a.keep = keep
		}
	}
}

// Aggregate builds one Summary per system present in the raw stream. The
// raw stream decides membership: a system is reported iff it has at least
// one raw judgment, even when none of them could be standardized.
func Aggregate(raw, z []model.Judgment, opts ...Option) []Summary {
	a := &aggregator{keep: func(string) bool { return true }}
	for _, opt := range opts {
		opt(a)
	}

	rawBySys := model.GroupBySystem(raw)
	zBySys := model.GroupBySystem(z)

	out := make([]Summary, 0, len(rawBySys))
	for _, system := range model.Systems(raw) {
		if !a.keep(system) {
			continue
		}
		s := Summary{
			System: system,
			Raw:    dedupe.Average(rawBySys[system]),
			Z:      dedupe.Average(zBySys[system]),
		}
		s.MeanRaw = mean(dedupe.Scores(s.Raw))
		s.MeanZ = mean(dedupe.Scores(s.Z))
		out = append(out, s)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Compare orders summaries best first: higher mean z-score, then higher mean
// raw score, then the lexicographically greater name. The name rule mirrors
// a descending sort over the whole (z, raw, name) triple. It returns a
// negative number when a ranks above b.
func Compare(a, b Summary) int {
	if c := cmp.Compare(b.MeanZ, a.MeanZ); c != 0 {
		return c
	}
	if c := cmp.Compare(b.MeanRaw, a.MeanRaw); c != 0 {
		return c
	}
	return cmp.Compare(b.System, a.System)
}

// compareUnranked orders systems without a z-score by raw score, then name,
// both descending.
func compareUnranked(a, b Summary) int {
	if c := cmp.Compare(b.MeanRaw, a.MeanRaw); c != 0 {
		return c
	}
	return cmp.Compare(b.System, a.System)
}

// Ranking is the ordered result of Rank.
type Ranking struct {
	// Ranked holds systems with a defined mean z-score, best first.
	Ranked []Summary
	// Unranked holds systems whose judgments all came from annotators that
	// could not be standardized. They follow the ranked block in reports and
	// take no part in significance testing.
	Unranked []Summary
}

// Len returns the total number of systems.
func (r Ranking) Len() int { return len(r.Ranked) + len(r.Unranked) }

// All returns ranked then unranked systems in report order.
func (r Ranking) All() []Summary {
	out := make([]Summary, 0, r.Len())
	out = append(out, r.Ranked...)
	return append(out, r.Unranked...)
}

// Rank splits summaries into ranked and unranked systems and orders both.
// The input slice is not modified.
func Rank(summaries []Summary) Ranking {
	var r Ranking
	for _, s := range summaries {
		if s.Ranked() {
			r.Ranked = append(r.Ranked, s)
		} else {
			r.Unranked = append(r.Unranked, s)
		}
	}
	slices.SortStableFunc(r.Ranked, Compare)
	slices.SortStableFunc(r.Unranked, compareUnranked)
	return r
}
