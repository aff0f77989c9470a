package significance

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/clusterrank/internal/domain/scoring"
	"github.com/okian/clusterrank/internal/domain/types"
	"github.com/okian/clusterrank/pkg/logger"
	"github.com/okian/clusterrank/pkg/metrics"
)

// DefaultLookaheadThreshold stops the lookahead once a p-value at or above
// it has been seen.
const DefaultLookaheadThreshold = 0.5

// TestFunc returns the two-sided p-value for the difference between x and y.
type TestFunc func(x, y []float64) (float64, error)

// MannWhitneyP is the default TestFunc.
func MannWhitneyP(x, y []float64) (float64, error) {
	res, err := MannWhitneyU(x, y)
	if err != nil {
		return 0, err
	}
	return res.P, nil
}

// Option applies a configuration option to the Tester.
type Option func(*Tester)

// WithLookaheadThreshold overrides DefaultLookaheadThreshold. Values outside
// (0, 1] are ignored.
func WithLookaheadThreshold(threshold float64) Option {
	return func(t *Tester) {
		if threshold > 0 && threshold <= 1 {
			t.threshold = threshold
		}
	}
}

// WithTest replaces the pairwise test.
func WithTest(fn TestFunc) Option {
	return func(t *Tester) {
		if fn != nil {
			t.test = fn
		}
	}
}

// WithLogger sets the logger used for per-position decisions.
func WithLogger(lg logger.Logger) Option {
	return func(t *Tester) {
		if lg != nil {
			t.logger = lg
		}
	}
}

// Decision records how the boundary after one ranking position was chosen.
type Decision struct {
	MaxP     float64        // largest p-value seen during the lookahead
	Tests    int            // pairwise tests run
	Boundary types.Boundary // classification of MaxP
}

// Tester walks a ranking and places cluster boundaries.
type Tester struct {
	threshold float64
	test      TestFunc
	logger    logger.Logger
}

// NewTester creates a tester with configuration options.
func NewTester(opts ...Option) *Tester {
	t := &Tester{
		threshold: DefaultLookaheadThreshold,
		test:      MannWhitneyP,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Threshold returns the lookahead stop threshold in effect.
func (t *Tester) Threshold() float64 { return t.threshold }

// Decide returns one Decision per sample. samples must be ordered best
// first. For position i the tester compares sample i against i+1, i+2, ...
// keeping the maximum p-value, and stops when that maximum reaches the
// threshold or the list ends. The maximum then classifies the boundary
// between i and i+1. The last position never gets a boundary.
func (t *Tester) Decide(ctx context.Context, samples [][]float64) ([]Decision, error) {
	out := make([]Decision, len(samples))
	total := 0
	for i := 0; i < len(samples)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := Decision{}
		for n := 1; i+n < len(samples) && d.MaxP < t.threshold; n++ {
			p, err := t.test(samples[i], samples[i+n])
			if err != nil {
				return nil, fmt.Errorf("position %d vs %d: %w", i, i+n, err)
			}
			d.Tests++
			if p > d.MaxP {
				d.MaxP = p
			}
		}
		d.Boundary = types.Classify(d.MaxP)
		out[i] = d
		total += d.Tests
		if t.logger != nil {
			t.logger.Debug(ctx, "boundary decided",
				logger.Int("position", i),
				logger.Float64("max_p", d.MaxP),
				logger.Int("tests", d.Tests),
				logger.String("boundary", d.Boundary.String()),
			)
		}
	}
	metrics.RecordSignificanceTests(total)
	return out, nil
}

// Cluster turns a ranking into report entries: ranked systems with their
// boundaries, then the unranked tail behind a BoundaryUnranked marker.
func (t *Tester) Cluster(ctx context.Context, r scoring.Ranking) ([]types.Entry, error) {
	samples := make([][]float64, len(r.Ranked))
	for i, s := range r.Ranked {
		samples[i] = s.ZSample()
	}
	decisions, err := t.Decide(ctx, samples)
	if err != nil {
		return nil, err
	}

	entries := make([]types.Entry, 0, r.Len())
	for i, s := range r.Ranked {
		entries = append(entries, types.Entry{
			Rank:     len(entries) + 1,
			System:   s.System,
			RawScore: s.MeanRaw,
			ZScore:   s.MeanZ,
			Boundary: decisions[i].Boundary,
		})
	}
	if len(entries) > 0 && len(r.Unranked) > 0 {
		entries[len(entries)-1].Boundary = types.BoundaryUnranked
	}
	for _, s := range r.Unranked {
		entries = append(entries, types.Entry{
			Rank:     len(entries) + 1,
			System:   s.System,
			RawScore: s.MeanRaw,
			ZScore:   math.NaN(),
		})
	}
	for _, e := range entries {
		if e.Boundary.Splits() {
			metrics.RecordBoundary(e.Boundary.String())
		}
	}
	return entries, nil
}
