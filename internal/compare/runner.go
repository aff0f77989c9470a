package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/clusterrank/internal/adapters/rankfile"
	"github.com/okian/clusterrank/pkg/logger"
	"github.com/okian/clusterrank/pkg/metrics"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkers bounds how many pairs are compared at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithVerbose prints one line per compared pair to w.
func WithVerbose(w io.Writer) Option {
	return func(r *Runner) { r.verbose = w }
}

// WithDiagnostics sets where missing rankings are reported. Defaults to
// os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.diag = w
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(lg logger.Logger) Option {
	return func(r *Runner) {
		if lg != nil {
			r.logger = lg
		}
	}
}

// Runner compares the rankings of two experiment types over a pairs list.
type Runner struct {
	dir      string
	suffixes [2]string
	workers  int
	verbose  io.Writer
	diag     io.Writer
	logger   logger.Logger
}

// NewRunner creates a runner for ranking files under dir.
func NewRunner(dir string, suffixes []string, opts ...Option) (*Runner, error) {
	if len(suffixes) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrSuffixes, len(suffixes))
	}
	r := &Runner{
		dir:      dir,
		suffixes: [2]string{suffixes[0], suffixes[1]},
		workers:  runtime.NumCPU(),
		diag:     os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Discard()
	}
	return r, nil
}

// outcome is what one pair contributes to the batch.
type outcome struct {
	spec    Spec
	paths   [2]string
	missing []string // suffixes without a ranking file
	result  Result
	tally   *Tally
}

// Run compares every spec and returns the merged tally. A missing ranking
// file skips its pair with a diagnostic; an unreadable one fails the batch.
// Output lines follow the order of specs.
func (r *Runner) Run(ctx context.Context, specs []Spec) (*Tally, error) {
	lg := r.logger.With(logger.String("run_id", uuid.NewString()))
	outcomes := make([]outcome, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := r.comparePair(spec)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := NewTally()
	compared := 0
	for _, o := range outcomes {
		if len(o.missing) > 0 {
			for _, suffix := range o.missing {
				fmt.Fprintf(r.diag, "Ranking unavailable:\t%s\t%s\n", o.spec.Line(), suffix)
			}
			metrics.RecordComparison("unavailable")
			continue
		}
		compared++
		metrics.RecordComparison("compared")
		recordChanges(o.result)
		if r.verbose != nil {
			fmt.Fprintf(r.verbose, "%t\t%t\t%t\t%t\t%s\t%s\n",
				o.result.SameSystems, o.result.SameRank, o.result.SameClusters, o.result.Identical,
				o.paths[0], o.paths[1])
		}
		total.Merge(o.tally)
	}
	lg.Info(ctx, "rankings compared",
		logger.Int("pairs", len(specs)),
		logger.Int("compared", compared),
		logger.Int("skipped", len(specs)-compared),
	)
	return total, nil
}

func (r *Runner) comparePair(spec Spec) (outcome, error) {
	o := outcome{spec: spec, tally: NewTally()}
	for i, suffix := range r.suffixes {
		o.paths[i] = spec.Path(r.dir, suffix)
		if _, err := os.Stat(o.paths[i]); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return o, err
			}
			o.missing = append(o.missing, suffix)
		}
	}
	if len(o.missing) > 0 {
		return o, nil
	}

	a, err := rankfile.ReadFile(o.paths[0])
	if err != nil {
		return o, err
	}
	b, err := rankfile.ReadFile(o.paths[1])
	if err != nil {
		return o, err
	}
	o.result = Compare(a, b)
	o.tally.Add(spec.Key(), o.result)
	return o, nil
}

func recordChanges(res Result) {
	if !res.SameRank {
		metrics.RecordComparisonChange("rank")
	}
	if !res.SameClusters {
		metrics.RecordComparisonChange("cluster")
	}
	if !res.SameRank && !res.SameClusters {
		metrics.RecordComparisonChange("both")
	}
}
