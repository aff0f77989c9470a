package judgments

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/okian/clusterrank/internal/domain/model"
	"github.com/okian/clusterrank/pkg/logger"
	"github.com/okian/clusterrank/pkg/metrics"
)

// ctxCheckEvery bounds how many lines are read between cancellation checks.
const ctxCheckEvery = 4096

// Stats counts what happened to the lines of one source.
type Stats struct {
	Lines     int // records parsed
	Kept      int // records returned
	OtherPair int // dropped: different language pair
	Excluded  int // dropped: keep predicate (removed system or human)
	Unranked  int // dropped: kind does not feed the ranking (ranked-only mode)

	// Systems lists, sorted, every system seen for the pair before the
	// exclusion rules ran.
	Systems []string
}

// Loader reads judgment sources and yields the records that pass its filters.
// A Loader is immutable after construction and safe for concurrent use.
type Loader struct {
	pair        model.Pair
	removed     map[string]struct{}
	removeHuman bool
	humanMarker string
	divisor     float64
	rankedOnly  bool
	logger      logger.Logger
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		removed:     make(map[string]struct{}),
		humanMarker: "HUMAN",
		divisor:     1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Keep reports whether a judgment of system with the given kind survives the
// exclusion rules.
func (l *Loader) Keep(system string, kind model.ScoreKind) bool {
	if _, ok := l.removed[system]; ok {
		return false
	}
	if l.removeHuman && model.IsHuman(system, kind, l.humanMarker) {
		return false
	}
	return true
}

// Load opens path and reads it with Read.
func (l *Loader) Load(ctx context.Context, path string) ([]model.Judgment, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrOpenSource, err)
	}
	defer func() { _ = f.Close() }()
	return l.Read(ctx, path, f)
}

// Read parses every line of r. Any malformed line aborts the read with a
// *ParseError; there is no partial result.
func (l *Loader) Read(ctx context.Context, name string, r io.Reader) ([]model.Judgment, Stats, error) {
	var (
		out   []model.Judgment
		stats Stats
		seen  = make(map[string]struct{})
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, fmt.Errorf("read %s: %w", name, err)
			}
		}
		rec, err := ParseRecord(name, lineNo, sc.Text())
		if err != nil {
			metrics.RecordJudgmentsDropped("malformed", 1)
			return nil, stats, err
		}
		stats.Lines++

		if rec.Src != l.pair.Src || rec.Trg != l.pair.Trg {
			stats.OtherPair++
			continue
		}
		seen[rec.System] = struct{}{}
		if !l.Keep(rec.System, rec.Kind) {
			stats.Excluded++
			continue
		}
		if l.rankedOnly && !rec.Kind.Ranked() {
			stats.Unranked++
			continue
		}
		j := rec.Judgment()
		if l.divisor != 1 && model.IsHuman(j.System, j.Kind, l.humanMarker) {
			j.Score /= l.divisor
		}
		out = append(out, j)
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("read %s: %w", name, err)
	}
	stats.Kept = len(out)
	stats.Systems = make([]string, 0, len(seen))
	for system := range seen {
		stats.Systems = append(stats.Systems, system)
	}
	sort.Strings(stats.Systems)

	metrics.RecordJudgmentsLoaded(filepath.Base(name), stats.Kept)
	metrics.RecordJudgmentsDropped("other_pair", stats.OtherPair)
	metrics.RecordJudgmentsDropped("excluded", stats.Excluded)
	metrics.RecordJudgmentsDropped("unranked_kind", stats.Unranked)
	if l.logger != nil {
		l.logger.Debug(ctx, "judgment source loaded",
			logger.String("source", name),
			logger.String("pair", l.pair.String()),
			logger.Int("lines", stats.Lines),
			logger.Int("kept", stats.Kept),
			logger.Int("other_pair", stats.OtherPair),
			logger.Int("excluded", stats.Excluded),
			logger.Int("unranked_kind", stats.Unranked),
		)
	}
	return out, stats, nil
}
