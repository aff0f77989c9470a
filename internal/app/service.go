// Package service runs the ranking pipeline: load judgments, calibrate
// annotators, standardize, deduplicate, aggregate, rank and cluster.
package service

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/clusterrank/internal/adapters/judgments"
	"github.com/okian/clusterrank/internal/config"
	"github.com/okian/clusterrank/internal/domain/calibration"
	"github.com/okian/clusterrank/internal/domain/model"
	"github.com/okian/clusterrank/internal/domain/scoring"
	"github.com/okian/clusterrank/internal/domain/significance"
	"github.com/okian/clusterrank/internal/domain/types"
	"github.com/okian/clusterrank/pkg/logger"
	"github.com/okian/clusterrank/pkg/metrics"
	"github.com/okian/clusterrank/pkg/tracing"
)

// Service produces one clustered ranking per Run.
type Service struct {
	inputDir   string
	rawFile    string
	scoredFile string
	pair       model.Pair

	divisor        float64
	humanMarker    string
	removeHuman    bool
	removeHumanSig bool
	removed        []string
	sigRemoved     []string
	priors         Priors
	threshold      float64

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rawFile:     config.DefaultRawFile,
		scoredFile:  config.DefaultScoredFile,
		divisor:     1,
		humanMarker: "HUMAN",
		threshold:   significance.DefaultLookaheadThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	return s
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Entries []types.Entry

	RawStats    judgments.Stats     // calibration source
	ScoredStats judgments.Stats     // ranking source
	Calibration calibration.Outcome // annotators left out of the z stream
	Removed     []string            // systems excluded from every stage
	SigRemoved  []string            // systems left out of the report
	Unknown     []string            // excluded names no judgment mentions
}

// Run executes the pipeline once. Malformed input aborts the run.
func (s *Service) Run(ctx context.Context) (res *Result, err error) {
	runID := uuid.NewString()
	lg := s.logger.With(logger.String("run_id", runID), logger.String("pair", s.pair.String()))

	ctx, endRun := tracing.StartSpan(ctx, "ranking run",
		attribute.String("run_id", runID),
		attribute.String("pair", s.pair.String()),
	)
	defer func() { endRun(err) }()

	res = &Result{RunID: runID}

	ex, err := s.resolveExclusions()
	if err != nil {
		return nil, err
	}
	res.Removed, res.SigRemoved = ex.list(ex.all), ex.list(ex.sig)

	rawPool, scoredPool, err := s.load(ctx, lg, ex, res)
	if err != nil {
		return nil, err
	}
	known := append(slices.Clone(res.RawStats.Systems), res.ScoredStats.Systems...)
	slices.Sort(known)
	known = slices.Compact(known)
	res.Unknown = s.warnUnknown(ctx, lg, ex, known)

	zPool := s.standardize(ctx, lg, rawPool, scoredPool, res)

	ranking := s.rank(ctx, scoredPool, zPool, ex)

	stageCtx, endCluster := tracing.StartStage(ctx, "cluster")
	tester := significance.NewTester(
		significance.WithLookaheadThreshold(s.threshold),
		significance.WithLogger(lg.Named("significance")),
	)
	res.Entries, err = tester.Cluster(stageCtx, ranking)
	endCluster(err)
	if err != nil {
		return nil, err
	}

	clusters := 0
	if len(res.Entries) > 0 {
		clusters = 1
	}
	for _, e := range res.Entries {
		if e.Boundary.Splits() {
			clusters++
		}
	}
	tracing.SetAttributes(ctx, attribute.Int("systems", len(res.Entries)), attribute.Int("clusters", clusters))
	lg.Info(ctx, "ranking complete",
		logger.Int("ranked", len(ranking.Ranked)),
		logger.Int("unranked", len(ranking.Unranked)),
		logger.Int("clusters", clusters),
	)
	return res, nil
}

// load reads the calibration pool (all kinds) and the ranking pool (SYSTEM
// and REPEAT only) with the same exclusion rules.
func (s *Service) load(ctx context.Context, lg logger.Logger, ex exclusions, res *Result) (raw, scored []model.Judgment, err error) {
	ctx, end := tracing.StartStage(ctx, "load")
	defer func() { end(err) }()

	opts := []judgments.Option{
		judgments.WithPair(s.pair),
		judgments.WithRemoved(ex.list(ex.all)...),
		judgments.WithRemoveHuman(s.removeHuman),
		judgments.WithHumanMarker(s.humanMarker),
		judgments.WithDivisor(s.divisor),
		judgments.WithLogger(lg.Named("loader")),
	}
	raw, res.RawStats, err = judgments.NewLoader(opts...).Load(ctx, filepath.Join(s.inputDir, s.rawFile))
	if err != nil {
		return nil, nil, err
	}
	scoredLoader := judgments.NewLoader(append(opts, judgments.WithRankedOnly(true))...)
	scored, res.ScoredStats, err = scoredLoader.Load(ctx, filepath.Join(s.inputDir, s.scoredFile))
	if err != nil {
		return nil, nil, err
	}

	lg.Info(ctx, "judgments loaded",
		logger.Int("calibration_pool", len(raw)),
		logger.Int("ranking_pool", len(scored)),
		logger.Int("removed_systems", len(ex.all)),
	)
	return raw, scored, nil
}

// standardize fits annotator calibration on the raw pool and converts the
// ranking pool to z-scores.
func (s *Service) standardize(ctx context.Context, lg logger.Logger, raw, scored []model.Judgment, res *Result) []model.Judgment {
	ctx, end := tracing.StartStage(ctx, "standardize")
	defer end(nil)

	table := calibration.Fit(raw)
	z, outcome := table.Standardize(ctx, scored)
	res.Calibration = outcome

	unusable := table.Unusable()
	metrics.UpdateAnnotators(table.Len()-len(unusable), len(outcome.Excluded), len(outcome.Uncalibrated))
	for _, id := range outcome.Excluded {
		lg.Debug(ctx, "annotator excluded from z-scores", logger.String("annotator", id))
	}
	if len(outcome.Uncalibrated) > 0 {
		lg.Warn(ctx, "annotators missing from the calibration source",
			logger.String("annotators", strings.Join(outcome.Uncalibrated, ",")))
	}
	lg.Info(ctx, "annotators calibrated",
		logger.Int("annotators", table.Len()),
		logger.Int("unusable", len(unusable)),
		logger.Int("excluded", len(outcome.Excluded)),
		logger.Int("judgments_dropped", outcome.Dropped),
	)
	return z
}

// rank aggregates the ranking pool and orders the systems kept in the report.
func (s *Service) rank(ctx context.Context, scored, z []model.Judgment, ex exclusions) scoring.Ranking {
	_, end := tracing.StartStage(ctx, "rank")
	defer end(nil)

	keep := func(system string) bool {
		if _, ok := ex.sig[system]; ok {
			return false
		}
		return !s.removeHumanSig || !strings.Contains(system, s.humanMarker)
	}
	ranking := scoring.Rank(scoring.Aggregate(scored, z, scoring.WithSystemFilter(keep)))
	metrics.UpdateSystems(len(ranking.Ranked), len(ranking.Unranked))
	return ranking
}
