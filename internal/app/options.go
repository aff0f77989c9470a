package service

import (
	"github.com/okian/clusterrank/internal/config"
	"github.com/okian/clusterrank/internal/domain/model"
	"github.com/okian/clusterrank/pkg/logger"
)

// Priors names earlier ranking files whose top or bottom system is
// excluded. Empty paths are ignored.
type Priors struct {
	Highest    string // top system removed from all calculations
	HighestSig string // top system left out of the report
	Lowest     string // bottom system removed from all calculations
	LowestSig  string // bottom system left out of the report
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInputDir sets the directory holding both judgment sources.
func WithInputDir(dir string) Option {
	return func(s *Service) { s.inputDir = dir }
}

// WithSources sets the calibration and ranking file names.
func WithSources(raw, scored string) Option {
	return func(s *Service) {
		if raw != "" {
			s.rawFile = raw
		}
		if scored != "" {
			s.scoredFile = scored
		}
	}
}

// WithPair selects the language pair.
func WithPair(p model.Pair) Option {
	return func(s *Service) { s.pair = p }
}

// WithDivisor scales human and reference scores.
func WithDivisor(d float64) Option {
	return func(s *Service) {
		if d > 0 {
			s.divisor = d
		}
	}
}

// WithHumanMarker sets the substring that marks human systems.
func WithHumanMarker(marker string) Option {
	return func(s *Service) {
		if marker != "" {
			s.humanMarker = marker
		}
	}
}

// WithRemoveHuman drops human and reference judgments from every stage.
func WithRemoveHuman(remove bool) Option {
	return func(s *Service) { s.removeHuman = remove }
}

// WithRemoveHumanSig keeps human systems out of the report only.
func WithRemoveHumanSig(remove bool) Option {
	return func(s *Service) { s.removeHumanSig = remove }
}

// WithRemoved adds systems dropped from every stage.
func WithRemoved(systems ...string) Option {
	return func(s *Service) { s.removed = append(s.removed, systems...) }
}

// WithSigRemoved adds systems left out of the report only.
func WithSigRemoved(systems ...string) Option {
	return func(s *Service) { s.sigRemoved = append(s.sigRemoved, systems...) }
}

// WithPriors sets the prior ranking files used for derived exclusions.
func WithPriors(p Priors) Option {
	return func(s *Service) { s.priors = p }
}

// WithLookaheadThreshold overrides the boundary lookahead stop threshold.
func WithLookaheadThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// FromConfig maps a loaded configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithInputDir(cfg.InputDir),
		WithSources(cfg.RawFile, cfg.ScoredFile),
		WithPair(model.Pair{Src: cfg.Src, Trg: cfg.Trg}),
		WithDivisor(cfg.Divide),
		WithHumanMarker(cfg.HumanMarker),
		WithRemoveHuman(cfg.RemoveHuman),
		WithRemoveHumanSig(cfg.RemoveHumanSig),
		WithRemoved(cfg.Remove...),
		WithSigRemoved(cfg.SigRemove...),
		WithPriors(Priors{
			Highest:    cfg.RemoveHighest,
			HighestSig: cfg.RemoveHighestSig,
			Lowest:     cfg.RemoveLowest,
			LowestSig:  cfg.RemoveLowestSig,
		}),
		WithLookaheadThreshold(cfg.LookaheadThreshold),
	}
}
