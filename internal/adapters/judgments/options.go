package judgments

import (
	"github.com/okian/clusterrank/internal/domain/model"
	"github.com/okian/clusterrank/pkg/logger"
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithPair restricts loading to one language pair.
func WithPair(p model.Pair) Option {
	return func(l *Loader) {
		l.pair = p
	}
}

// WithRemoved drops every judgment of the named systems.
func WithRemoved(systems ...string) Option {
	return func(l *Loader) {
		for _, s := range systems {
			if s != "" {
				l.removed[s] = struct{}{}
			}
		}
	}
}

// WithRemoveHuman drops REF judgments and systems carrying the human marker.
func WithRemoveHuman(remove bool) Option {
	return func(l *Loader) {
		l.removeHuman = remove
	}
}

// WithHumanMarker sets the substring identifying human systems by name.
func WithHumanMarker(marker string) Option {
	return func(l *Loader) {
		l.humanMarker = marker
	}
}

// WithDivisor divides REF/human scores by d. Values <= 0 are ignored.
func WithDivisor(d float64) Option {
	return func(l *Loader) {
		if d > 0 {
			l.divisor = d
		}
	}
}

// WithRankedOnly keeps only SYSTEM and REPEAT judgments.
func WithRankedOnly(only bool) Option {
	return func(l *Loader) {
		l.rankedOnly = only
	}
}

// WithLogger sets the logger used for per-source summaries.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}
