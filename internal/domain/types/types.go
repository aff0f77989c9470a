// Package types contains common types used across the application
package types

import (
	"fmt"
	"math"
)

// Boundary annotates the gap after a ranking entry with the strength of the
// evidence that the next system differs from it.
type Boundary int

// Boundary levels, weakest first.
const (
	BoundaryNone     Boundary = iota // same cluster
	BoundaryWeak                     // p < 0.05
	BoundaryModerate                 // p < 0.01
	BoundaryStrong                   // p < 0.001
	// BoundaryUnranked separates z-ranked systems from systems that have no
	// standardizable judgments.
	BoundaryUnranked
)

// Significance thresholds for boundary classification.
const (
	WeakAlpha     = 0.05
	ModerateAlpha = 0.01
	StrongAlpha   = 0.001
)

// Classify maps the maximum p-value seen during lookahead to a boundary level.
func Classify(p float64) Boundary {
	switch {
	case p < StrongAlpha:
		return BoundaryStrong
	case p < ModerateAlpha:
		return BoundaryModerate
	case p < WeakAlpha:
		return BoundaryWeak
	default:
		return BoundaryNone
	}
}

// Splits reports whether the boundary starts a new cluster.
func (b Boundary) Splits() bool { return b != BoundaryNone }

// String returns a stable lower-case name, used in logs and metric labels.
func (b Boundary) String() string {
	switch b {
	case BoundaryNone:
		return "none"
	case BoundaryWeak:
		return "weak"
	case BoundaryModerate:
		return "moderate"
	case BoundaryStrong:
		return "strong"
	case BoundaryUnranked:
		return "unranked"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

// Entry represents one line of a ranking.
type Entry struct {
	Rank     int     `json:"rank"` // 1-based position in the report
	System   string  `json:"system"`
	RawScore float64 `json:"raw_score"` // mean of deduplicated raw scores
	ZScore   float64 `json:"z_score"`   // mean of deduplicated z-scores, NaN when unranked

	// Boundary is the marker following this entry. Always BoundaryNone on
	// the last entry of a report.
	Boundary Boundary `json:"boundary"`
}

// Ranked reports whether the entry has a defined z-score.
func (e Entry) Ranked() bool { return !math.IsNaN(e.ZScore) }
