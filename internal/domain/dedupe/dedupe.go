// Package dedupe collapses repeated judgments of the same (system, segment)
// pair into a single averaged value.
package dedupe

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/clusterrank/internal/domain/model"
)

// ProvenanceSeparator joins contributing annotator ids.
const ProvenanceSeparator = ","

// Entry is the averaged score of one segment for one system.
type Entry struct {
	System     string
	Segment    string
	Score      float64
	Annotators []string // contributing annotator ids, sorted, one per judgment
}

// Count returns how many judgments were averaged into e.
func (e Entry) Count() int { return len(e.Annotators) }

// Provenance returns the contributing annotator ids as one string.
func (e Entry) Provenance() string { return strings.Join(e.Annotators, ProvenanceSeparator) }

type key struct {
	system  string
	segment string
}

// Average groups js by segment (and system, for inputs that mix systems)
// and averages each group. The result is ordered by system then segment id
// and does not depend on the order of js: scores are summed in sorted order
// so that permutations give bit-identical means.
func Average(js []model.Judgment) []Entry {
	groups := make(map[key][]model.Judgment)
	for _, j := range js {
		k := key{system: j.System, segment: j.Segment}
		groups[k] = append(groups[k], j)
	}

	out := make([]Entry, 0, len(groups))
	for k, g := range groups {
		scores := model.Scores(g)
		sort.Float64s(scores)
		annotators := make([]string, len(g))
		for i, j := range g {
			annotators[i] = j.Annotator
		}
		sort.Strings(annotators)
		out = append(out, Entry{
			System:     k.system,
			Segment:    k.segment,
			Score:      stat.Mean(scores, nil),
			Annotators: annotators,
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].System != out[b].System {
			return out[a].System < out[b].System
		}
		return out[a].Segment < out[b].Segment
	})
	return out
}

// Scores extracts the averaged values in entry order.
func Scores(entries []Entry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Score
	}
	return out
}
