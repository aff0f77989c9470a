package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/okian/clusterrank/internal/adapters/rankfile"
	"github.com/okian/clusterrank/pkg/logger"
)

// exclusions holds the resolved system exclusion sets of a run.
type exclusions struct {
	all map[string]struct{} // dropped before calibration
	sig map[string]struct{} // left out of the report
}

func newExclusions() exclusions {
	return exclusions{all: make(map[string]struct{}), sig: make(map[string]struct{})}
}

func (e exclusions) list(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// resolveExclusions merges the explicit lists with the systems named by
// prior ranking files.
func (s *Service) resolveExclusions() (exclusions, error) {
	ex := newExclusions()
	for _, name := range s.removed {
		ex.all[name] = struct{}{}
	}
	for _, name := range s.sigRemoved {
		ex.sig[name] = struct{}{}
	}

	derived := []struct {
		path    string
		highest bool
		into    map[string]struct{}
	}{
		{s.priors.Highest, true, ex.all},
		{s.priors.HighestSig, true, ex.sig},
		{s.priors.Lowest, false, ex.all},
		{s.priors.LowestSig, false, ex.sig},
	}
	for _, d := range derived {
		if d.path == "" {
			continue
		}
		name, err := priorSystem(d.path, d.highest)
		if err != nil {
			return ex, err
		}
		d.into[name] = struct{}{}
	}
	return ex, nil
}

// priorSystem returns the top or bottom system of a ranking file.
func priorSystem(path string, highest bool) (string, error) {
	rep, err := rankfile.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPriorRanking, err)
	}
	if len(rep.Entries) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyRanking, path)
	}
	if highest {
		return rep.First(), nil
	}
	return rep.Last(), nil
}

// suggestionDistance is the largest edit distance offered as a suggestion.
const suggestionDistance = 3

// suggest returns the known system closest to name, or "".
func suggest(name string, known []string) string {
	best, bestDist := "", suggestionDistance+1
	for _, k := range known {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(k))
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

// warnUnknown logs excluded names that match no system of the pair.
func (s *Service) warnUnknown(ctx context.Context, lg logger.Logger, ex exclusions, known []string) []string {
	var unknown []string
	for _, set := range []map[string]struct{}{ex.all, ex.sig} {
		for _, name := range ex.list(set) {
			if _, ok := slices.BinarySearch(known, name); ok {
				continue
			}
			unknown = append(unknown, name)
			fields := []logger.Field{logger.String("system", name)}
			if hint := suggest(name, known); hint != "" {
				fields = append(fields, logger.String("did_you_mean", hint))
			}
			lg.Warn(ctx, "excluded system not found for pair", fields...)
		}
	}
	return unknown
}
