package compare

import (
	"slices"

	"github.com/okian/clusterrank/internal/adapters/rankfile"
)

// Result says how two rankings of the same campaign relate.
type Result struct {
	Identical    bool // same clusters with the same order inside them
	SameClusters bool // same clusters in the same order, any order inside
	SameRank     bool // same flat system order
	SameSystems  bool // same multiset of system names
}

// Compare compares report a against report b.
func Compare(a, b *rankfile.Report) Result {
	ca, cb := a.Clusters(), b.Clusters()
	na, nb := a.Names(), b.Names()
	return Result{
		Identical:    equalClusters(ca, cb),
		SameClusters: equalClusters(sortedClusters(ca), sortedClusters(cb)),
		SameRank:     slices.Equal(na, nb),
		SameSystems:  slices.Equal(sorted(na), sorted(nb)),
	}
}

func equalClusters(a, b [][]string) bool {
	return slices.EqualFunc(a, b, func(x, y []string) bool { return slices.Equal(x, y) })
}

func sortedClusters(cs [][]string) [][]string {
	out := make([][]string, len(cs))
	for i, c := range cs {
		out[i] = sorted(c)
	}
	return out
}

func sorted(xs []string) []string {
	out := slices.Clone(xs)
	slices.Sort(out)
	return out
}
