package compare

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
)

// All is the year and interface of per-version total rows.
const All = "all"

// Key buckets comparisons for the summary table.
type Key struct {
	Version   string
	Year      string
	Interface string
}

func (k Key) String() string { return k.Version + "," + k.Year + "," + k.Interface }

// Counts accumulates changes within one bucket.
type Counts struct {
	Total   int // pairs compared
	Rank    int // flat order changed
	Cluster int // cluster structure changed
	Both    int // order and clusters both changed
}

func (c Counts) add(o Counts) Counts {
	return Counts{
		Total:   c.Total + o.Total,
		Rank:    c.Rank + o.Rank,
		Cluster: c.Cluster + o.Cluster,
		Both:    c.Both + o.Both,
	}
}

// Tally holds the counts of a batch. Each comparison may fill its own
// Tally; Merge folds them together. A Tally is not safe for concurrent use.
type Tally struct {
	counts map[Key]Counts
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[Key]Counts)}
}

// Add records one comparison under k.
func (t *Tally) Add(k Key, r Result) {
	c := Counts{Total: 1}
	if !r.SameRank {
		c.Rank = 1
	}
	if !r.SameClusters {
		c.Cluster = 1
	}
	if !r.SameRank && !r.SameClusters {
		c.Both = 1
	}
	t.counts[k] = t.counts[k].add(c)
}

// Merge adds every count of o to t.
func (t *Tally) Merge(o *Tally) {
	for k, c := range o.counts {
		t.counts[k] = t.counts[k].add(c)
	}
}

// Get returns the counts of k. Keys with year and interface All sum the
// whole version.
func (t *Tally) Get(k Key) Counts {
	if k.Year != All || k.Interface != All {
		return t.counts[k]
	}
	var sum Counts
	for key, c := range t.counts {
		if key.Version == k.Version {
			sum = sum.add(c)
		}
	}
	return sum
}

// Rows returns the table keys: per version, its buckets sorted by year and
// interface, then the version total.
func (t *Tally) Rows() []Key {
	keys := slices.SortedFunc(maps.Keys(t.counts), func(a, b Key) int {
		return cmp.Or(
			cmp.Compare(a.Version, b.Version),
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Interface, b.Interface),
		)
	})
	var rows []Key
	for i, k := range keys {
		rows = append(rows, k)
		if i == len(keys)-1 || keys[i+1].Version != k.Version {
			rows = append(rows, Key{Version: k.Version, Year: All, Interface: All})
		}
	}
	return rows
}

// WriteTable prints the summary table, one "changed/total" cell per kind.
func (t *Tally) WriteTable(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Vers/Year/Interface Rank Cluster Both")
	for _, k := range t.Rows() {
		c := t.Get(k)
		fmt.Fprintf(bw, "%s %d/%d %d/%d %d/%d\n", k, c.Rank, c.Total, c.Cluster, c.Total, c.Both, c.Total)
	}
	return bw.Flush()
}
