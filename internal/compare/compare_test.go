package compare_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/clusterrank/internal/adapters/rankfile"
	"github.com/okian/clusterrank/internal/compare"
	"github.com/okian/clusterrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// report builds a ranking from clusters of system names.
func report(clusters ...[]string) *rankfile.Report {
	rep := &rankfile.Report{}
	for _, c := range clusters {
		for i, name := range c {
			e := types.Entry{Rank: len(rep.Entries) + 1, System: name, RawScore: 50, ZScore: 0}
			if i == len(c)-1 {
				e.Boundary = types.BoundaryStrong
			}
			rep.Entries = append(rep.Entries, e)
		}
	}
	if n := len(rep.Entries); n > 0 {
		rep.Entries[n-1].Boundary = types.BoundaryNone
	}
	return rep
}

func writeReport(path string, rep *rankfile.Report) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	var buf bytes.Buffer
	if err := rankfile.Write(&buf, rep.Entries); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		panic(err)
	}
}

func TestCompare(t *testing.T) {
	Convey("Given a ranking", t, func() {
		a := report([]string{"A"}, []string{"B", "C"}, []string{"D"})

		Convey("When it is compared with itself", func() {
			res := compare.Compare(a, a)

			Convey("Then every check holds", func() {
				So(res, ShouldResemble, compare.Result{Identical: true, SameClusters: true, SameRank: true, SameSystems: true})
			})
		})

		Convey("When systems are reordered inside a cluster", func() {
			res := compare.Compare(a, report([]string{"A"}, []string{"C", "B"}, []string{"D"}))

			Convey("Then clusters agree but the rank does not", func() {
				So(res.SameClusters, ShouldBeTrue)
				So(res.SameRank, ShouldBeFalse)
				So(res.Identical, ShouldBeFalse)
				So(res.SameSystems, ShouldBeTrue)
			})
		})

		Convey("When a boundary moves", func() {
			res := compare.Compare(a, report([]string{"A", "B"}, []string{"C"}, []string{"D"}))

			Convey("Then the rank agrees but the clusters do not", func() {
				So(res.SameRank, ShouldBeTrue)
				So(res.SameClusters, ShouldBeFalse)
				So(res.Identical, ShouldBeFalse)
			})
		})

		Convey("When a system is missing", func() {
			res := compare.Compare(a, report([]string{"A"}, []string{"B", "C"}))
			So(res.SameSystems, ShouldBeFalse)
			So(res.SameRank, ShouldBeFalse)
		})
	})
}

func TestReadPairs(t *testing.T) {
	Convey("Given a pairs list", t, func() {
		Convey("When every line has four fields", func() {
			specs, err := compare.ReadPairs(strings.NewReader("SR-DC,de-en,2019,mturk\n\n# skipped\nSR+DC, zh-en ,2020,appraise\n"))

			Convey("Then each becomes a spec", func() {
				So(err, ShouldBeNil)
				So(specs, ShouldHaveLength, 2)
				So(specs[1], ShouldResemble, compare.Spec{Version: "SR+DC", LangPair: "zh-en", Year: "2020", Interface: "appraise"})
				So(specs[0].Line(), ShouldEqual, "SR-DC,de-en,2019,mturk")
				So(specs[0].Path("rankings", "orig"), ShouldEqual, filepath.Join("rankings", "SR-DC", "de-en-2019.orig"))
			})
		})

		Convey("When a line is short", func() {
			_, err := compare.ReadPairs(strings.NewReader("SR-DC,de-en,2019\n"))
			So(errors.Is(err, compare.ErrMalformedPairs), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := compare.LoadPairs(filepath.Join(t.TempDir(), "pairs.txt"))
			So(err, ShouldNotBeNil)
		})
	})
}
