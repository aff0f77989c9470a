package rankfile_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/okian/clusterrank/internal/adapters/rankfile"
	"github.com/okian/clusterrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() []types.Entry {
	return []types.Entry{
		{Rank: 1, System: "Online-B", RawScore: 74.21, ZScore: 0.3214, Boundary: types.BoundaryStrong},
		{Rank: 2, System: "UEdin", RawScore: 70.0, ZScore: 0.1, Boundary: types.BoundaryNone},
		{Rank: 3, System: "KIT", RawScore: 69.94, ZScore: 0.09, Boundary: types.BoundaryWeak},
		{Rank: 4, System: "HUMAN", RawScore: 60, ZScore: -0.5, Boundary: types.BoundaryUnranked},
		{Rank: 5, System: "Tiny", RawScore: 55, ZScore: math.NaN(), Boundary: types.BoundaryModerate},
	}
}

func TestWrite(t *testing.T) {
	Convey("Given ranking entries", t, func() {
		var buf bytes.Buffer
		So(rankfile.Write(&buf, sample()), ShouldBeNil)
		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

		Convey("Then the report has the fixed header", func() {
			So(lines[0], ShouldEqual, "   Ave.   Ave.z  System")
			So(lines[1], ShouldEqual, strings.Repeat("-", 41))
		})

		Convey("Then entries and markers are laid out line by line", func() {
			So(lines[2:], ShouldResemble, []string{
				"   74.2   0.321 Online-B",
				"----------------------------------------TT (0.001)",
				"   70.0   0.100 UEdin",
				"   69.9   0.090 KIT",
				"-----------------------------------------X (0.05)",
				"   60.0  -0.500 HUMAN",
				"----------------------------------------NA (unranked)",
				"   55.0     nan Tiny",
			})
		})

		Convey("Then no marker follows the last entry", func() {
			So(rankfile.IsBoundary(lines[len(lines)-1]), ShouldBeFalse)
		})
	})

	Convey("Given the moderate marker", t, func() {
		So(rankfile.Marker(types.BoundaryModerate), ShouldEqual, "-----------------------------------------T (0.01)")
		So(rankfile.Marker(types.BoundaryNone), ShouldBeEmpty)
	})
}

func TestParse(t *testing.T) {
	Convey("Given a written report", t, func() {
		var buf bytes.Buffer
		So(rankfile.Write(&buf, sample()), ShouldBeNil)

		rep, err := rankfile.Parse(&buf)
		So(err, ShouldBeNil)

		Convey("Then names and boundaries come back in order", func() {
			So(rep.Names(), ShouldResemble, []string{"Online-B", "UEdin", "KIT", "HUMAN", "Tiny"})
			So(rep.Entries[0].Boundary, ShouldEqual, types.BoundaryStrong)
			So(rep.Entries[2].Boundary, ShouldEqual, types.BoundaryWeak)
			So(rep.Entries[3].Boundary, ShouldEqual, types.BoundaryUnranked)
			So(rep.Entries[4].Boundary, ShouldEqual, types.BoundaryNone)
			So(rep.Entries[4].Ranked(), ShouldBeFalse)
			So(rep.Entries[1].Rank, ShouldEqual, 2)
			So(rep.First(), ShouldEqual, "Online-B")
			So(rep.Last(), ShouldEqual, "Tiny")
		})

		Convey("Then the clusters partition the ranking", func() {
			clusters := rep.Clusters()
			So(clusters, ShouldResemble, [][]string{
				{"Online-B"},
				{"UEdin", "KIT"},
				{"HUMAN"},
				{"Tiny"},
			})
			So(slices.Concat(clusters...), ShouldResemble, rep.Names())
		})
	})

	Convey("Given a hand-written report with unknown markers", t, func() {
		in := "title\n---------\n 1.0 2.0 a\n----------- something\n 0.5 1.0 b\n"
		rep, err := rankfile.Parse(strings.NewReader(in))
		So(err, ShouldBeNil)
		So(rep.Clusters(), ShouldResemble, [][]string{{"a"}, {"b"}})
	})

	Convey("Given malformed reports", t, func() {
		cases := map[string]string{
			"empty":             "",
			"no separator":      "title\n 1.0 2.0 a\n",
			"leading boundary":  "title\n---------\n---------\n 1.0 2.0 a\n",
			"double boundary":   "title\n---------\n 1.0 2.0 a\n---------\n---------\n 1.0 2.0 b\n",
			"trailing boundary": "title\n---------\n 1.0 2.0 a\n---------\n",
			"short entry":       "title\n---------\n 1.0 a\n",
			"bad number":        "title\n---------\n x 2.0 a\n",
		}
		for name, in := range cases {
			_, err := rankfile.Parse(strings.NewReader(in))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, rankfile.ErrMalformedRanking), ShouldBeTrue)
			if name == "trailing boundary" {
				var fe *rankfile.FormatError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Line, ShouldEqual, 4)
			}
		}
	})

	Convey("Given a ranking file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "de-en-2019.txt")
		var buf bytes.Buffer
		So(rankfile.Write(&buf, sample()[:2]), ShouldBeNil)
		So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)

		rep, err := rankfile.ReadFile(path)
		So(err, ShouldBeNil)
		So(rep.Names(), ShouldResemble, []string{"Online-B", "UEdin"})

		_, err = rankfile.ReadFile(filepath.Join(t.TempDir(), "missing"))
		So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
	})
}
