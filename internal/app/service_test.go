package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/okian/clusterrank/internal/adapters/judgments"
	"github.com/okian/clusterrank/internal/adapters/rankfile"
	service "github.com/okian/clusterrank/internal/app"
	"github.com/okian/clusterrank/internal/config"
	"github.com/okian/clusterrank/internal/domain/model"
	"github.com/okian/clusterrank/internal/domain/types"
	"github.com/okian/clusterrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fixture struct {
	dir   string
	lines []string
}

func newFixture(t *testing.T) *fixture { return &fixture{dir: t.TempDir()} }

func (f *fixture) add(worker, system, kind, seg string, score float64) {
	f.lines = append(f.lines, fmt.Sprintf("hit-%s %s en de x x %s x %s %s %g x", worker, worker, system, kind, seg, score))
}

// separated adds three systems every annotator scores far apart.
func (f *fixture) separated() {
	for k := 0; k < 21; k++ {
		w, seg := fmt.Sprintf("w%02d", k), fmt.Sprint(k)
		e := float64(k) * 0.01
		f.add(w, "High", "SYSTEM", seg, 90+e)
		f.add(w, "Mid", "SYSTEM", seg, 50+e)
		f.add(w, "Low", "SYSTEM", seg, 10+e)
	}
}

// indistinguishable adds three systems that receive the same scores in
// rotation.
func (f *fixture) indistinguishable() {
	values := []float64{10, 50, 90}
	for k := 0; k < 21; k++ {
		w, seg := fmt.Sprintf("w%02d", k), fmt.Sprint(k)
		for i, name := range []string{"A", "B", "C"} {
			f.add(w, name, "SYSTEM", seg, values[(k+i)%3])
		}
	}
}

func (f *fixture) write() {
	body := strings.Join(f.lines, "\n") + "\n"
	for _, name := range []string{config.DefaultRawFile, config.DefaultScoredFile} {
		if err := os.WriteFile(filepath.Join(f.dir, name), []byte(body), 0o600); err != nil {
			panic(err)
		}
	}
}

func (f *fixture) service(opts ...service.Option) *service.Service {
	f.write()
	base := []service.Option{
		service.WithInputDir(f.dir),
		service.WithPair(model.Pair{Src: "en", Trg: "de"}),
	}
	return service.New(append(base, opts...)...)
}

func names(entries []types.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.System
	}
	return out
}

func TestRunScenarios(t *testing.T) {
	Convey("Given clearly separated systems", t, func() {
		f := newFixture(t)
		f.separated()

		res, err := f.service().Run(context.Background())

		Convey("Then two strong boundaries give three singleton clusters", func() {
			So(err, ShouldBeNil)
			So(res.RunID, ShouldNotBeEmpty)
			So(names(res.Entries), ShouldResemble, []string{"High", "Mid", "Low"})
			So(res.Entries[0].Boundary, ShouldEqual, types.BoundaryStrong)
			So(res.Entries[1].Boundary, ShouldEqual, types.BoundaryStrong)
			So(res.Entries[2].Boundary, ShouldEqual, types.BoundaryNone)
			So(res.Entries[0].ZScore, ShouldAlmostEqual, 1.0, 1e-3)
			So(res.Entries[1].ZScore, ShouldAlmostEqual, 0.0, 1e-3)
			So(res.Entries[0].RawScore, ShouldAlmostEqual, 90.1, 1e-9)
		})

		Convey("Then the written report parses back into the same partition", func() {
			var buf bytes.Buffer
			So(rankfile.Write(&buf, res.Entries), ShouldBeNil)
			rep, err := rankfile.Parse(&buf)
			So(err, ShouldBeNil)
			clusters := rep.Clusters()
			So(clusters, ShouldHaveLength, 3)
			So(slices.Concat(clusters...), ShouldResemble, names(res.Entries))
		})
	})

	Convey("Given indistinguishable systems", t, func() {
		f := newFixture(t)
		f.indistinguishable()

		res, err := f.service().Run(context.Background())

		Convey("Then the report is a single cluster", func() {
			So(err, ShouldBeNil)
			So(res.Entries, ShouldHaveLength, 3)
			for _, e := range res.Entries {
				So(e.Boundary, ShouldEqual, types.BoundaryNone)
			}
			// Equal means fall back to the name, descending.
			So(names(res.Entries), ShouldResemble, []string{"C", "B", "A"})
		})
	})
}

func TestRunExclusions(t *testing.T) {
	Convey("Given separated systems, a human system and a lone annotator", t, func() {
		f := newFixture(t)
		f.separated()
		for k := 0; k < 21; k++ {
			f.add(fmt.Sprintf("w%02d", k), "HUMAN-A", "SYSTEM", fmt.Sprint(k), 99)
		}
		f.add("w00", "ref", "REF", "0", 100)
		f.add("solo", "Lonely", "SYSTEM", "1", 70)
		ctx := context.Background()

		Convey("When nothing is excluded", func() {
			res, err := f.service().Run(ctx)

			Convey("Then the lone annotator's system forms the unranked tail", func() {
				So(err, ShouldBeNil)
				So(names(res.Entries), ShouldResemble, []string{"HUMAN-A", "High", "Mid", "Low", "Lonely"})
				So(res.Entries[3].Boundary, ShouldEqual, types.BoundaryUnranked)
				So(math.IsNaN(res.Entries[4].ZScore), ShouldBeTrue)
				So(res.Entries[4].RawScore, ShouldEqual, 70)
				So(res.Calibration.Excluded, ShouldResemble, []string{"solo"})
			})

			Convey("Then REF judgments never reach the report", func() {
				So(res.ScoredStats.Unranked, ShouldEqual, 1)
				So(res.RawStats.Unranked, ShouldEqual, 0)
			})
		})

		Convey("When human systems are removed from the report only", func() {
			res, err := f.service(service.WithRemoveHumanSig(true)).Run(ctx)

			Convey("Then they still counted for calibration", func() {
				So(err, ShouldBeNil)
				So(names(res.Entries), ShouldResemble, []string{"High", "Mid", "Low", "Lonely"})
				So(res.Entries[0].ZScore, ShouldBeLessThan, 1.0)
			})
		})

		Convey("When human scores are removed everywhere", func() {
			res, err := f.service(service.WithRemoveHuman(true)).Run(ctx)

			Convey("Then calibration ignores them too", func() {
				So(err, ShouldBeNil)
				So(names(res.Entries), ShouldResemble, []string{"High", "Mid", "Low", "Lonely"})
				So(res.Entries[0].ZScore, ShouldAlmostEqual, 1.0, 1e-3)
				So(res.RawStats.Excluded, ShouldEqual, 22)
			})
		})

		Convey("When a divisor scales human scores", func() {
			res, err := f.service(service.WithDivisor(10)).Run(ctx)

			Convey("Then the human system drops to the bottom of the ranked block", func() {
				So(err, ShouldBeNil)
				So(names(res.Entries)[:4], ShouldResemble, []string{"High", "Mid", "Low", "HUMAN-A"})
				So(res.Entries[3].RawScore, ShouldAlmostEqual, 9.9, 1e-9)
			})
		})

		Convey("When prior rankings name systems to exclude", func() {
			prior := filepath.Join(t.TempDir(), "prior.txt")
			var buf bytes.Buffer
			So(rankfile.Write(&buf, []types.Entry{
				{System: "High", RawScore: 90, ZScore: 1},
				{System: "Low", RawScore: 10, ZScore: -1},
			}), ShouldBeNil)
			So(os.WriteFile(prior, buf.Bytes(), 0o600), ShouldBeNil)

			res, err := f.service(
				service.WithPriors(service.Priors{HighestSig: prior, Lowest: prior}),
				service.WithSigRemoved("HUMAN-A"),
			).Run(ctx)

			Convey("Then the top one leaves the report and the bottom one every stage", func() {
				So(err, ShouldBeNil)
				So(res.SigRemoved, ShouldResemble, []string{"HUMAN-A", "High"})
				So(res.Removed, ShouldResemble, []string{"Low"})
				So(names(res.Entries), ShouldResemble, []string{"Mid", "Lonely"})
				So(res.Entries[0].Boundary, ShouldEqual, types.BoundaryUnranked)
			})
		})

		Convey("When a prior ranking is missing", func() {
			_, err := f.service(service.WithPriors(service.Priors{Highest: filepath.Join(f.dir, "nope")})).Run(ctx)
			So(errors.Is(err, service.ErrPriorRanking), ShouldBeTrue)
		})

		Convey("When an excluded name is misspelled", func() {
			var logs bytes.Buffer
			res, err := f.service(
				service.WithRemoved("Hihg"),
				service.WithLogger(logger.New(logger.WithWriter(&logs))),
			).Run(ctx)

			Convey("Then it is reported with a suggestion", func() {
				So(err, ShouldBeNil)
				So(res.Unknown, ShouldResemble, []string{"Hihg"})
				So(logs.String(), ShouldContainSubstring, "did_you_mean=High")
				So(names(res.Entries), ShouldContain, "High")
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given broken inputs", t, func() {
		ctx := context.Background()

		Convey("When a record has the wrong field count", func() {
			f := newFixture(t)
			f.separated()
			f.lines = append(f.lines, "only three fields")
			_, err := f.service().Run(ctx)

			Convey("Then the run aborts with a parse error", func() {
				So(errors.Is(err, judgments.ErrMalformedRecord), ShouldBeTrue)
				var pe *judgments.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Line, ShouldEqual, 64)
			})
		})

		Convey("When the input directory is empty", func() {
			_, err := service.New(service.WithInputDir(t.TempDir())).Run(ctx)
			So(errors.Is(err, judgments.ErrOpenSource), ShouldBeTrue)
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Given a loaded configuration", t, func() {
		f := newFixture(t)
		f.separated()
		f.write()

		cfg := config.New()
		cfg.InputDir = f.dir
		cfg.Src, cfg.Trg = "en", "de"
		cfg.SigRemove = []string{"Mid"}

		res, err := service.New(service.FromConfig(cfg)...).Run(context.Background())

		Convey("Then the service honours it", func() {
			So(err, ShouldBeNil)
			So(names(res.Entries), ShouldResemble, []string{"High", "Low"})
		})
	})
}
