package dedupe_test

import (
	"math/rand"
	"testing"

	dedupe "github.com/okian/clusterrank/internal/domain/dedupe"
	"github.com/okian/clusterrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func judgment(annotator, segment string, score float64) model.Judgment {
	return model.Judgment{Annotator: annotator, System: "sys", Segment: segment, Kind: model.KindSystem, Score: score}
}

func TestAverage(t *testing.T) {
	Convey("Given repeated judgments of one system", t, func() {
		js := []model.Judgment{
			judgment("w1", "s1", 1),
			judgment("w2", "s1", 2),
			judgment("w3", "s1", 3),
			judgment("w4", "s2", 5),
		}

		Convey("When averaging duplicates", func() {
			entries := dedupe.Average(js)

			Convey("Then each segment collapses to its mean", func() {
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Segment, ShouldEqual, "s1")
				So(entries[0].Score, ShouldEqual, 2.0)
				So(entries[1].Segment, ShouldEqual, "s2")
				So(entries[1].Score, ShouldEqual, 5.0)
				So(dedupe.Scores(entries), ShouldResemble, []float64{2.0, 5.0})
			})

			Convey("Then provenance lists every contributing annotator", func() {
				So(entries[0].Count(), ShouldEqual, 3)
				So(entries[0].Provenance(), ShouldEqual, "w1,w2,w3")
				So(entries[1].Provenance(), ShouldEqual, "w4")
			})
		})

		Convey("When the input is empty", func() {
			So(dedupe.Average(nil), ShouldBeEmpty)
		})
	})
}

func TestAveragePermutationInvariance(t *testing.T) {
	Convey("Given many judgments with awkward floating point values", t, func() {
		rng := rand.New(rand.NewSource(7))
		var js []model.Judgment
		for seg := 0; seg < 25; seg++ {
			for rep := 0; rep < 1+seg%4; rep++ {
				js = append(js, judgment(
					string(rune('a'+rep)),
					string(rune('A'+seg)),
					rng.NormFloat64()*0.1+1e-9*float64(rep),
				))
			}
		}
		want := dedupe.Average(js)

		Convey("When the list is shuffled repeatedly", func() {
			for i := 0; i < 20; i++ {
				shuffled := append([]model.Judgment(nil), js...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
				So(dedupe.Average(shuffled), ShouldResemble, want)
			}
		})
	})
}

func TestAverageMixedSystems(t *testing.T) {
	Convey("Given judgments from two systems on the same segment", t, func() {
		js := []model.Judgment{
			{Annotator: "w1", System: "b", Segment: "1", Score: 10},
			{Annotator: "w2", System: "a", Segment: "1", Score: 20},
		}

		Convey("Then they are not averaged together", func() {
			entries := dedupe.Average(js)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].System, ShouldEqual, "a")
			So(entries[0].Score, ShouldEqual, 20)
		})
	})
}
