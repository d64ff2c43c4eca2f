package scoring_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/okian/icp/internal/domain/model"
	"github.com/okian/icp/internal/domain/profile"
	scoring "github.com/okian/icp/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func maxScore(r scoring.Result) float64 {
	best := math.Inf(-1)
	for _, s := range r.Scores {
		best = math.Max(best, s.Score)
	}
	return best
}

func TestNormalize(t *testing.T) {
	Convey("Given the z-score normalization", t, func() {
		mean, std := 3.161074, 2.044317

		Convey("Then the mean normalizes to zero", func() {
			So(scoring.Normalize(mean, mean, std), ShouldEqual, 0)
		})

		Convey("Then one standard deviation above the mean normalizes to one", func() {
			So(scoring.Normalize(mean+std, mean, std), ShouldAlmostEqual, 1, tolerance)
		})

		Convey("Then values below the mean are negative", func() {
			So(scoring.Normalize(mean-2*std, mean, std), ShouldAlmostEqual, -2, tolerance)
		})

		Convey("Then a zero standard deviation always yields zero", func() {
			So(scoring.Normalize(123.4, 5, 0), ShouldEqual, 0)
			So(scoring.Normalize(-1e12, -7, 0), ShouldEqual, 0)
			So(scoring.Normalize(0, 0, 0), ShouldEqual, 0)
		})
	})
}

func TestProfileScorer_Assign(t *testing.T) {
	Convey("Given a scorer over the default profile", t, func() {
		scorer, err := scoring.NewProfileScorer()
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When every metric sits exactly at its mean", func() {
			lead := model.Lead{
				EngagementDepth:    4162.714529,
				ExplorationBreadth: 3.161074,
				DecisionMomentum:   -1.951359,
				RevisitIntensity:   4.019175,
			}
			res, err := scorer.Assign(ctx, lead)
			So(err, ShouldBeNil)

			Convey("Then every score is zero and the first declared segment wins", func() {
				for _, s := range res.Scores {
					So(s.Score, ShouldAlmostEqual, 0, tolerance)
				}
				So(res.Segment, ShouldEqual, profile.DeepDivers)
			})

			Convey("Then every normalized value is zero", func() {
				So(res.Normalized, ShouldHaveLength, 4)
				for _, v := range res.Normalized {
					So(v, ShouldAlmostEqual, 0, tolerance)
				}
			})
		})

		Convey("When depth, breadth and momentum are high but revisits are low", func() {
			res, err := scorer.Assign(ctx, model.Lead{
				EngagementDepth:    100000,
				ExplorationBreadth: 10,
				DecisionMomentum:   5,
				RevisitIntensity:   0,
			})
			So(err, ShouldBeNil)
			scores := res.ScoreMap()

			Convey("Then auditors or deep divers win", func() {
				So(res.Segment, ShouldBeIn, []string{profile.ComprehensiveAuditors, profile.DeepDivers})
				So(res.Segment, ShouldEqual, profile.ComprehensiveAuditors)
			})

			Convey("Then the broad segments score positive and the shallow ones do not", func() {
				So(scores[profile.ComprehensiveAuditors], ShouldBeGreaterThan, 0)
				So(scores[profile.DeepDivers], ShouldBeGreaterThan, 0)
				So(scores[profile.SurfaceSamplers], ShouldBeLessThan, 0)
				So(scores[profile.LoopingDoubters], ShouldBeLessThan, 0)
			})

			Convey("Then the revisit deviation is negative", func() {
				So(res.Normalized[model.NormRevisit], ShouldBeLessThan, 0)
			})
		})

		Convey("When depth and breadth are low with high momentum and revisits", func() {
			res, err := scorer.Assign(ctx, model.Lead{
				EngagementDepth:    0,
				ExplorationBreadth: 0,
				DecisionMomentum:   20,
				RevisitIntensity:   15,
			})
			So(err, ShouldBeNil)
			scores := res.ScoreMap()

			Convey("Then deep divers do not win", func() {
				So(res.Segment, ShouldNotEqual, profile.DeepDivers)
				So(res.Segment, ShouldEqual, profile.RapidDeciders)
			})

			Convey("Then rapid deciders outscore deep divers", func() {
				So(scores[profile.RapidDeciders], ShouldBeGreaterThan, scores[profile.DeepDivers])
			})
		})

		Convey("When scoring any lead", func() {
			leads := []model.Lead{
				{},
				{EngagementDepth: -500, ExplorationBreadth: 1, DecisionMomentum: -10, RevisitIntensity: 30},
				{EngagementDepth: 1e9, ExplorationBreadth: 1e3, DecisionMomentum: 1e2, RevisitIntensity: 1e4},
				{EngagementDepth: 60, ExplorationBreadth: 2, DecisionMomentum: 0.5, RevisitIntensity: 1},
			}

			Convey("Then the winner's score is the maximum of the score map", func() {
				for _, lead := range leads {
					res, err := scorer.Assign(ctx, lead)
					So(err, ShouldBeNil)
					So(res.ScoreMap()[res.Segment], ShouldEqual, maxScore(res))
				}
			})

			Convey("Then the score map has exactly one entry per configured segment", func() {
				for _, lead := range leads {
					res, err := scorer.Assign(ctx, lead)
					So(err, ShouldBeNil)
					So(res.Scores, ShouldHaveLength, len(scorer.Profile().Segments()))
					for i, name := range scorer.Profile().Segments() {
						So(res.Scores[i].Segment, ShouldEqual, name)
					}
					So(res.ScoreMap(), ShouldHaveLength, 5)
				}
			})

			Convey("Then repeated calls return identical results", func() {
				for _, lead := range leads {
					first, err := scorer.Assign(ctx, lead)
					So(err, ShouldBeNil)
					for i := 0; i < 10; i++ {
						again, err := scorer.Assign(ctx, lead)
						So(err, ShouldBeNil)
						So(again, ShouldResemble, first)
					}
				}
			})
		})

		Convey("When deviations from the mean are scaled by k", func() {
			means := profile.DefaultMeans()
			stds := profile.DefaultStds()
			delta := map[string]float64{
				model.EngagementDepth:    0.7,
				model.ExplorationBreadth: -0.3,
				model.DecisionMomentum:   1.2,
				model.RevisitIntensity:   -0.4,
			}
			leadAt := func(k float64) model.Lead {
				at := func(name string) float64 { return means[name] + k*delta[name]*stds[name] }
				return model.Lead{
					EngagementDepth:    at(model.EngagementDepth),
					ExplorationBreadth: at(model.ExplorationBreadth),
					DecisionMomentum:   at(model.DecisionMomentum),
					RevisitIntensity:   at(model.RevisitIntensity),
				}
			}

			base, err := scorer.Assign(ctx, leadAt(1))
			So(err, ShouldBeNil)

			Convey("Then every segment score scales by k", func() {
				for _, k := range []float64{0.5, 2, 3.75} {
					scaled, err := scorer.Assign(ctx, leadAt(k))
					So(err, ShouldBeNil)
					for i := range base.Scores {
						So(scaled.Scores[i].Score, ShouldAlmostEqual, k*base.Scores[i].Score, 1e-6)
					}
					So(scaled.Segment, ShouldEqual, base.Segment)
				}
			})
		})

		Convey("When a metric is not a finite number", func() {
			for _, lead := range []model.Lead{
				{EngagementDepth: math.NaN()},
				{ExplorationBreadth: math.Inf(1)},
				{DecisionMomentum: math.Inf(-1)},
				{RevisitIntensity: math.NaN()},
			} {
				_, err := scorer.Assign(ctx, lead)
				So(errors.Is(err, scoring.ErrInvalidInput), ShouldBeTrue)
			}
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scorer.Assign(cctx, model.Lead{})

			Convey("Then the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When scoring concurrently", func() {
			lead := model.Lead{EngagementDepth: 9000, ExplorationBreadth: 6, DecisionMomentum: 1, RevisitIntensity: 2}
			want, err := scorer.Assign(ctx, lead)
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			results := make([]scoring.Result, 32)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = scorer.Assign(ctx, lead)
				}(i)
			}
			wg.Wait()

			Convey("Then all goroutines agree", func() {
				for _, got := range results {
					So(got, ShouldResemble, want)
				}
			})
		})
	})
}

func TestProfileScorer_CustomProfile(t *testing.T) {
	Convey("Given a profile with a zero standard deviation and sparse weights", t, func() {
		stds := profile.DefaultStds()
		stds[model.EngagementDepth] = 0
		p, err := profile.New(
			profile.WithMeans(profile.DefaultMeans()),
			profile.WithStds(stds),
			profile.WithSegment("Depth Lovers", map[string]float64{model.NormDepth: 1}),
			profile.WithSegment("Breadth Lovers", map[string]float64{model.NormBreadth: 0.5}),
		)
		So(err, ShouldBeNil)

		scorer, err := scoring.NewProfileScorer(scoring.WithProfile(p))
		So(err, ShouldBeNil)

		Convey("When depth is extreme", func() {
			res, err := scorer.Assign(context.Background(), model.Lead{
				EngagementDepth:    1e12,
				ExplorationBreadth: 3.161074,
			})
			So(err, ShouldBeNil)

			Convey("Then the zero-std metric contributes nothing", func() {
				So(res.Normalized[model.NormDepth], ShouldEqual, 0)
				So(res.ScoreMap()["Depth Lovers"], ShouldEqual, 0)
			})

			Convey("Then the tie goes to the first declared segment", func() {
				So(res.ScoreMap()["Breadth Lovers"], ShouldAlmostEqual, 0, tolerance)
				So(res.Segment, ShouldEqual, "Depth Lovers")
			})
		})

		Convey("When breadth is above its mean", func() {
			res, err := scorer.Assign(context.Background(), model.Lead{ExplorationBreadth: 3.161074 + 2.044317})
			So(err, ShouldBeNil)

			Convey("Then real-valued weights apply", func() {
				So(res.ScoreMap()["Breadth Lovers"], ShouldAlmostEqual, 0.5, tolerance)
				So(res.Segment, ShouldEqual, "Breadth Lovers")
			})
		})
	})

	Convey("Given every segment scoring negative", t, func() {
		p, err := profile.New(
			profile.WithMeans(profile.DefaultMeans()),
			profile.WithStds(profile.DefaultStds()),
			profile.WithSegment("First", map[string]float64{model.NormRevisit: 2}),
			profile.WithSegment("Second", map[string]float64{model.NormRevisit: 1}),
		)
		So(err, ShouldBeNil)
		scorer, err := scoring.NewProfileScorer(scoring.WithProfile(p))
		So(err, ShouldBeNil)

		res, err := scorer.Assign(context.Background(), model.Lead{RevisitIntensity: -100})
		So(err, ShouldBeNil)

		Convey("Then the least negative score wins", func() {
			So(res.Segment, ShouldEqual, "Second")
			So(res.ScoreMap()["Second"], ShouldBeLessThan, 0)
		})
	})
}

func TestProfileScorer_Overflow(t *testing.T) {
	Convey("Given a profile with weights near the float64 limit", t, func() {
		p, err := profile.New(
			profile.WithMeans(profile.DefaultMeans()),
			profile.WithStds(profile.DefaultStds()),
			profile.WithSegment("Big", map[string]float64{model.NormBreadth: 1e308, model.NormMomentum: 1e308}),
			profile.WithSegment("Small", map[string]float64{model.NormBreadth: 1}),
		)
		So(err, ShouldBeNil)
		scorer, err := scoring.NewProfileScorer(scoring.WithProfile(p))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When opposing contributions overflow to NaN", func() {
			_, err := scorer.Assign(ctx, model.Lead{ExplorationBreadth: 100, DecisionMomentum: -100})

			Convey("Then no winner is chosen", func() {
				So(errors.Is(err, scoring.ErrNonFiniteScore), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Big")
			})
		})

		Convey("When a single contribution overflows to +Inf", func() {
			_, err := scorer.Assign(ctx, model.Lead{ExplorationBreadth: 100})
			So(errors.Is(err, scoring.ErrNonFiniteScore), ShouldBeTrue)
		})

		Convey("When contributions stay in range", func() {
			res, err := scorer.Assign(ctx, model.Lead{ExplorationBreadth: 3.161074, DecisionMomentum: -1.951359})

			Convey("Then scoring succeeds with finite scores", func() {
				So(err, ShouldBeNil)
				for _, s := range res.Scores {
					So(math.IsNaN(s.Score) || math.IsInf(s.Score, 0), ShouldBeFalse)
				}
				So(res.ScoreMap()[res.Segment], ShouldEqual, maxScore(res))
			})
		})
	})

	Convey("Given a profile with a vanishing standard deviation", t, func() {
		stds := profile.DefaultStds()
		stds[model.ExplorationBreadth] = 1e-300
		p, err := profile.New(
			profile.WithMeans(profile.DefaultMeans()),
			profile.WithStds(stds),
			profile.WithSegments(profile.DefaultSegments()...),
		)
		So(err, ShouldBeNil)
		scorer, err := scoring.NewProfileScorer(scoring.WithProfile(p))
		So(err, ShouldBeNil)

		Convey("Then a normalized value that overflows is rejected", func() {
			_, err := scorer.Assign(context.Background(), model.Lead{ExplorationBreadth: 1e10})
			So(errors.Is(err, scoring.ErrNonFiniteScore), ShouldBeTrue)
			So(errors.Is(err, scoring.ErrInvalidInput), ShouldBeFalse)
		})
	})
}
