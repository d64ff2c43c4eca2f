// Package scoring classifies leads into ICP segments.
//
// Each raw metric is z-score normalized against the profile baseline, every
// segment's weight vector is applied to the normalized values, and the
// segment with the greatest weighted sum wins.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/icp/internal/domain/model"
	"github.com/okian/icp/internal/domain/profile"
)

// SegmentScore is the score of one segment.
type SegmentScore struct {
	Segment string  `json:"segment"`
	Score   float64 `json:"score"`
}

// Result contains the chosen segment and the score of every configured segment.
type Result struct {
	// Segment is the winning segment name.
	Segment string
	// Scores holds one entry per segment, in profile declaration order.
	Scores []SegmentScore
	// Normalized maps normalized metric keys to their z-scores.
	Normalized map[string]float64
}

// ScoreMap returns the scores keyed by segment name.
func (r Result) ScoreMap() map[string]float64 {
	m := make(map[string]float64, len(r.Scores))
	for _, s := range r.Scores {
		m[s.Segment] = s.Score
	}
	return m
}

// Scorer assigns a lead to a segment.
type Scorer interface {
	// Assign classifies a lead, honoring ctx for cancellation.
	Assign(ctx context.Context, lead model.Lead) (Result, error)
}

// baseline is the mean and standard deviation of one metric.
type baseline struct {
	name string
	key  string
	mean float64
	std  float64
}

// ProfileScorer implements Scorer over an immutable profile. It holds no
// mutable state and is safe for concurrent use.
type ProfileScorer struct {
	profile   *profile.Profile
	baselines []baseline
	segments  []string
}

// NewProfileScorer creates a scorer. Without WithProfile the Loft default
// profile is used. The metric baseline is resolved once here so that a
// misconfigured profile fails at construction rather than per call.
func NewProfileScorer(opts ...Option) (*ProfileScorer, error) {
	s := &ProfileScorer{}

	for _, opt := range opts {
		opt(s)
	}
	if s.profile == nil {
		s.profile = profile.Default()
	}

	for _, m := range model.Metrics() {
		mean, err := s.profile.MeanOf(m.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve baseline: %w", err)
		}
		std, err := s.profile.StdOf(m.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve baseline: %w", err)
		}
		s.baselines = append(s.baselines, baseline{name: m.Name, key: m.Key, mean: mean, std: std})
	}
	s.segments = s.profile.Segments()

	return s, nil
}

// Profile returns the profile the scorer reads from.
func (s *ProfileScorer) Profile() *profile.Profile {
	return s.profile
}

// Assign normalizes the lead's metrics, scores every segment and picks the
// highest one. Ties go to the segment declared first. A normalized value or
// score that overflows to NaN or ±Inf fails with ErrNonFiniteScore, so every
// returned score is finite.
func (s *ProfileScorer) Assign(ctx context.Context, lead model.Lead) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}

	normalized := make(map[string]float64, len(s.baselines))
	for _, b := range s.baselines {
		raw, _ := lead.Value(b.name)
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return Result{}, fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, b.name)
		}
		z := Normalize(raw, b.mean, b.std)
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return Result{}, fmt.Errorf("%w: %s normalizes out of range", ErrNonFiniteScore, b.name)
		}
		normalized[b.key] = z
	}

	scores := make([]SegmentScore, len(s.segments))
	best := 0
	for i, name := range s.segments {
		var score float64
		for _, b := range s.baselines {
			score += normalized[b.key] * s.profile.Weight(i, b.key)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return Result{}, fmt.Errorf("%w: segment %q", ErrNonFiniteScore, name)
		}
		scores[i] = SegmentScore{Segment: name, Score: score}
		if score > scores[best].Score {
			best = i
		}
	}

	return Result{
		Segment:    scores[best].Segment,
		Scores:     scores,
		Normalized: normalized,
	}, nil
}

// Normalize returns the z-score of value, or 0 when std is zero.
func Normalize(value, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}
