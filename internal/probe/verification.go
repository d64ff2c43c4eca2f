package probe

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/icp/internal/domain/scoring"
)

// scoreTolerance absorbs JSON float formatting.
const scoreTolerance = 1e-9

// verify checks a remote assignment against the local scorer and returns a
// description of the first disagreement, or "" when they agree.
func verify(ctx context.Context, scorer scoring.Scorer, lead Lead, got Assignment) (expected, mismatch string, err error) {
	want, err := scorer.Assign(ctx, lead.model())
	if err != nil {
		return "", "", fmt.Errorf("local scoring: %w", err)
	}

	if len(got.Scores) != len(want.Scores) {
		return want.Segment, fmt.Sprintf("got %d scores, want %d", len(got.Scores), len(want.Scores)), nil
	}
	for _, s := range want.Scores {
		remote, ok := got.Scores[s.Segment]
		if !ok {
			return want.Segment, fmt.Sprintf("segment %q missing from scores", s.Segment), nil
		}
		if math.Abs(remote-s.Score) > scoreTolerance {
			return want.Segment, fmt.Sprintf("score for %q is %g, want %g", s.Segment, remote, s.Score), nil
		}
	}

	best := math.Inf(-1)
	for _, v := range got.Scores {
		best = math.Max(best, v)
	}
	if got.Scores[got.Segment] != best {
		return want.Segment, fmt.Sprintf("winner %q does not hold the maximum score", got.Segment), nil
	}
	if got.Segment != want.Segment {
		return want.Segment, fmt.Sprintf("segment %q, want %q", got.Segment, want.Segment), nil
	}
	return want.Segment, "", nil
}
