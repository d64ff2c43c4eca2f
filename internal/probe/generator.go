package probe

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/icp/internal/domain/model"
	"github.com/okian/icp/internal/domain/profile"
)

// generateLeads samples n leads around the profile means. Each metric is
// drawn from a normal distribution scaled by spread standard deviations.
// Equal seeds produce identical leads, ids included.
func generateLeads(p *profile.Profile, n int, seed uint64, spread float64) ([]Lead, error) {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)

	sample := func(metric string) (float64, error) {
		mean, err := p.MeanOf(metric)
		if err != nil {
			return 0, err
		}
		std, err := p.StdOf(metric)
		if err != nil {
			return 0, err
		}
		return mean + rng.NormFloat64()*std*spread, nil
	}

	leads := make([]Lead, n)
	for i := range leads {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, fmt.Errorf("lead id: %w", err)
		}
		leads[i].ID = id.String()

		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{model.EngagementDepth, &leads[i].EngagementDepth},
			{model.ExplorationBreadth, &leads[i].ExplorationBreadth},
			{model.DecisionMomentum, &leads[i].DecisionMomentum},
			{model.RevisitIntensity, &leads[i].RevisitIntensity},
		} {
			v, err := sample(f.name)
			if err != nil {
				return nil, fmt.Errorf("sample %s: %w", f.name, err)
			}
			*f.dst = v
		}
	}
	return leads, nil
}
