package scoring

import "github.com/okian/icp/internal/domain/profile"

// Option applies a configuration option to the ProfileScorer.
type Option func(*ProfileScorer)

// WithProfile sets the configuration store the scorer reads from.
func WithProfile(p *profile.Profile) Option {
	return func(s *ProfileScorer) {
		if p != nil {
			s.profile = p
		}
	}
}
