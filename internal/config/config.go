// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and ICP_* environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"

	"github.com/okian/icp/internal/domain/profile"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps POST /assign request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// MetricsEnabled exposes GET /metrics when true.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// Profile overrides the Loft baseline and segment weights.
	Profile ProfileConfig `koanf:"profile"`
}

// ProfileConfig mirrors the configuration store tables. Empty tables fall
// back to the Loft defaults.
type ProfileConfig struct {
	// Means maps metric names to population means.
	Means map[string]float64 `koanf:"means"`

	// Stds maps metric names to population standard deviations.
	Stds map[string]float64 `koanf:"stds"`

	// Segments lists ICP segments; order decides ties.
	Segments []SegmentConfig `koanf:"segments"`
}

// SegmentConfig is one ICP segment and its weights over normalized keys.
type SegmentConfig struct {
	Name    string             `koanf:"name"`
	Weights map[string]float64 `koanf:"weights"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		MaxBodyBytes:   1 << 16,
		MetricsEnabled: true,
		Profile: ProfileConfig{
			Means: profile.DefaultMeans(),
			Stds:  profile.DefaultStds(),
		},
	}
}

// Build validates the tables and returns an immutable profile.
func (pc ProfileConfig) Build() (*profile.Profile, error) {
	means := pc.Means
	if len(means) == 0 {
		means = profile.DefaultMeans()
	}
	stds := pc.Stds
	if len(stds) == 0 {
		stds = profile.DefaultStds()
	}
	segments := profile.DefaultSegments()
	if len(pc.Segments) > 0 {
		segments = make([]profile.Segment, 0, len(pc.Segments))
		for _, s := range pc.Segments {
			segments = append(segments, profile.Segment{Name: s.Name, Weights: s.Weights})
		}
	}

	p, err := profile.New(
		profile.WithMeans(means),
		profile.WithStds(stds),
		profile.WithSegments(segments...),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}
