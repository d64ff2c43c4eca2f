// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/icp/internal/domain/model"
	"github.com/okian/icp/internal/domain/profile"
	"github.com/okian/icp/internal/domain/scoring"
	"github.com/okian/icp/pkg/logger"
	"github.com/okian/icp/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// Service implements the API dependencies for lead classification.
type Service struct {
	mu sync.RWMutex

	// Core components
	profile *profile.Profile
	scorer  scoring.Scorer

	// State
	started     bool
	startedAt   time.Time
	assigned    map[string]int64
	total       int64
	failures    int64
	lastSegment string

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProfile sets the configuration store. The Loft default is used otherwise.
func WithProfile(p *profile.Profile) Option {
	return func(s *Service) {
		if p != nil {
			s.profile = p
		}
	}
}

// WithScorer replaces the profile scorer, mainly for tests.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		assigned: make(map[string]int64),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the scorer over the profile. A profile that cannot be resolved
// prevents startup.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.profile == nil {
		s.profile = profile.Default()
	}

	if s.scorer == nil {
		sc, err := scoring.NewProfileScorer(scoring.WithProfile(s.profile))
		if err != nil {
			return fmt.Errorf("build scorer: %w", err)
		}
		s.scorer = sc
	}

	segments := s.profile.Segments()
	metrics.UpdateProfileSegments(len(segments))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "icp service started",
		logger.Int("segments", len(segments)),
		logger.Any("order", segments),
	)

	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "icp service stopped")
}

// Assign classifies a lead and records the outcome.
func (s *Service) Assign(ctx context.Context, lead model.Lead) (scoring.Result, error) {
	s.mu.RLock()
	started, scorer := s.started, s.scorer
	s.mu.RUnlock()
	if !started {
		return scoring.Result{}, ErrNotStarted
	}

	start := time.Now()
	res, err := scorer.Assign(ctx, lead)
	latencyMs := float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond

	if err != nil {
		kind := errorKind(err)
		metrics.RecordScoringError(kind)
		s.mu.Lock()
		s.failures++
		s.mu.Unlock()
		s.logger.Warn(ctx, "lead assignment failed",
			logger.String("kind", kind),
			logger.Error(err),
		)
		return scoring.Result{}, err
	}

	metrics.RecordScoringLatency(latencyMs)
	metrics.RecordAssignment(res.Segment)
	for _, sc := range res.Scores {
		metrics.ObserveSegmentScore(sc.Segment, sc.Score)
	}

	s.mu.Lock()
	s.assigned[res.Segment]++
	s.total++
	s.lastSegment = res.Segment
	s.mu.Unlock()

	s.logger.Debug(ctx, "lead assigned",
		logger.String("segment", res.Segment),
		logger.Any("scores", res.ScoreMap()),
		logger.Float64("latency_ms", latencyMs),
	)
	return res, nil
}

// Profile returns a copy of the configured baseline and segments.
func (s *Service) Profile(_ context.Context) profile.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return profile.Default().Snapshot()
	}
	return s.profile.Snapshot()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":  s.started,
		"assigned": s.total,
		"failed":   s.failures,
	}

	if s.started {
		bySegment := make(map[string]int64, len(s.assigned))
		for _, name := range s.profile.Segments() {
			bySegment[name] = s.assigned[name]
		}
		stats["bySegment"] = bySegment
		stats["lastSegment"] = s.lastSegment
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	return stats
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, scoring.ErrNonFiniteScore):
		return "non_finite_score"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, profile.ErrUnknownMetric), errors.Is(err, profile.ErrUnknownSegment):
		return "profile"
	default:
		return "internal"
	}
}
