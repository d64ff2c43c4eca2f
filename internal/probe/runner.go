package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/icp/internal/domain/scoring"
	"github.com/okian/icp/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes a complete probe: health check, profile fetch, lead
// generation, concurrent submission and verification. It returns
// ErrMismatch when any assignment disagrees with the local scorer.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log := logger.Named("probe")
	report := &Report{StartTime: time.Now(), BySegment: make(map[string]int)}

	log.Info(ctx, "starting icp probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("leads", cfg.NumLeads),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", int64(cfg.Seed)),
		logger.Float64("spread", cfg.Spread))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	p, err := client.fetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	scorer, err := scoring.NewProfileScorer(scoring.WithProfile(p))
	if err != nil {
		return nil, fmt.Errorf("local scorer: %w", err)
	}

	leads, err := generateLeads(p, cfg.NumLeads, cfg.Seed, cfg.Spread)
	if err != nil {
		return nil, fmt.Errorf("lead generation failed: %w", err)
	}
	report.Generated = len(leads)

	outcomes := submit(ctx, cfg, client, scorer, leads)
	for _, o := range outcomes {
		if o.Status == 0 && o.Error == "" {
			continue
		}
		report.Submitted++
		switch {
		case o.Error != "" || o.Status != 200:
			report.Failed++
		case o.Mismatch != "":
			report.Mismatched++
			if cfg.Verbose {
				log.Warn(ctx, "assignment mismatch",
					logger.String("lead", o.Lead.ID),
					logger.String("mismatch", o.Mismatch))
			}
		default:
			report.Successful++
			report.BySegment[o.Segment]++
		}
	}

	if cfg.OutputFile != "" {
		if err := saveOutcomes(cfg.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		} else {
			log.Info(ctx, "outcomes saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	logReport(ctx, log, report)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("probe interrupted: %w", err)
	}
	if report.Mismatched > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrMismatch, report.Mismatched, report.Submitted)
	}
	return report, nil
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.NumLeads <= 0:
		return fmt.Errorf("%w: leads must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Spread < 0:
		return fmt.Errorf("%w: spread must not be negative", ErrInvalidConfig)
	}
	return nil
}

// submit posts leads through a worker pool. Outcomes keep the lead order;
// leads skipped after cancellation keep a zero status.
func submit(ctx context.Context, cfg *Config, client *httpClient, scorer scoring.Scorer, leads []Lead) []Outcome {
	outcomes := make([]Outcome, len(leads))
	jobs := make(chan int, cfg.Workers*2)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = submitOne(ctx, client, scorer, leads[i])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range leads {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	for i := range outcomes {
		outcomes[i].Lead = leads[i]
	}
	return outcomes
}

func submitOne(ctx context.Context, client *httpClient, scorer scoring.Scorer, lead Lead) Outcome {
	out := Outcome{Lead: lead}

	got, status, err := client.assign(ctx, lead)
	out.Status = status
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if status != 200 {
		return out
	}
	out.Segment = got.Segment
	out.Scores = got.Scores

	expected, mismatch, err := verify(ctx, scorer, lead, got)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Expected = expected
	out.Mismatch = mismatch
	return out
}

func saveOutcomes(filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write outcomes: %w", err)
	}
	return nil
}

func logReport(ctx context.Context, log logger.Logger, r *Report) {
	var leadsPerSecond float64
	if r.Duration > 0 {
		leadsPerSecond = float64(r.Submitted) / r.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", r.Generated),
		logger.Int("submitted", r.Submitted),
		logger.Int("successful", r.Successful),
		logger.Int("failed", r.Failed),
		logger.Int("mismatched", r.Mismatched),
		logger.Any("bySegment", r.BySegment),
		logger.String("duration", r.Duration.String()),
		logger.Float64("leadsPerSecond", leadsPerSecond))
}
