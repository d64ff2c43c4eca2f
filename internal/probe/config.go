// Package probe drives a running ICP service with synthetic leads and checks
// every assignment against a local scorer built from the same profile.
package probe

import (
	"time"

	"github.com/okian/icp/internal/domain/model"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumLeads   int           // Number of leads to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; equal seeds give equal leads
	Spread     float64       // Standard deviations around the mean to sample from
	OutputFile string        // Output file for outcomes, skipped when empty
	Verbose    bool          // Log every mismatch
}

// Lead is a synthetic lead with an id used as the request id.
type Lead struct {
	ID                 string  `json:"id"`
	EngagementDepth    float64 `json:"engagement_depth"`
	ExplorationBreadth float64 `json:"exploration_breadth"`
	DecisionMomentum   float64 `json:"decision_momentum"`
	RevisitIntensity   float64 `json:"revisit_intensity"`
}

func (l Lead) model() model.Lead {
	return model.Lead{
		EngagementDepth:    l.EngagementDepth,
		ExplorationBreadth: l.ExplorationBreadth,
		DecisionMomentum:   l.DecisionMomentum,
		RevisitIntensity:   l.RevisitIntensity,
	}
}

// Assignment is the service's answer for one lead.
type Assignment struct {
	Segment string             `json:"segment"`
	Scores  map[string]float64 `json:"scores"`
}

// Outcome records what happened to one lead.
type Outcome struct {
	Lead     Lead               `json:"lead"`
	Status   int                `json:"status"`
	Segment  string             `json:"segment,omitempty"`
	Scores   map[string]float64 `json:"scores,omitempty"`
	Expected string             `json:"expected,omitempty"`
	Error    string             `json:"error,omitempty"`
	Mismatch string             `json:"mismatch,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Generated  int            `json:"generated"`
	Submitted  int            `json:"submitted"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Mismatched int            `json:"mismatched"`
	BySegment  map[string]int `json:"by_segment"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration"`
}
