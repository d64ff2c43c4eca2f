// Package profile holds the fixed statistical baseline and the ICP segment
// weight vectors used for lead classification.
//
// A Profile is validated once when it is built and is read-only afterwards,
// so it can be shared by any number of goroutines without locking.
package profile

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/okian/icp/internal/domain/model"
)

// Segment is a named ICP class with its weight vector over normalized metric keys.
type Segment struct {
	Name    string             `json:"name"`
	Weights map[string]float64 `json:"weights"`
}

// Profile is the immutable configuration store.
type Profile struct {
	means    map[string]float64
	stds     map[string]float64
	segments []Segment
	index    map[string]int
}

// New builds and validates a Profile. Any inconsistency between the tables is
// reported as ErrInvalidProfile wrapped with the offending entry.
func New(opts ...Option) (*Profile, error) {
	p := &Profile{
		means: make(map[string]float64),
		stds:  make(map[string]float64),
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	p.index = make(map[string]int, len(p.segments))
	for i, s := range p.segments {
		p.index[s.Name] = i
	}
	return p, nil
}

func (p *Profile) validate() error {
	for _, m := range model.Metrics() {
		mean, ok := p.means[m.Name]
		if !ok {
			return fmt.Errorf("%w: missing mean for %q", ErrInvalidProfile, m.Name)
		}
		std, ok := p.stds[m.Name]
		if !ok {
			return fmt.Errorf("%w: missing std for %q", ErrInvalidProfile, m.Name)
		}
		if !finite(mean) {
			return fmt.Errorf("%w: mean for %q is not finite", ErrInvalidProfile, m.Name)
		}
		if !finite(std) || std < 0 {
			return fmt.Errorf("%w: std for %q must be finite and non-negative", ErrInvalidProfile, m.Name)
		}
	}
	if len(p.means) != len(model.Metrics()) {
		return fmt.Errorf("%w: mean table has extra metrics %v", ErrInvalidProfile, extraMetrics(p.means))
	}
	if len(p.stds) != len(model.Metrics()) {
		return fmt.Errorf("%w: std table has extra metrics %v", ErrInvalidProfile, extraMetrics(p.stds))
	}

	if len(p.segments) == 0 {
		return fmt.Errorf("%w: no segments configured", ErrInvalidProfile)
	}
	keys := normalizedKeys()
	seen := make(map[string]struct{}, len(p.segments))
	for _, s := range p.segments {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: segment name must not be blank", ErrInvalidProfile)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate segment %q", ErrInvalidProfile, s.Name)
		}
		seen[s.Name] = struct{}{}
		for _, k := range slices.Sorted(maps.Keys(s.Weights)) {
			if _, ok := keys[k]; !ok {
				return fmt.Errorf("%w: segment %q weights unknown key %q", ErrInvalidProfile, s.Name, k)
			}
			if !finite(s.Weights[k]) {
				return fmt.Errorf("%w: segment %q weight for %q is not finite", ErrInvalidProfile, s.Name, k)
			}
		}
	}
	return nil
}

// MeanOf returns the population mean of a metric.
func (p *Profile) MeanOf(metric string) (float64, error) {
	v, ok := p.means[metric]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return v, nil
}

// StdOf returns the population standard deviation of a metric.
func (p *Profile) StdOf(metric string) (float64, error) {
	v, ok := p.stds[metric]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return v, nil
}

// WeightsOf returns a copy of the weight vector for a segment.
func (p *Profile) WeightsOf(segment string) (map[string]float64, error) {
	i, ok := p.index[segment]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSegment, segment)
	}
	return copyWeights(p.segments[i].Weights), nil
}

// Segments returns segment names in declaration order.
func (p *Profile) Segments() []string {
	names := make([]string, len(p.segments))
	for i, s := range p.segments {
		names[i] = s.Name
	}
	return names
}

// Weight returns the weight the i-th segment (in Segments order) assigns to a
// normalized key without copying the vector. Missing keys weigh zero.
func (p *Profile) Weight(i int, key string) float64 {
	return p.segments[i].Weights[key]
}

// Snapshot describes the profile for display. The returned values are copies.
type Snapshot struct {
	Metrics  []MetricBaseline `json:"metrics"`
	Segments []Segment        `json:"segments"`
}

// MetricBaseline is a metric with its population statistics.
type MetricBaseline struct {
	Name string  `json:"name"`
	Key  string  `json:"key"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Snapshot returns a copy of the profile tables in canonical order.
func (p *Profile) Snapshot() Snapshot {
	out := Snapshot{
		Metrics:  make([]MetricBaseline, 0, len(model.Metrics())),
		Segments: make([]Segment, 0, len(p.segments)),
	}
	for _, m := range model.Metrics() {
		out.Metrics = append(out.Metrics, MetricBaseline{
			Name: m.Name,
			Key:  m.Key,
			Mean: p.means[m.Name],
			Std:  p.stds[m.Name],
		})
	}
	for _, s := range p.segments {
		out.Segments = append(out.Segments, Segment{Name: s.Name, Weights: copyWeights(s.Weights)})
	}
	return out
}

func normalizedKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(model.Metrics()))
	for _, m := range model.Metrics() {
		keys[m.Key] = struct{}{}
	}
	return keys
}

func extraMetrics(table map[string]float64) []string {
	known := make(map[string]struct{}, len(model.Metrics()))
	for _, m := range model.Metrics() {
		known[m.Name] = struct{}{}
	}
	var extra []string
	for _, name := range slices.Sorted(maps.Keys(table)) {
		if _, ok := known[name]; !ok {
			extra = append(extra, name)
		}
	}
	return extra
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
