// Package model contains domain models passed between layers.
package model

// Metric names as they appear in the population baseline.
const (
	EngagementDepth    = "engagement_depth"
	ExplorationBreadth = "exploration_breadth"
	DecisionMomentum   = "decision_momentum"
	RevisitIntensity   = "revisit_intensity"
)

// Normalized metric keys used by segment weight vectors.
const (
	NormDepth    = "norm_depth"
	NormBreadth  = "norm_breadth"
	NormMomentum = "norm_momentum"
	NormRevisit  = "norm_revisit"
)

// Metric pairs a raw metric name with the key its normalized value is stored under.
type Metric struct {
	Name string
	Key  string
}

// Metrics lists the four behavioral metrics in their canonical order.
func Metrics() []Metric {
	return []Metric{
		{Name: EngagementDepth, Key: NormDepth},
		{Name: ExplorationBreadth, Key: NormBreadth},
		{Name: DecisionMomentum, Key: NormMomentum},
		{Name: RevisitIntensity, Key: NormRevisit},
	}
}

// Lead carries the raw behavioral metrics of a single lead.
type Lead struct {
	EngagementDepth    float64 // seconds
	ExplorationBreadth float64 // page count
	DecisionMomentum   float64 // unitless
	RevisitIntensity   float64 // unitless count
}

// Value returns the raw value for a metric name. ok is false for unknown names.
func (l Lead) Value(metric string) (v float64, ok bool) {
	switch metric {
	case EngagementDepth:
		return l.EngagementDepth, true
	case ExplorationBreadth:
		return l.ExplorationBreadth, true
	case DecisionMomentum:
		return l.DecisionMomentum, true
	case RevisitIntensity:
		return l.RevisitIntensity, true
	}
	return 0, false
}
