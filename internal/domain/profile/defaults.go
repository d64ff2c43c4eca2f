package profile

import "github.com/okian/icp/internal/domain/model"

// Loft population baseline.
const (
	defaultMeanDepth    = 4162.714529
	defaultMeanBreadth  = 3.161074
	defaultMeanMomentum = -1.951359
	defaultMeanRevisit  = 4.019175

	defaultStdDepth    = 45539.847327
	defaultStdBreadth  = 2.044317
	defaultStdMomentum = 4.805851
	defaultStdRevisit  = 8.309891
)

// Reference segment names.
const (
	DeepDivers            = "Deep Divers"
	RapidDeciders         = "Rapid Deciders"
	LoopingDoubters       = "Looping Doubters"
	ComprehensiveAuditors = "Comprehensive Auditors"
	SurfaceSamplers       = "Surface Samplers"
)

// DefaultMeans returns the Loft population means.
func DefaultMeans() map[string]float64 {
	return map[string]float64{
		model.EngagementDepth:    defaultMeanDepth,
		model.ExplorationBreadth: defaultMeanBreadth,
		model.DecisionMomentum:   defaultMeanMomentum,
		model.RevisitIntensity:   defaultMeanRevisit,
	}
}

// DefaultStds returns the Loft population standard deviations.
func DefaultStds() map[string]float64 {
	return map[string]float64{
		model.EngagementDepth:    defaultStdDepth,
		model.ExplorationBreadth: defaultStdBreadth,
		model.DecisionMomentum:   defaultStdMomentum,
		model.RevisitIntensity:   defaultStdRevisit,
	}
}

// DefaultSegments returns the reference ICP segments in declaration order.
func DefaultSegments() []Segment {
	return []Segment{
		{Name: DeepDivers, Weights: weights(1, 1, 0, 0)},
		{Name: RapidDeciders, Weights: weights(-1, -1, 1, 0)},
		{Name: LoopingDoubters, Weights: weights(0, 0, -1, 1)},
		{Name: ComprehensiveAuditors, Weights: weights(1, 1, 1, 1)},
		{Name: SurfaceSamplers, Weights: weights(-1, -1, 0, 0)},
	}
}

// Default returns the reference Loft profile. It panics only if the built-in
// tables stop validating, which is a programming error.
func Default() *Profile {
	p, err := New(
		WithMeans(DefaultMeans()),
		WithStds(DefaultStds()),
		WithSegments(DefaultSegments()...),
	)
	if err != nil {
		panic(err)
	}
	return p
}

func weights(depth, breadth, momentum, revisit float64) map[string]float64 {
	return map[string]float64{
		model.NormDepth:    depth,
		model.NormBreadth:  breadth,
		model.NormMomentum: momentum,
		model.NormRevisit:  revisit,
	}
}
