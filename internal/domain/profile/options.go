package profile

// Option applies a configuration option to a Profile under construction.
type Option func(*Profile)

// WithMeans sets the population mean per metric.
func WithMeans(means map[string]float64) Option {
	return func(p *Profile) {
		p.means = copyWeights(means)
	}
}

// WithStds sets the population standard deviation per metric.
func WithStds(stds map[string]float64) Option {
	return func(p *Profile) {
		p.stds = copyWeights(stds)
	}
}

// WithSegments replaces the segment list. Declaration order is preserved and
// decides ties when two segments score the same.
func WithSegments(segments ...Segment) Option {
	return func(p *Profile) {
		p.segments = make([]Segment, 0, len(segments))
		for _, s := range segments {
			p.segments = append(p.segments, Segment{Name: s.Name, Weights: copyWeights(s.Weights)})
		}
	}
}

// WithSegment appends a single segment after the ones already configured.
func WithSegment(name string, weights map[string]float64) Option {
	return func(p *Profile) {
		p.segments = append(p.segments, Segment{Name: name, Weights: copyWeights(weights)})
	}
}

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
