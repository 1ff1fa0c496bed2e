package logging

import "math"

// DefaultProgressStep is the fraction of a chapter between sampled progress reports.
const DefaultProgressStep = 0.1

// ProgressSampler thins a stream of completion fractions down to one report
// per step crossed, plus one on reaching completion. A nil sampler reports
// everything. Use one sampler per chapter.
type ProgressSampler struct {
	step     float64
	next     float64
	finished bool
}

// NewProgressSampler returns a sampler reporting every step of progress
// (a fraction in (0,1]); other values select DefaultProgressStep.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 || step > 1 {
		step = DefaultProgressStep
	}
	return &ProgressSampler{step: step}
}

// Sample reports whether fraction should be surfaced. Negative fractions
// (unknown progress) never are; values above 1 count as 1.
func (s *ProgressSampler) Sample(fraction float64) bool {
	if s == nil {
		return true
	}
	if fraction < 0 || s.finished {
		return false
	}
	if fraction >= 1 {
		s.finished = true
		return true
	}
	if fraction < s.next {
		return false
	}
	s.next = (math.Floor(fraction/s.step) + 1) * s.step
	return true
}
