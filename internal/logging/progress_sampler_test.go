package logging

import "testing"

func TestNewProgressSamplerStep(t *testing.T) {
	tests := []struct {
		step float64
		want float64
	}{
		{0, DefaultProgressStep},
		{-0.5, DefaultProgressStep},
		{1.5, DefaultProgressStep},
		{0.25, 0.25},
		{1, 1},
	}
	for _, tt := range tests {
		if got := NewProgressSampler(tt.step).step; got != tt.want {
			t.Errorf("NewProgressSampler(%v).step = %v, want %v", tt.step, got, tt.want)
		}
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.Sample(0.5) || !s.Sample(-1) {
		t.Fatal("nil sampler should report everything")
	}
}

func TestProgressSamplerSteps(t *testing.T) {
	s := NewProgressSampler(0.25)
	steps := []struct {
		fraction float64
		want     bool
	}{
		{-1, false},
		{0, true},
		{0.1, false},
		{0.25, true},
		{0.3, false},
		{0.8, true},
		{0.74, false},
		{0.9, false},
		{1.0, true},
		{1.2, false},
		{1.0, false},
	}
	for i, st := range steps {
		if got := s.Sample(st.fraction); got != st.want {
			t.Fatalf("step %d: Sample(%v) = %v, want %v", i, st.fraction, got, st.want)
		}
	}
}

func TestProgressSamplerJumpStraightToDone(t *testing.T) {
	s := NewProgressSampler(0.1)
	if !s.Sample(1.3) {
		t.Fatal("completion should be reported")
	}
	if s.Sample(0.5) {
		t.Fatal("nothing is reported after completion")
	}
}
