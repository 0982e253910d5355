package telemetry

import (
	"testing"
	"time"
)

func TestClassifyStatesAreConsistent(t *testing.T) {
	speeds := []float64{0, 0.5, 1, 1.0001, 5, 9.99, 10, 12, 250}
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := make([]Sample, len(speeds))
	for i, speed := range speeds {
		samples[i] = Sample{Timestamp: base.Add(time.Duration(i) * time.Minute), Speed: speed}
	}

	for _, threshold := range []float64{-3, 0, 1, 5, 10, 100} {
		for _, c := range Classify(samples, threshold) {
			if c.IsIdle == c.IsRunning {
				t.Fatalf("speed %v threshold %v: idle=%v running=%v", c.Speed, threshold, c.IsIdle, c.IsRunning)
			}
			if c.IsLowSpeed && !c.IsRunning {
				t.Fatalf("speed %v threshold %v: low speed without running", c.Speed, threshold)
			}
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		speed     float64
		threshold float64
		idle      bool
		low       bool
	}{
		{speed: 0, threshold: 10, idle: true},
		{speed: 1, threshold: 10, idle: true},
		{speed: 1.5, threshold: 10, low: true},
		{speed: 9.9, threshold: 10, low: true},
		{speed: 10, threshold: 10},
		{speed: 12, threshold: 10},
		{speed: 5, threshold: 1},
		{speed: 0.5, threshold: 0.8, idle: true},
	}
	for _, tc := range cases {
		got := ClassifySample(Sample{Speed: tc.speed}, tc.threshold)
		if got.IsIdle != tc.idle {
			t.Fatalf("speed %v: expected idle=%v, got %v", tc.speed, tc.idle, got.IsIdle)
		}
		if got.IsLowSpeed != tc.low {
			t.Fatalf("speed %v threshold %v: expected low=%v, got %v", tc.speed, tc.threshold, tc.low, got.IsLowSpeed)
		}
	}
}

func TestClassifyEmpty(t *testing.T) {
	got := Classify(nil, DefaultMinSpeedRequirement)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
