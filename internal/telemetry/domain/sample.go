package telemetry

import (
	"context"
	"io"
	"time"
)

const (
	// IdleSpeedCeiling is the highest speed still counted as idle.
	IdleSpeedCeiling = 1.0
	// DefaultMinSpeedRequirement is the default low-speed upper bound.
	DefaultMinSpeedRequirement = 10.0
)

// Sample is one telemetry reading of a machine.
// Samples handed to the engine are sorted ascending by Timestamp.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Quantity  float64   `json:"quantity"`
}

// ClassifiedSample is a sample tagged with its operating state.
// Invariants:
// 1) IsIdle and IsRunning are mutually exclusive and exhaustive.
// 2) IsLowSpeed implies IsRunning.
type ClassifiedSample struct {
	Sample
	IsIdle     bool `json:"is_idle"`
	IsRunning  bool `json:"is_running"`
	IsLowSpeed bool `json:"is_low_speed"`
}

// Classify tags every sample. It looks at each sample in isolation.
func Classify(samples []Sample, minSpeedRequirement float64) []ClassifiedSample {
	out := make([]ClassifiedSample, len(samples))
	for i, s := range samples {
		out[i] = ClassifySample(s, minSpeedRequirement)
	}
	return out
}

// ClassifySample tags a single sample.
// The idle bound is inclusive, the low-speed upper bound exclusive.
func ClassifySample(s Sample, minSpeedRequirement float64) ClassifiedSample {
	running := s.Speed > IdleSpeedCeiling
	return ClassifiedSample{
		Sample:     s,
		IsIdle:     !running,
		IsRunning:  running,
		IsLowSpeed: running && s.Speed < minSpeedRequirement,
	}
}

// File describes a telemetry file offered by a source.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Dataset is a named, readable tabular byte stream.
type Dataset struct {
	Name string
	Body io.ReadCloser
}

// Source lists and opens telemetry files.
type Source interface {
	List(ctx context.Context) ([]File, error)
	Open(ctx context.Context, name string) (Dataset, error)
}
