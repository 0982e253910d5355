package segment

import telemetry "machine-analytics/internal/telemetry/domain"

// Tag selects one boolean state dimension of a classified sample.
type Tag func(telemetry.ClassifiedSample) bool

var (
	// TagIdle selects idle samples.
	TagIdle Tag = func(s telemetry.ClassifiedSample) bool { return s.IsIdle }
	// TagRunning selects running samples.
	TagRunning Tag = func(s telemetry.ClassifiedSample) bool { return s.IsRunning }
	// TagLowSpeed selects low-speed samples.
	TagLowSpeed Tag = func(s telemetry.ClassifiedSample) bool { return s.IsLowSpeed }
)

// FirstRunID is the run id assigned to the first sample of a sequence.
const FirstRunID = 1

// Segment assigns a run id to every sample.
// The id starts at FirstRunID and increments whenever the tag value differs from the
// previous sample, so true-runs and false-runs both get their own ids.
func Segment(samples []telemetry.ClassifiedSample, tag Tag) []int {
	ids := make([]int, len(samples))
	if len(samples) == 0 {
		return ids
	}

	id := FirstRunID
	prev := tag(samples[0])
	ids[0] = id
	for i := 1; i < len(samples); i++ {
		current := tag(samples[i])
		if current != prev {
			id++
			prev = current
		}
		ids[i] = id
	}
	return ids
}

// Run is a maximal contiguous range of samples sharing one tag value.
// Start and End are sample indexes, End exclusive.
type Run struct {
	ID    int
	Value bool
	Start int
	End   int
}

// Len returns the number of samples in the run.
func (r Run) Len() int { return r.End - r.Start }

// Runs groups samples by run id.
func Runs(samples []telemetry.ClassifiedSample, tag Tag) []Run {
	ids := Segment(samples, tag)
	runs := make([]Run, 0)
	for i, id := range ids {
		if len(runs) == 0 || runs[len(runs)-1].ID != id {
			runs = append(runs, Run{ID: id, Value: tag(samples[i]), Start: i, End: i})
		}
		runs[len(runs)-1].End = i + 1
	}
	return runs
}
