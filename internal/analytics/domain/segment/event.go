package segment

import (
	"math"
	"sort"
	"time"

	telemetry "machine-analytics/internal/telemetry/domain"
)

// lowSpeedDurationPrecision is the number of decimals kept on low-speed durations.
const lowSpeedDurationPrecision = 4

// Event is a materialized true-run with summary statistics.
// MinSpeed and MaxSpeed are always filled; the idle table does not display them.
type Event struct {
	RunID           int       `json:"run_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes float64   `json:"duration_minutes"`
	AvgSpeed        float64   `json:"avg_speed"`
	MinSpeed        float64   `json:"min_speed"`
	MaxSpeed        float64   `json:"max_speed"`
}

// Aggregate reduces every true-run of tag into an event, in run order.
func Aggregate(samples []telemetry.ClassifiedSample, tag Tag) []Event {
	events := make([]Event, 0)
	for _, run := range Runs(samples, tag) {
		if !run.Value || run.Len() == 0 {
			continue
		}
		events = append(events, summarize(run.ID, samples[run.Start:run.End]))
	}
	return events
}

// IdleEvents returns the idle events lasting at least idleThresholdMinutes.
func IdleEvents(samples []telemetry.ClassifiedSample, idleThresholdMinutes float64) []Event {
	return Qualifying(Aggregate(samples, TagIdle), idleThresholdMinutes)
}

// LowSpeedEvents returns every low-speed event, regardless of duration.
func LowSpeedEvents(samples []telemetry.ClassifiedSample) []Event {
	events := Aggregate(samples, TagLowSpeed)
	for i := range events {
		events[i].DurationMinutes = round(events[i].DurationMinutes, lowSpeedDurationPrecision)
	}
	return events
}

// Qualifying keeps the events whose duration meets the threshold.
func Qualifying(events []Event, thresholdMinutes float64) []Event {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		if evt.DurationMinutes >= thresholdMinutes {
			out = append(out, evt)
		}
	}
	return out
}

// SortByDurationDesc returns a copy ordered by duration, longest first.
// Ties keep run order.
func SortByDurationDesc(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DurationMinutes > out[j].DurationMinutes
	})
	return out
}

// TotalMinutes sums event durations.
func TotalMinutes(events []Event) float64 {
	var total float64
	for _, evt := range events {
		total += evt.DurationMinutes
	}
	return total
}

func summarize(runID int, run []telemetry.ClassifiedSample) Event {
	first, last := run[0], run[len(run)-1]
	evt := Event{
		RunID:           runID,
		Start:           first.Timestamp,
		End:             last.Timestamp,
		DurationMinutes: last.Timestamp.Sub(first.Timestamp).Minutes(),
		MinSpeed:        first.Speed,
		MaxSpeed:        first.Speed,
	}
	var sum float64
	for _, s := range run {
		sum += s.Speed
		evt.MinSpeed = math.Min(evt.MinSpeed, s.Speed)
		evt.MaxSpeed = math.Max(evt.MaxSpeed, s.Speed)
	}
	evt.AvgSpeed = sum / float64(len(run))
	return evt
}

func round(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(value*pow) / pow
}
