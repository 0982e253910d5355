package statistic

import (
	"machine-analytics/internal/analytics/domain/segment"
	telemetry "machine-analytics/internal/telemetry/domain"
)

// Snapshot is the scalar performance summary of one sample window.
// UptimePercent is a sample-count ratio, not time weighted; unevenly spaced samples bias it.
type Snapshot struct {
	TotalMinutes             float64 `json:"total_minutes"`
	UptimePercent            float64 `json:"uptime_percent"`
	AvgRunningSpeed          float64 `json:"avg_running_speed"`
	TotalProduction          float64 `json:"total_production"`
	QualifyingIdleEventCount int     `json:"qualifying_idle_event_count"`
}

// CalculateKPI summarizes exactly the samples of one window.
// idleEvents must already be restricted to the same window; only events lasting at
// least idleThresholdMinutes are counted.
func CalculateKPI(window []telemetry.ClassifiedSample, idleEvents []segment.Event, idleThresholdMinutes float64) Snapshot {
	snap := Snapshot{
		QualifyingIdleEventCount: len(segment.Qualifying(idleEvents, idleThresholdMinutes)),
	}
	if len(window) == 0 {
		return snap
	}

	first, last := window[0], window[len(window)-1]
	if len(window) > 1 {
		snap.TotalMinutes = last.Timestamp.Sub(first.Timestamp).Minutes()
		snap.TotalProduction = last.Quantity - first.Quantity
	}

	var running int
	var runningSpeed float64
	for _, s := range window {
		if s.IsRunning {
			running++
			runningSpeed += s.Speed
		}
	}
	snap.UptimePercent = ratio(100*float64(running), float64(len(window)))
	snap.AvgRunningSpeed = ratio(runningSpeed, float64(running))
	return snap
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
