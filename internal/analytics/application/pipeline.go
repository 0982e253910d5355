package application

import (
	"time"

	"machine-analytics/internal/analytics/domain/segment"
	"machine-analytics/internal/analytics/domain/statistic"
	telemetry "machine-analytics/internal/telemetry/domain"
)

// Input is a loaded dataset ready for analysis.
// Digest identifies the raw content and is part of the cache key.
type Input struct {
	Name        string
	Digest      string
	Samples     []telemetry.Sample
	DroppedRows int
}

// Analysis is the complete engine output for one dataset and one parameter set.
// Full* fields cover every sample, Filtered* fields cover the window only.
type Analysis struct {
	File        string           `json:"file"`
	Params      Params           `json:"params"`
	Window      statistic.Window `json:"window"`
	SampleCount int              `json:"sample_count"`
	DroppedRows int              `json:"dropped_rows"`
	DataStart   time.Time        `json:"data_start"`
	DataEnd     time.Time        `json:"data_end"`

	FilteredSampleCount int        `json:"filtered_sample_count"`
	FilteredStart       *time.Time `json:"filtered_start,omitempty"`
	FilteredEnd         *time.Time `json:"filtered_end,omitempty"`

	FullKPI     statistic.Snapshot `json:"full_kpi"`
	FilteredKPI statistic.Snapshot `json:"filtered_kpi"`

	// LowSpeedEvents covers the full dataset, longest first.
	LowSpeedEvents []segment.Event `json:"low_speed_events"`
	// IdleEvents are the qualifying idle events of the full dataset, in run order.
	IdleEvents []segment.Event `json:"idle_events"`
	// FilteredIdleEvents are the qualifying idle events contained in the window, longest first.
	FilteredIdleEvents []segment.Event `json:"filtered_idle_events"`

	Hourly                     []statistic.HourStat `json:"hourly"`
	SpeedProductionCorrelation float64              `json:"speed_production_correlation"`
}

// Run executes the full pipeline. It is a pure function of (in, params).
func Run(in Input, params Params) *Analysis {
	classified := telemetry.Classify(in.Samples, params.MinSpeedRequirement)

	window := statistic.FullWindow(classified)
	if params.Window != nil {
		window = params.Window.Normalize()
	}

	idle := segment.IdleEvents(classified, params.IdleThresholdMinutes)
	lowSpeed := segment.LowSpeedEvents(classified)

	filtered := statistic.FilterSamples(classified, window)
	filteredIdle := statistic.FilterEvents(idle, window)

	analysis := &Analysis{
		File:                       in.Name,
		Params:                     params,
		Window:                     window,
		SampleCount:                len(classified),
		DroppedRows:                in.DroppedRows,
		FilteredSampleCount:        len(filtered),
		FullKPI:                    statistic.CalculateKPI(classified, idle, params.IdleThresholdMinutes),
		FilteredKPI:                statistic.CalculateKPI(filtered, filteredIdle, params.IdleThresholdMinutes),
		LowSpeedEvents:             segment.SortByDurationDesc(lowSpeed),
		IdleEvents:                 idle,
		FilteredIdleEvents:         segment.SortByDurationDesc(filteredIdle),
		Hourly:                     statistic.HourlyRollup(filtered),
		SpeedProductionCorrelation: statistic.SpeedProductionCorrelation(filtered),
	}
	if len(classified) > 0 {
		analysis.DataStart = classified[0].Timestamp
		analysis.DataEnd = classified[len(classified)-1].Timestamp
	}
	if len(filtered) > 0 {
		start, end := filtered[0].Timestamp, filtered[len(filtered)-1].Timestamp
		analysis.FilteredStart = &start
		analysis.FilteredEnd = &end
	}
	return analysis
}

// FilteredSamples returns the classified samples of the analysis window.
func FilteredSamples(in Input, params Params) []telemetry.ClassifiedSample {
	classified := telemetry.Classify(in.Samples, params.MinSpeedRequirement)
	window := statistic.FullWindow(classified)
	if params.Window != nil {
		window = params.Window.Normalize()
	}
	return statistic.FilterSamples(classified, window)
}
