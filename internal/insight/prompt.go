package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/segment"
	"machine-analytics/internal/analytics/domain/statistic"
)

// Scope selects what the model is asked to analyze.
type Scope string

const (
	ScopeFull         Scope = "full"
	ScopeFiltered     Scope = "filtered"
	ScopeTimePattern  Scope = "time_pattern"
	ScopeAsk          Scope = "ask"
	ScopeMaintenance  Scope = "maintenance"
	ScopeOptimization Scope = "optimization"
)

const systemPrompt = "You are a senior IoT data analyst specialising in industrial machine telemetry. " +
	"Base every statement on the JSON data provided. Quote numbers exactly as given and say so when the data is insufficient."

// IsValid checks if the scope is supported.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeFull, ScopeFiltered, ScopeTimePattern, ScopeAsk, ScopeMaintenance, ScopeOptimization:
		return true
	default:
		return false
	}
}

type promptData struct {
	File                 string               `json:"file"`
	MinSpeedRequirement  float64              `json:"min_speed_requirement_rpm"`
	IdleThresholdMinutes float64              `json:"idle_threshold_minutes"`
	Window               *statistic.Window    `json:"window,omitempty"`
	KPI                  statistic.Snapshot   `json:"kpi"`
	IdleEvents           []segment.Event      `json:"idle_events,omitempty"`
	LowSpeedEvents       []segment.Event      `json:"low_speed_events,omitempty"`
	Hourly               []statistic.HourStat `json:"hourly,omitempty"`
	Correlation          *float64             `json:"speed_production_correlation,omitempty"`
}

// BuildPrompt renders the user message for scope. question is required for ScopeAsk only.
func BuildPrompt(scope Scope, a *application.Analysis, question string) (string, error) {
	if !scope.IsValid() {
		return "", ErrUnknownScope
	}
	question = strings.TrimSpace(question)
	if scope == ScopeAsk && question == "" {
		return "", ErrEmptyQuestion
	}

	data := promptData{
		File:                 a.File,
		MinSpeedRequirement:  a.Params.MinSpeedRequirement,
		IdleThresholdMinutes: a.Params.IdleThresholdMinutes,
	}
	var instruction string
	switch scope {
	case ScopeFull:
		data.KPI = a.FullKPI
		data.IdleEvents = a.IdleEvents
		data.LowSpeedEvents = a.LowSpeedEvents
		instruction = "Analyze the complete dataset. Summarize availability, idle behaviour and low speed operation, and list the three most important findings."
	case ScopeFiltered:
		window := a.Window
		data.Window = &window
		data.KPI = a.FilteredKPI
		data.IdleEvents = a.FilteredIdleEvents
		data.Hourly = a.Hourly
		instruction = "Analyze the selected time window only. Compare its hours and explain what drove idle time inside the window."
	case ScopeTimePattern:
		window := a.Window
		correlation := a.SpeedProductionCorrelation
		data.Window = &window
		data.KPI = a.FilteredKPI
		data.Hourly = a.Hourly
		data.Correlation = &correlation
		instruction = "Identify time-of-day patterns in speed, uptime and production. Name the best and worst hours and comment on the speed/production correlation."
	case ScopeAsk:
		window := a.Window
		data.Window = &window
		data.KPI = a.FilteredKPI
		data.IdleEvents = a.FilteredIdleEvents
		data.LowSpeedEvents = a.LowSpeedEvents
		data.Hourly = a.Hourly
		instruction = "Answer the question using the data below.\nQuestion: " + question
	case ScopeMaintenance:
		data.KPI = a.FullKPI
		data.IdleEvents = a.IdleEvents
		data.LowSpeedEvents = a.LowSpeedEvents
		data.Hourly = a.Hourly
		instruction = "Recommend a maintenance schedule. Use recurring idle stops and low speed runs as symptoms and propose the least disruptive hours for planned downtime."
	case ScopeOptimization:
		correlation := a.SpeedProductionCorrelation
		data.KPI = a.FullKPI
		data.LowSpeedEvents = a.LowSpeedEvents
		data.Hourly = a.Hourly
		data.Correlation = &correlation
		instruction = "Propose concrete production optimizations that would raise uptime, running speed and output."
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("insight: encode data: %w", err)
	}
	return instruction + "\n\nData:\n" + string(payload), nil
}
