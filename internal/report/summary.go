package report

import (
	"fmt"
	"strings"
	"time"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/segment"
)

const (
	fileNamePrefix = "Machine_Analytics_Report_"
	stampLayout    = "20060102_150405"
)

// Entry is one key-value row of a report summary.
type Entry struct {
	Key   string
	Value string
}

// Summary is the flat KPI view rendered at the top of every report.
// KPIs cover the full dataset; Window is informational.
type Summary struct {
	File                 string
	GeneratedAt          time.Time
	Window               string
	MinSpeedRequirement  float64
	IdleThresholdMinutes float64
	UptimePercent        float64
	AvgRunningSpeed      float64
	TotalProduction      float64
	QualifyingIdleEvents int
	LowSpeedEvents       int
}

// NewSummary flattens an analysis.
func NewSummary(a *application.Analysis, generatedAt time.Time) Summary {
	return Summary{
		File:                 a.File,
		GeneratedAt:          generatedAt,
		Window:               fmt.Sprintf("%s %02d:00 .. %s %02d:59", a.Window.StartDate, a.Window.StartHour, a.Window.EndDate, a.Window.EndHour),
		MinSpeedRequirement:  a.Params.MinSpeedRequirement,
		IdleThresholdMinutes: a.Params.IdleThresholdMinutes,
		UptimePercent:        a.FullKPI.UptimePercent,
		AvgRunningSpeed:      a.FullKPI.AvgRunningSpeed,
		TotalProduction:      a.FullKPI.TotalProduction,
		QualifyingIdleEvents: a.FullKPI.QualifyingIdleEventCount,
		LowSpeedEvents:       len(a.LowSpeedEvents),
	}
}

// Entries returns the summary as ordered rows.
func (s Summary) Entries() []Entry {
	return []Entry{
		{"File", s.File},
		{"Generated", s.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Window", s.Window},
		{"Min Speed Requirement (RPM)", fmt.Sprintf("%.1f", s.MinSpeedRequirement)},
		{"Idle Threshold (min)", fmt.Sprintf("%.1f", s.IdleThresholdMinutes)},
		{"Uptime", fmt.Sprintf("%.1f%%", s.UptimePercent)},
		{"Average Speed (when running)", fmt.Sprintf("%.1f RPM", s.AvgRunningSpeed)},
		{"Total Production", fmt.Sprintf("%.1f", s.TotalProduction)},
		{fmt.Sprintf("Long Idle Events (>= %g min)", s.IdleThresholdMinutes), fmt.Sprintf("%d", s.QualifyingIdleEvents)},
		{"Low Speed Events", fmt.Sprintf("%d", s.LowSpeedEvents)},
	}
}

// FileName builds Machine_Analytics_Report_<file>_<yyyymmdd_hhmmss>.<ext>.
func FileName(file, ext string, at time.Time) string {
	base := file
	if strings.HasSuffix(strings.ToLower(base), ".csv") {
		base = base[:len(base)-len(".csv")]
	}
	base = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(base)
	return fileNamePrefix + base + "_" + at.Format(stampLayout) + "." + strings.TrimPrefix(ext, ".")
}

// IdleRow is an idle event with its display fields.
type IdleRow struct {
	segment.Event
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// IdleRows adds display fields to idle events.
func IdleRows(events []segment.Event) []IdleRow {
	rows := make([]IdleRow, 0, len(events))
	for _, evt := range events {
		rows = append(rows, IdleRow{
			Event:     evt,
			StartDate: evt.Start.Format("2006-01-02"),
			StartTime: evt.Start.Format("15:04:05"),
			EndTime:   evt.End.Format("15:04:05"),
		})
	}
	return rows
}
