package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"machine-analytics/internal/analytics/domain/segment"
	"machine-analytics/internal/analytics/domain/statistic"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	eventHeader  = []string{"run_id", "start", "end", "duration_minutes", "avg_speed", "min_speed", "max_speed"}
	idleHeader   = []string{"run_id", "start", "end", "duration_minutes", "avg_speed", "min_speed", "max_speed", "start_date", "start_time", "end_time"}
	hourlyHeader = []string{"hour", "samples", "avg_speed", "max_speed", "min_speed", "uptime_percent", "production"}
)

// WriteEventsCSV writes low speed events.
func WriteEventsCSV(w io.Writer, events []segment.Event) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(eventHeader); err != nil {
		return err
	}
	for _, evt := range events {
		if err := writer.Write(eventRecord(evt)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteIdleEventsCSV writes idle events with their display fields.
func WriteIdleEventsCSV(w io.Writer, events []segment.Event) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(idleHeader); err != nil {
		return err
	}
	for _, row := range IdleRows(events) {
		record := append(eventRecord(row.Event), row.StartDate, row.StartTime, row.EndTime)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteHourlyCSV writes the hourly rollup.
func WriteHourlyCSV(w io.Writer, hours []statistic.HourStat) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(hourlyHeader); err != nil {
		return err
	}
	for _, h := range hours {
		record := []string{
			strconv.Itoa(h.Hour),
			strconv.Itoa(h.Samples),
			formatFloat(h.AvgSpeed),
			formatFloat(h.MaxSpeed),
			formatFloat(h.MinSpeed),
			formatFloat(h.UptimePercent),
			formatFloat(h.Production),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func eventRecord(evt segment.Event) []string {
	return []string{
		strconv.Itoa(evt.RunID),
		evt.Start.Format(timestampLayout),
		evt.End.Format(timestampLayout),
		formatFloat(evt.DurationMinutes),
		formatFloat(evt.AvgSpeed),
		formatFloat(evt.MinSpeed),
		formatFloat(evt.MaxSpeed),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
