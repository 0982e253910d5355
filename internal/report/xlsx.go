package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/segment"
)

// BuildXLSX renders a workbook with summary, idle events, low speed events and hourly sheets.
func BuildXLSX(summary Summary, a *application.Analysis) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	idleSheet := "idle_events"
	lowSpeedSheet := "low_speed_events"
	hourlySheet := "hourly"
	f.SetSheetName("Sheet1", summarySheet)
	for _, name := range []string{idleSheet, lowSpeedSheet, hourlySheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "IoT Machine Analytics Report")
	for i, entry := range summary.Entries() {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), entry.Key)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), entry.Value)
	}

	idleHeader := []string{"Run", "Date", "Start", "End", "Duration (min)", "Avg Speed", "Min Speed", "Max Speed"}
	writeRow(f, idleSheet, 1, toAny(idleHeader))
	for i, row := range IdleRows(a.FilteredIdleEvents) {
		writeRow(f, idleSheet, i+2, []any{
			row.RunID, row.StartDate, row.StartTime, row.EndTime,
			row.DurationMinutes, row.AvgSpeed, row.MinSpeed, row.MaxSpeed,
		})
	}

	writeRow(f, lowSpeedSheet, 1, toAny(eventHeader))
	for i, evt := range a.LowSpeedEvents {
		writeRow(f, lowSpeedSheet, i+2, eventValues(evt))
	}

	writeRow(f, hourlySheet, 1, toAny(hourlyHeader))
	for i, h := range a.Hourly {
		writeRow(f, hourlySheet, i+2, []any{h.Hour, h.Samples, h.AvgSpeed, h.MaxSpeed, h.MinSpeed, h.UptimePercent, h.Production})
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return
	}
	_ = f.SetSheetRow(sheet, cell, &values)
}

func eventValues(evt segment.Event) []any {
	return []any{
		evt.RunID,
		evt.Start.Format(timestampLayout),
		evt.End.Format(timestampLayout),
		evt.DurationMinutes, evt.AvgSpeed, evt.MinSpeed, evt.MaxSpeed,
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
