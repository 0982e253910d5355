package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/segment"
	"machine-analytics/internal/analytics/domain/statistic"
)

var start = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func sampleAnalysis() *application.Analysis {
	idle := []segment.Event{
		{RunID: 3, Start: start.Add(10 * time.Minute), End: start.Add(22 * time.Minute), DurationMinutes: 12},
	}
	return &application.Analysis{
		File:   "line-7.csv",
		Params: application.Params{MinSpeedRequirement: 10, IdleThresholdMinutes: 10},
		Window: statistic.SingleDay(statistic.DateOf(start), 8, 9),
		FullKPI: statistic.Snapshot{
			TotalMinutes:             1439,
			UptimePercent:            62.4,
			AvgRunningSpeed:          13.72,
			TotalProduction:          2150,
			QualifyingIdleEventCount: 4,
		},
		FilteredKPI: statistic.Snapshot{
			TotalMinutes:             119,
			UptimePercent:            75.5,
			AvgRunningSpeed:          14.25,
			TotalProduction:          320,
			QualifyingIdleEventCount: 1,
		},
		LowSpeedEvents: []segment.Event{
			{RunID: 2, Start: start.Add(3 * time.Minute), End: start.Add(5 * time.Minute), DurationMinutes: 2, AvgSpeed: 5, MinSpeed: 4, MaxSpeed: 6},
		},
		IdleEvents:         idle,
		FilteredIdleEvents: idle,
		Hourly: []statistic.HourStat{
			{Hour: 8, Samples: 60, AvgSpeed: 11.2, UptimePercent: 80, Production: 200},
			{Hour: 9, Samples: 60, AvgSpeed: 9.8, UptimePercent: 71, Production: 120},
		},
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	got := FileName("line-7.csv", "pdf", at)
	want := "Machine_Analytics_Report_line-7_20250309_140507.pdf"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := FileName("dir/a b.CSV", ".xlsx", at); got != "Machine_Analytics_Report_dir_a_b_20250309_140507.xlsx" {
		t.Fatalf("unexpected sanitized name %s", got)
	}
}

func TestSummaryEntries(t *testing.T) {
	summary := NewSummary(sampleAnalysis(), start)
	entries := summary.Entries()
	values := map[string]string{}
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	if values["Uptime"] != "62.4%" {
		t.Fatalf("expected full dataset uptime, got %q", values["Uptime"])
	}
	if values["Average Speed (when running)"] != "13.7 RPM" || values["Total Production"] != "2150.0" {
		t.Fatalf("expected full dataset speed and production, got %+v", entries)
	}
	if values["Long Idle Events (>= 10 min)"] != "4" {
		t.Fatalf("expected full dataset idle count, got %+v", entries)
	}
	if values["Window"] != "2025-03-01 08:00 .. 2025-03-01 09:59" {
		t.Fatalf("unexpected window %q", values["Window"])
	}
}

func TestIdleRowsDisplayFields(t *testing.T) {
	rows := IdleRows(sampleAnalysis().FilteredIdleEvents)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].StartDate != "2025-03-01" || rows[0].StartTime != "08:10:00" || rows[0].EndTime != "08:22:00" {
		t.Fatalf("unexpected display fields: %+v", rows[0])
	}
}

func TestWriteCSV(t *testing.T) {
	a := sampleAnalysis()

	var buf bytes.Buffer
	if err := WriteIdleEventsCSV(&buf, a.FilteredIdleEvents); err != nil {
		t.Fatalf("idle csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 || records[1][3] != "12" || records[1][8] != "08:10:00" {
		t.Fatalf("unexpected idle csv: %v", records)
	}

	buf.Reset()
	if err := WriteHourlyCSV(&buf, a.Hourly); err != nil {
		t.Fatalf("hourly csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "hour,samples,avg_speed") || !strings.Contains(buf.String(), "8,60,11.2") {
		t.Fatalf("unexpected hourly csv: %s", buf.String())
	}

	buf.Reset()
	if err := WriteEventsCSV(&buf, nil); err != nil {
		t.Fatalf("events csv: %v", err)
	}
	if strings.TrimSpace(buf.String()) != strings.Join(eventHeader, ",") {
		t.Fatalf("empty event list should write header only, got %q", buf.String())
	}
}

func TestBuildPDF(t *testing.T) {
	a := sampleAnalysis()
	data, err := BuildPDF(NewSummary(a, start), a)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestBuildXLSX(t *testing.T) {
	a := sampleAnalysis()
	data, err := BuildXLSX(NewSummary(a, start), a)
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if strings.Join(sheets, ",") != "summary,idle_events,low_speed_events,hourly" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	date, err := f.GetCellValue("idle_events", "B2")
	if err != nil || date != "2025-03-01" {
		t.Fatalf("unexpected idle date %q err=%v", date, err)
	}
	rows, err := f.GetRows("hourly")
	if err != nil || len(rows) != 3 {
		t.Fatalf("unexpected hourly rows %v err=%v", rows, err)
	}
}
