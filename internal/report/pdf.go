package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"machine-analytics/internal/analytics/application"
)

// BuildPDF renders a report PDF for an analysis.
func BuildPDF(summary Summary, a *application.Analysis) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "IoT Machine Analytics Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range summary.Entries() {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s", entry.Key, entry.Value))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Idle Events")
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Duration (min)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Avg Speed", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range IdleRows(a.FilteredIdleEvents) {
		pdf.CellFormat(30, 6, row.StartDate, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, row.StartTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, row.EndTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", row.DurationMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", row.AvgSpeed), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Hourly Performance")
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 6, "Hour", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Avg Speed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Uptime (%)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Production", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, h := range a.Hourly {
		pdf.CellFormat(20, 6, fmt.Sprintf("%02d", h.Hour), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", h.AvgSpeed), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", h.UptimePercent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", h.Production), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
