package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/statistic"
	"machine-analytics/internal/report"
	"machine-analytics/internal/telemetry/infrastructure/filesystem"
)

type config struct {
	file        string
	minSpeed    float64
	idleMinutes float64
	startDate   string
	endDate     string
	startHour   int
	endHour     int
	location    string
	pdfOut      string
	xlsxOut     string
}

func main() {
	cfg := parseConfig()
	if cfg.file == "" {
		log.Fatal("file is required")
	}
	loc, err := time.LoadLocation(cfg.location)
	if err != nil {
		log.Fatalf("invalid tz: %v", err)
	}
	params, err := buildParams(cfg)
	if err != nil {
		log.Fatalf("invalid params: %v", err)
	}

	source, err := filesystem.NewSource(filepath.Dir(cfg.file))
	if err != nil {
		log.Fatalf("source error: %v", err)
	}
	svc, err := application.NewAnalysisService(source, nil, loc, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		log.Fatalf("service error: %v", err)
	}
	analysis, err := svc.Analyze(context.Background(), filepath.Base(cfg.file), params)
	if err != nil {
		log.Fatalf("analyze error: %v", err)
	}

	summary := report.NewSummary(analysis, time.Now())
	if cfg.pdfOut != "" {
		data, err := report.BuildPDF(summary, analysis)
		if err != nil {
			log.Fatalf("pdf error: %v", err)
		}
		if err := os.WriteFile(cfg.pdfOut, data, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
	}
	if cfg.xlsxOut != "" {
		data, err := report.BuildXLSX(summary, analysis)
		if err != nil {
			log.Fatalf("xlsx error: %v", err)
		}
		if err := os.WriteFile(cfg.xlsxOut, data, 0o644); err != nil {
			log.Fatalf("write xlsx: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis); err != nil {
		log.Fatalf("encode error: %v", err)
	}
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.file, "file", "", "telemetry CSV file")
	flag.Float64Var(&cfg.minSpeed, "min-speed", envOrFloat("MIN_SPEED_REQUIREMENT", 10), "minimum speed requirement (RPM)")
	flag.Float64Var(&cfg.idleMinutes, "idle-minutes", envOrFloat("IDLE_THRESHOLD_MINUTES", 10), "minimum qualifying idle duration (minutes)")
	flag.StringVar(&cfg.startDate, "start-date", "", "window start date (YYYY-MM-DD)")
	flag.StringVar(&cfg.endDate, "end-date", "", "window end date (YYYY-MM-DD), defaults to start-date")
	flag.IntVar(&cfg.startHour, "start-hour", 0, "window start hour (0-23)")
	flag.IntVar(&cfg.endHour, "end-hour", 23, "window end hour (0-23)")
	flag.StringVar(&cfg.location, "tz", envOrDefault("TIMESTAMP_LOCATION", "UTC"), "location for timestamps without zone")
	flag.StringVar(&cfg.pdfOut, "pdf", "", "write a PDF report to this path")
	flag.StringVar(&cfg.xlsxOut, "xlsx", "", "write an XLSX report to this path")
	flag.Parse()
	return cfg
}

func buildParams(cfg config) (application.Params, error) {
	params := application.Params{MinSpeedRequirement: cfg.minSpeed, IdleThresholdMinutes: cfg.idleMinutes}
	if cfg.startDate == "" && cfg.endDate == "" {
		return params, params.Validate()
	}
	start, end := cfg.startDate, cfg.endDate
	if start == "" {
		start = end
	}
	if end == "" {
		end = start
	}
	startDate, err := statistic.ParseDate(start)
	if err != nil {
		return params, fmt.Errorf("start-date: %w", err)
	}
	endDate, err := statistic.ParseDate(end)
	if err != nil {
		return params, fmt.Errorf("end-date: %w", err)
	}
	params.Window = &statistic.Window{StartDate: startDate, EndDate: endDate, StartHour: cfg.startHour, EndHour: cfg.endHour}
	return params, params.Validate()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
