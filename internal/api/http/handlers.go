package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/statistic"
	"machine-analytics/internal/insight"
	"machine-analytics/internal/observability/metrics"
	"machine-analytics/internal/report"
	telemetry "machine-analytics/internal/telemetry/domain"
)

// Analyzer is the application surface used by the handlers.
type Analyzer interface {
	ListFiles(ctx context.Context) ([]telemetry.File, error)
	Analyze(ctx context.Context, name string, params application.Params) (*application.Analysis, error)
	Series(ctx context.Context, name string, params application.Params, view statistic.SeriesView) ([]statistic.Point, error)
}

// Insighter answers language questions about an analysis.
type Insighter interface {
	Analyze(ctx context.Context, scope insight.Scope, a *application.Analysis, question string) (insight.Answer, error)
}

// writeServiceError maps application errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *log.Logger, err error) {
	switch {
	case application.IsNotFound(err):
		http.Error(w, "file not found", http.StatusNotFound)
	case application.IsTooLarge(err):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case application.IsBadInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, "request timeout", http.StatusGatewayTimeout)
	default:
		if logger != nil {
			logger.Printf("api: %v", err)
		}
		http.Error(w, "analysis error", http.StatusInternalServerError)
	}
}

// writeJSON encodes into a buffer first; an encode failure becomes a 500.
func writeJSON(w http.ResponseWriter, logger *log.Logger, value any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(value); err != nil {
		if logger != nil {
			logger.Printf("api: encode response: %v", err)
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

// FilesHandler lists the files offered by the source.
type FilesHandler struct {
	svc    Analyzer
	logger *log.Logger
}

// NewFilesHandler constructs a FilesHandler.
func NewFilesHandler(svc Analyzer, logger *log.Logger) *FilesHandler {
	return &FilesHandler{svc: svc, logger: logger}
}

type filesResponse struct {
	Count int              `json:"count"`
	Files []telemetry.File `json:"files"`
}

// ServeHTTP handles GET /api/v1/files.
func (h *FilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, filesResponse{Count: len(files), Files: files})
}

// AnalysisHandler serves full analyses.
type AnalysisHandler struct {
	svc      Analyzer
	defaults application.Params
	logger   *log.Logger
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(svc Analyzer, defaults application.Params, logger *log.Logger) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, defaults: defaults, logger: logger}
}

// ServeHTTP handles GET /api/v1/analysis.
func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	analysis, ok := analyzeRequest(w, r, h.svc, h.defaults, h.logger)
	if !ok {
		return
	}
	writeJSON(w, h.logger, analysis)
}

// analyzeRequest parses file and params and runs the analysis, writing any error.
func analyzeRequest(w http.ResponseWriter, r *http.Request, svc Analyzer, defaults application.Params, logger *log.Logger) (*application.Analysis, bool) {
	file, err := fileQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	params, err := parseParams(r, defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	analysis, err := svc.Analyze(r.Context(), file, params)
	if err != nil {
		writeServiceError(w, logger, err)
		return nil, false
	}
	return analysis, true
}

// SeriesHandler serves chart series.
type SeriesHandler struct {
	svc      Analyzer
	defaults application.Params
	logger   *log.Logger
}

// NewSeriesHandler constructs a SeriesHandler.
func NewSeriesHandler(svc Analyzer, defaults application.Params, logger *log.Logger) *SeriesHandler {
	return &SeriesHandler{svc: svc, defaults: defaults, logger: logger}
}

type seriesResponse struct {
	File   string               `json:"file"`
	View   statistic.SeriesView `json:"view"`
	Points []statistic.Point    `json:"points"`
}

// ServeHTTP handles GET /api/v1/series.
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	file, err := fileQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	params, err := parseParams(r, h.defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view := statistic.SeriesView(r.URL.Query().Get("view"))
	if view == "" {
		view = statistic.SeriesTotal
	}
	points, err := h.svc.Series(r.Context(), file, params, view)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, seriesResponse{File: file, View: view, Points: points})
}

// ExportKind selects a CSV export table.
type ExportKind string

const (
	ExportIdleEvents     ExportKind = "idle-events"
	ExportLowSpeedEvents ExportKind = "low-speed-events"
	ExportHourly         ExportKind = "hourly"
)

// ExportCSVHandler serves event and hourly CSV exports.
type ExportCSVHandler struct {
	svc      Analyzer
	kind     ExportKind
	defaults application.Params
	logger   *log.Logger
}

// NewExportCSVHandler constructs an ExportCSVHandler.
func NewExportCSVHandler(svc Analyzer, kind ExportKind, defaults application.Params, logger *log.Logger) *ExportCSVHandler {
	return &ExportCSVHandler{svc: svc, kind: kind, defaults: defaults, logger: logger}
}

// ServeHTTP handles GET /api/v1/exports/{kind}.csv.
func (h *ExportCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	start := time.Now()
	analysis, ok := analyzeRequest(w, r, h.svc, h.defaults, h.logger)
	if !ok {
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(start))
		return
	}

	var buf bytes.Buffer
	var err error
	switch h.kind {
	case ExportIdleEvents:
		err = report.WriteIdleEventsCSV(&buf, analysis.FilteredIdleEvents)
	case ExportLowSpeedEvents:
		err = report.WriteEventsCSV(&buf, analysis.LowSpeedEvents)
	case ExportHourly:
		err = report.WriteHourlyCSV(&buf, analysis.Hourly)
	default:
		err = fmt.Errorf("unknown export %q", h.kind)
	}
	if err != nil {
		metrics.ObserveExport("csv", metrics.ResultError, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(h.kind)+".csv"))
	_, _ = io.Copy(w, &buf)
}

// ReportHandler serves PDF and XLSX reports.
type ReportHandler struct {
	svc      Analyzer
	defaults application.Params
	logger   *log.Logger
	now      func() time.Time
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc Analyzer, defaults application.Params, logger *log.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, defaults: defaults, logger: logger, now: time.Now}
}

// ServeHTTP handles GET /api/v1/reports/export.{pdf,xlsx}.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	var format string
	switch {
	case strings.HasSuffix(r.URL.Path, ".pdf"):
		format = "pdf"
	case strings.HasSuffix(r.URL.Path, ".xlsx"):
		format = "xlsx"
	default:
		http.Error(w, "format must be pdf or xlsx", http.StatusBadRequest)
		return
	}

	start := time.Now()
	analysis, ok := analyzeRequest(w, r, h.svc, h.defaults, h.logger)
	if !ok {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		return
	}
	generatedAt := h.now()
	summary := report.NewSummary(analysis, generatedAt)

	var payload []byte
	var err error
	var contentType string
	switch format {
	case "pdf":
		payload, err = report.BuildPDF(summary, analysis)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = report.BuildXLSX(summary, analysis)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		if h.logger != nil {
			h.logger.Printf("api: export %s: %v", format, err)
		}
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(analysis.File, format, generatedAt)))
	_, _ = w.Write(payload)
}

// InsightsHandler serves language insights about an analysis.
type InsightsHandler struct {
	svc      Analyzer
	client   Insighter
	defaults application.Params
	logger   *log.Logger
}

// NewInsightsHandler constructs an InsightsHandler. client may be nil when no provider is configured.
func NewInsightsHandler(svc Analyzer, client Insighter, defaults application.Params, logger *log.Logger) *InsightsHandler {
	return &InsightsHandler{svc: svc, client: client, defaults: defaults, logger: logger}
}

type insightRequest struct {
	Scope    insight.Scope `json:"scope"`
	Question string        `json:"question"`
}

// ServeHTTP handles POST /api/v1/insights?file=...; the body selects scope and question.
func (h *InsightsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.svc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	if h.client == nil {
		http.Error(w, "insight provider not configured", http.StatusServiceUnavailable)
		return
	}

	var req insightRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Scope == "" {
		req.Scope = insight.ScopeFull
	}
	if !req.Scope.IsValid() {
		http.Error(w, insight.ErrUnknownScope.Error(), http.StatusBadRequest)
		return
	}
	if req.Scope == insight.ScopeAsk && strings.TrimSpace(req.Question) == "" {
		http.Error(w, insight.ErrEmptyQuestion.Error(), http.StatusBadRequest)
		return
	}

	analysis, ok := analyzeRequest(w, r, h.svc, h.defaults, h.logger)
	if !ok {
		return
	}
	answer, err := h.client.Analyze(r.Context(), req.Scope, analysis, req.Question)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("api: insight %s: %v", req.Scope, err)
		}
		if errors.Is(err, insight.ErrUnavailable) {
			http.Error(w, "insight provider unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "insight error", http.StatusBadGateway)
		return
	}
	writeJSON(w, h.logger, answer)
}

// MachinesHandler serves the user to machine mapping.
type MachinesHandler struct {
	machines map[string][]string
}

// NewMachinesHandler constructs a MachinesHandler.
func NewMachinesHandler(machines map[string][]string) *MachinesHandler {
	return &MachinesHandler{machines: machines}
}

type machinesResponse struct {
	User     string   `json:"user"`
	Machines []string `json:"machines"`
}

// ServeHTTP handles GET /api/v1/users/{user}/machines.
func (h *MachinesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/users/")
	user, rest, found := strings.Cut(path, "/")
	if !found || rest != "machines" || user == "" {
		http.NotFound(w, r)
		return
	}
	machines, ok := h.machines[user]
	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	out := append([]string(nil), machines...)
	sort.Strings(out)
	writeJSON(w, nil, machinesResponse{User: user, Machines: out})
}
