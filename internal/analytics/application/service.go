package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"machine-analytics/internal/analytics/domain/statistic"
	"machine-analytics/internal/observability/metrics"
	telemetry "machine-analytics/internal/telemetry/domain"
	"machine-analytics/internal/telemetry/infrastructure/csvload"
)

// defaultMaxDatasetBytes bounds how much of a single dataset is read into memory.
const defaultMaxDatasetBytes = 256 << 20

// AnalysisService loads datasets from a source and analyzes them.
type AnalysisService struct {
	source   telemetry.Source
	engine   *Engine
	location *time.Location
	logger   *log.Logger
	maxBytes int64
}

// NewAnalysisService constructs the service. location applies to zone-less timestamps.
func NewAnalysisService(source telemetry.Source, engine *Engine, location *time.Location, logger *log.Logger) (*AnalysisService, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if engine == nil {
		engine = NewEngine(nil, logger)
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AnalysisService{
		source:   source,
		engine:   engine,
		location: location,
		logger:   logger,
		maxBytes: defaultMaxDatasetBytes,
	}, nil
}

// SetMaxDatasetBytes overrides the per-dataset read limit. Non-positive values are ignored.
func (s *AnalysisService) SetMaxDatasetBytes(n int64) {
	if n > 0 {
		s.maxBytes = n
	}
}

// ListFiles returns the files offered by the source.
func (s *AnalysisService) ListFiles(ctx context.Context) ([]telemetry.File, error) {
	files, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []telemetry.File{}
	}
	return files, nil
}

// Load reads and parses one dataset.
func (s *AnalysisService) Load(ctx context.Context, name string) (Input, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Input{}, telemetry.ErrEmptyFileName
	}
	dataset, err := s.source.Open(ctx, name)
	if err != nil {
		metrics.ObserveLoad(metrics.ResultError, 0)
		return Input{}, err
	}
	defer dataset.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(dataset.Body, s.maxBytes+1))
	if err != nil {
		metrics.ObserveLoad(metrics.ResultError, 0)
		return Input{}, fmt.Errorf("analytics: read %s: %w", name, err)
	}
	if int64(len(raw)) > s.maxBytes {
		metrics.ObserveLoad(metrics.ResultError, 0)
		return Input{}, fmt.Errorf("analytics: read %s: %w (limit %d bytes)", name, ErrDatasetTooLarge, s.maxBytes)
	}
	sum := sha256.Sum256(raw)

	result, err := csvload.Load(bytes.NewReader(raw), csvload.Options{Location: s.location})
	if err != nil {
		metrics.ObserveLoad(metrics.ResultError, result.DroppedRows)
		return Input{}, fmt.Errorf("analytics: parse %s: %w", name, err)
	}
	metrics.ObserveLoad(metrics.ResultSuccess, result.DroppedRows)
	if result.DroppedRows > 0 {
		s.logger.Printf("analytics: %s dropped %d of %d rows", name, result.DroppedRows, result.TotalRows)
	}
	return Input{
		Name:        dataset.Name,
		Digest:      hex.EncodeToString(sum[:]),
		Samples:     result.Samples,
		DroppedRows: result.DroppedRows,
	}, nil
}

// Analyze loads name and runs the engine with params.
func (s *AnalysisService) Analyze(ctx context.Context, name string, params Params) (*Analysis, error) {
	in, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.engine.Analyze(ctx, in, params)
}

// Series returns one chart view over the window of params.
func (s *AnalysisService) Series(ctx context.Context, name string, params Params, view statistic.SeriesView) ([]statistic.Point, error) {
	if !view.IsValid() {
		return nil, statistic.ErrUnknownSeriesView
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	in, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return statistic.Series(FilteredSamples(in, params), view)
}

// IsNotFound reports whether err means the requested dataset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, telemetry.ErrFileNotFound)
}

// IsTooLarge reports whether err means the dataset exceeded the read limit.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrDatasetTooLarge)
}

// IsBadInput reports whether err was caused by caller-supplied input.
func IsBadInput(err error) bool {
	return errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, telemetry.ErrEmptyFileName) ||
		errors.Is(err, statistic.ErrUnknownSeriesView) ||
		errors.Is(err, csvload.ErrEmptyInput) ||
		errors.Is(err, csvload.ErrMissingColumn) ||
		errors.Is(err, csvload.ErrNoSamples)
}
