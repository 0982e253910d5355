package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"machine-analytics/internal/analytics/domain/statistic"
	telemetry "machine-analytics/internal/telemetry/domain"
)

const scenarioCSV = `timestamp,speed,quantity
2025-03-01 08:00:00,0,100
2025-03-01 08:01:00,0,100
2025-03-01 08:02:00,0,100
2025-03-01 08:03:00,5,105
2025-03-01 08:04:00,5,110
2025-03-01 08:05:00,12,115
2025-03-01 08:06:00,12,122
2025-03-01 08:07:00,3,125
2025-03-01 08:08:00,0,127
2025-03-01 08:09:00,0,127
`

type stubSource struct {
	mu    sync.Mutex
	files map[string]string
	opens int
}

func (s *stubSource) List(ctx context.Context) ([]telemetry.File, error) {
	_ = ctx
	var files []telemetry.File
	for name := range s.files {
		files = append(files, telemetry.File{ID: name, Name: name})
	}
	return files, nil
}

func (s *stubSource) Open(ctx context.Context, name string) (telemetry.Dataset, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.files[name]
	if !ok {
		return telemetry.Dataset{}, telemetry.ErrFileNotFound
	}
	s.opens++
	return telemetry.Dataset{Name: name, Body: io.NopCloser(strings.NewReader(body))}, nil
}

type countingCache struct {
	mu   sync.Mutex
	data map[string]*Analysis
	sets int
}

func (c *countingCache) Get(ctx context.Context, key string) (*Analysis, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.data[key]
	return a, ok, nil
}

func (c *countingCache) Set(ctx context.Context, key string, analysis *Analysis) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = analysis
	c.sets++
	return nil
}

func newService(t *testing.T, cache Cache) (*AnalysisService, *stubSource) {
	t.Helper()
	source := &stubSource{files: map[string]string{"m1.csv": scenarioCSV}}
	svc, err := NewAnalysisService(source, NewEngine(cache, nil), time.UTC, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, source
}

func scenarioParams() Params {
	return Params{MinSpeedRequirement: 10, IdleThresholdMinutes: 3}
}

func TestAnalyzeScenario(t *testing.T) {
	svc, _ := newService(t, nil)
	analysis, err := svc.Analyze(context.Background(), "m1.csv", scenarioParams())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.SampleCount != 10 || analysis.FilteredSampleCount != 10 {
		t.Fatalf("unexpected counts: %d/%d", analysis.SampleCount, analysis.FilteredSampleCount)
	}
	if len(analysis.IdleEvents) != 0 {
		t.Fatalf("expected no qualifying idle events, got %d", len(analysis.IdleEvents))
	}
	if len(analysis.LowSpeedEvents) != 2 {
		t.Fatalf("expected 2 low speed events, got %d", len(analysis.LowSpeedEvents))
	}
	if analysis.LowSpeedEvents[0].DurationMinutes != 1 || analysis.LowSpeedEvents[1].DurationMinutes != 0 {
		t.Fatalf("unexpected low speed durations: %+v", analysis.LowSpeedEvents)
	}
	if analysis.FullKPI.TotalProduction != 27 {
		t.Fatalf("expected production 27, got %v", analysis.FullKPI.TotalProduction)
	}
	if analysis.FullKPI.UptimePercent != 50 {
		t.Fatalf("expected uptime 50, got %v", analysis.FullKPI.UptimePercent)
	}
	if analysis.FullKPI.QualifyingIdleEventCount != 0 {
		t.Fatalf("expected 0 qualifying events, got %d", analysis.FullKPI.QualifyingIdleEventCount)
	}
	if analysis.FullKPI != analysis.FilteredKPI {
		t.Fatalf("full window should equal filtered window: %+v vs %+v", analysis.FullKPI, analysis.FilteredKPI)
	}
}

func TestAnalyzeIsByteIdentical(t *testing.T) {
	svc, _ := newService(t, nil)
	params := scenarioParams()
	params.IdleThresholdMinutes = 1

	first, err := svc.Analyze(context.Background(), "m1.csv", params)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := svc.Analyze(context.Background(), "m1.csv", params)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("analysis not idempotent:\n%s\n%s", a, b)
	}
}

func TestAnalyzeWindowExcludesPartialIdleEvent(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("timestamp,speed,quantity\n")
	start := time.Date(2025, 3, 1, 7, 50, 0, 0, time.UTC)
	for i := 0; i <= 20; i++ {
		speed := "15"
		if i >= 8 && i <= 12 {
			speed = "0"
		}
		sb.WriteString(start.Add(time.Duration(i)*time.Minute).Format("2006-01-02 15:04:05") + "," + speed + ",1\n")
	}
	source := &stubSource{files: map[string]string{"m2.csv": sb.String()}}
	svc, err := NewAnalysisService(source, nil, time.UTC, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	day := statistic.DateOf(start)
	window := statistic.SingleDay(day, 7, 7)
	params := Params{MinSpeedRequirement: 10, IdleThresholdMinutes: 2, Window: &window}
	analysis, err := svc.Analyze(context.Background(), "m2.csv", params)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(analysis.IdleEvents) != 1 {
		t.Fatalf("expected 1 idle event in full data, got %d", len(analysis.IdleEvents))
	}
	if len(analysis.FilteredIdleEvents) != 0 {
		t.Fatalf("idle event crossing the window end must be excluded, got %+v", analysis.FilteredIdleEvents)
	}
	if analysis.FilteredKPI.QualifyingIdleEventCount != 0 {
		t.Fatalf("expected filtered count 0, got %d", analysis.FilteredKPI.QualifyingIdleEventCount)
	}
	if analysis.FilteredSampleCount != 10 {
		t.Fatalf("expected 10 samples in hour 7, got %d", analysis.FilteredSampleCount)
	}
}

func TestEngineCachesByFullKey(t *testing.T) {
	cache := &countingCache{data: map[string]*Analysis{}}
	svc, _ := newService(t, cache)
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "m1.csv", scenarioParams()); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, err := svc.Analyze(ctx, "m1.csv", scenarioParams()); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache fill, got %d", cache.sets)
	}

	changed := scenarioParams()
	changed.IdleThresholdMinutes = 1
	analysis, err := svc.Analyze(ctx, "m1.csv", changed)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if cache.sets != 2 {
		t.Fatalf("changed params must miss the cache, sets=%d", cache.sets)
	}
	if len(analysis.IdleEvents) != 2 {
		t.Fatalf("expected 2 idle events at threshold 1, got %d", len(analysis.IdleEvents))
	}
}

func TestCacheKeyCoversWindow(t *testing.T) {
	in := Input{Name: "m1.csv", Digest: "abc"}
	a := statistic.SingleDay(statistic.Date{Year: 2025, Month: 3, Day: 1}, 8, 10)
	b := statistic.SingleDay(statistic.Date{Year: 2025, Month: 3, Day: 1}, 8, 11)
	pa := Params{MinSpeedRequirement: 10, IdleThresholdMinutes: 10, Window: &a}
	pb := Params{MinSpeedRequirement: 10, IdleThresholdMinutes: 10, Window: &b}
	if CacheKey(in, pa) == CacheKey(in, pb) {
		t.Fatalf("window must be part of the cache key")
	}
	full := Params{MinSpeedRequirement: 10, IdleThresholdMinutes: 10}
	if CacheKey(in, full) == CacheKey(in, pa) {
		t.Fatalf("full and windowed params must differ")
	}
	other := in
	other.Digest = "def"
	if CacheKey(in, full) == CacheKey(other, full) {
		t.Fatalf("content digest must be part of the cache key")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, "missing.csv", DefaultParams()); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Analyze(ctx, " ", DefaultParams()); !errors.Is(err, telemetry.ErrEmptyFileName) {
		t.Fatalf("expected empty file name, got %v", err)
	}
	bad := statistic.Window{StartHour: 25, EndHour: 3}
	params := DefaultParams()
	params.Window = &bad
	if _, err := svc.Analyze(ctx, "m1.csv", params); !IsBadInput(err) {
		t.Fatalf("expected bad input, got %v", err)
	}
}

func TestLoadRejectsDatasetOverLimit(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	svc.SetMaxDatasetBytes(int64(len(scenarioCSV)) - 1)
	_, err := svc.Analyze(ctx, "m1.csv", scenarioParams())
	if !IsTooLarge(err) || !errors.Is(err, ErrDatasetTooLarge) {
		t.Fatalf("expected dataset too large, got %v", err)
	}

	svc.SetMaxDatasetBytes(int64(len(scenarioCSV)))
	in, err := svc.Load(ctx, "m1.csv")
	if err != nil {
		t.Fatalf("load at limit: %v", err)
	}
	if len(in.Samples) != 10 {
		t.Fatalf("expected 10 samples at limit, got %d", len(in.Samples))
	}
}

func TestAnalyzeNonFiniteRowsAreDropped(t *testing.T) {
	svc, source := newService(t, nil)
	source.files["nan.csv"] = scenarioCSV +
		"2025-03-01 08:10:00,NaN,127\n" +
		"2025-03-01 08:11:00,-Inf,127\n" +
		"2025-03-01 08:12:00,4,Inf\n"

	analysis, err := svc.Analyze(context.Background(), "nan.csv", scenarioParams())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.SampleCount != 10 || analysis.DroppedRows != 3 {
		t.Fatalf("expected 10 samples with 3 dropped, got %d/%d", analysis.SampleCount, analysis.DroppedRows)
	}
	if _, err := json.Marshal(analysis); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestSeriesViews(t *testing.T) {
	svc, _ := newService(t, nil)
	points, err := svc.Series(context.Background(), "m1.csv", scenarioParams(), statistic.SeriesIdle)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 idle points, got %d", len(points))
	}
	if _, err := svc.Series(context.Background(), "m1.csv", scenarioParams(), statistic.SeriesView("bogus")); !errors.Is(err, statistic.ErrUnknownSeriesView) {
		t.Fatalf("expected unknown view, got %v", err)
	}
}

func TestListFilesNeverNil(t *testing.T) {
	svc, err := NewAnalysisService(&stubSource{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	files, err := svc.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", files)
	}
}
