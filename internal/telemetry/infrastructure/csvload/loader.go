package csvload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	telemetry "machine-analytics/internal/telemetry/domain"
)

const (
	columnTimestamp = "timestamp"
	columnSpeed     = "speed"
	columnQuantity  = "quantity"
)

var (
	// ErrEmptyInput is returned when the stream has no header row.
	ErrEmptyInput = errors.New("csvload: empty input")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("csvload: missing required column")
	// ErrNoSamples is returned when no row survives parsing.
	ErrNoSamples = errors.New("csvload: no valid samples")
)

// Options controls parsing.
type Options struct {
	// Location is used for timestamps without zone information. Defaults to UTC.
	Location *time.Location
}

// Result is the outcome of a load.
type Result struct {
	Samples     []telemetry.Sample
	TotalRows   int
	DroppedRows int
}

// Load parses a CSV stream into samples sorted ascending by timestamp.
// Rows with an unparseable timestamp, speed or quantity are dropped and counted.
func Load(r io.Reader, opts Options) (Result, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrEmptyInput
	}
	if err != nil {
		return Result{}, fmt.Errorf("csvload: read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("csvload: read row %d: %w", result.TotalRows+1, err)
		}
		result.TotalRows++

		sample, ok := parseRow(record, index, loc)
		if !ok {
			result.DroppedRows++
			continue
		}
		result.Samples = append(result.Samples, sample)
	}

	if len(result.Samples) == 0 {
		return result, ErrNoSamples
	}
	sort.SliceStable(result.Samples, func(i, j int) bool {
		return result.Samples[i].Timestamp.Before(result.Samples[j].Timestamp)
	})
	return result, nil
}

// NormalizeColumn trims and lower-cases a header name.
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

type columns struct {
	timestamp int
	speed     int
	quantity  int
}

func columnIndex(header []string) (columns, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		key := NormalizeColumn(name)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}
	var idx columns
	for _, required := range []struct {
		name string
		dst  *int
	}{
		{columnTimestamp, &idx.timestamp},
		{columnSpeed, &idx.speed},
		{columnQuantity, &idx.quantity},
	} {
		pos, ok := positions[required.name]
		if !ok {
			return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, required.name)
		}
		*required.dst = pos
	}
	return idx, nil
}

func parseRow(record []string, idx columns, loc *time.Location) (telemetry.Sample, bool) {
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rawTS := field(idx.timestamp)
	if rawTS == "" {
		return telemetry.Sample{}, false
	}
	ts, err := dateparse.ParseIn(rawTS, loc)
	if err != nil {
		return telemetry.Sample{}, false
	}
	speed, ok := parseReal(field(idx.speed))
	if !ok || speed < 0 {
		return telemetry.Sample{}, false
	}
	quantity, ok := parseReal(field(idx.quantity))
	if !ok {
		return telemetry.Sample{}, false
	}
	return telemetry.Sample{Timestamp: ts, Speed: speed, Quantity: quantity}, true
}

// parseReal rejects NaN and infinities, which ParseFloat accepts.
func parseReal(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
