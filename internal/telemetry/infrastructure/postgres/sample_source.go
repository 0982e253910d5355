package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	telemetry "machine-analytics/internal/telemetry/domain"
)

const defaultSampleTable = "machine_samples"

// SampleSource serves raw machine samples stored in Postgres.
// Every machine id is exposed as one file.
type SampleSource struct {
	db    *sql.DB
	table string
}

// NewSampleSource constructs a source with the default table name.
func NewSampleSource(db *sql.DB, opts ...SourceOption) *SampleSource {
	source := &SampleSource{db: db, table: defaultSampleTable}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

// SourceOption configures the sample source.
type SourceOption func(*SampleSource)

// WithTable overrides the default table name.
func WithTable(table string) SourceOption {
	return func(source *SampleSource) {
		if source != nil && table != "" {
			source.table = table
		}
	}
}

// List returns one file per machine id.
func (s *SampleSource) List(ctx context.Context) ([]telemetry.File, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sample source: nil db")
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT DISTINCT machine_id
FROM %s
ORDER BY machine_id ASC`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []telemetry.File
	for rows.Next() {
		var machineID string
		if err := rows.Scan(&machineID); err != nil {
			return nil, err
		}
		files = append(files, telemetry.File{ID: machineID, Name: machineID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// Open renders the machine's samples as a CSV stream, ordered by ts.
func (s *SampleSource) Open(ctx context.Context, name string) (telemetry.Dataset, error) {
	if s == nil || s.db == nil {
		return telemetry.Dataset{}, errors.New("sample source: nil db")
	}
	if name == "" {
		return telemetry.Dataset{}, telemetry.ErrEmptyFileName
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT ts, speed, quantity
FROM %s
WHERE machine_id = $1
ORDER BY ts ASC`, s.table), name)
	if err != nil {
		return telemetry.Dataset{}, err
	}
	defer rows.Close()

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"timestamp", "speed", "quantity"})
	count := 0
	for rows.Next() {
		var ts time.Time
		var speed, quantity sql.NullFloat64
		if err := rows.Scan(&ts, &speed, &quantity); err != nil {
			return telemetry.Dataset{}, err
		}
		if !speed.Valid || !quantity.Valid {
			continue
		}
		_ = writer.Write([]string{
			ts.Format(time.RFC3339Nano),
			strconv.FormatFloat(speed.Float64, 'f', -1, 64),
			strconv.FormatFloat(quantity.Float64, 'f', -1, 64),
		})
		count++
	}
	if err := rows.Err(); err != nil {
		return telemetry.Dataset{}, err
	}
	if count == 0 {
		return telemetry.Dataset{}, telemetry.ErrFileNotFound
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return telemetry.Dataset{}, err
	}
	return telemetry.Dataset{Name: name, Body: io.NopCloser(&buf)}, nil
}
