package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	telemetry "machine-analytics/internal/telemetry/domain"
)

func TestSampleSource_ListAndOpen(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	table := "machine_samples_it"
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS machine_samples_it (
	machine_id TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	speed DOUBLE PRECISION,
	quantity DOUBLE PRECISION
)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	_, _ = db.ExecContext(ctx, `DELETE FROM machine_samples_it WHERE machine_id = $1`, "extruder-it")

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, speed := range []float64{0, 5, 12} {
		if _, err := db.ExecContext(ctx, `
INSERT INTO machine_samples_it (machine_id, ts, speed, quantity) VALUES ($1, $2, $3, $4)`,
			"extruder-it", start.Add(time.Duration(i)*time.Minute), speed, float64(100+i)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	source := NewSampleSource(db, WithTable(table))
	files, err := source.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, f := range files {
		if f.Name == "extruder-it" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected extruder-it in %v", files)
	}

	dataset, err := source.Open(ctx, "extruder-it")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dataset.Body.Close()
	body, _ := io.ReadAll(dataset.Body)
	if lines := strings.Split(strings.TrimSpace(string(body)), "\n"); len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %q", body)
	}

	if _, err := source.Open(ctx, "missing-machine"); !errors.Is(err, telemetry.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
