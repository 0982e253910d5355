package filesystem

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	telemetry "machine-analytics/internal/telemetry/domain"
)

func TestSourceListAndOpen(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "b.csv"), "timestamp,speed,quantity\n")
	mustWrite(t, filepath.Join(dir, "A.CSV"), "timestamp,speed,quantity\n")
	mustWrite(t, filepath.Join(dir, "notes.txt"), "ignore me")
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	source, err := NewSource(dir)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	files, err := source.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].Name != "A.CSV" || files[1].Name != "b.csv" {
		t.Fatalf("unexpected files %+v", files)
	}

	dataset, err := source.Open(context.Background(), "b.csv")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dataset.Body.Close()
	body, _ := io.ReadAll(dataset.Body)
	if string(body) != "timestamp,speed,quantity\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSourceOpenRejectsUnknownAndTraversal(t *testing.T) {
	source, err := NewSource(t.TempDir())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	for _, name := range []string{"missing.csv", "../etc/passwd", "..", "sub/x.csv"} {
		if _, err := source.Open(context.Background(), name); !errors.Is(err, telemetry.ErrFileNotFound) {
			t.Fatalf("%s: expected ErrFileNotFound, got %v", name, err)
		}
	}
	if _, err := source.Open(context.Background(), ""); !errors.Is(err, telemetry.ErrEmptyFileName) {
		t.Fatalf("expected ErrEmptyFileName, got %v", err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
