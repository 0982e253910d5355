package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	telemetry "machine-analytics/internal/telemetry/domain"
)

// Source serves the CSV files of a local directory.
type Source struct {
	dir string
}

// NewSource constructs a directory source.
func NewSource(dir string) (*Source, error) {
	if dir == "" {
		return nil, errors.New("filesystem source: empty dir")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("filesystem source: not a directory")
	}
	return &Source{dir: dir}, nil
}

// List returns the CSV files sorted by name.
func (s *Source) List(ctx context.Context) ([]telemetry.File, error) {
	_ = ctx
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	files := make([]telemetry.File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		files = append(files, telemetry.File{ID: entry.Name(), Name: entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Open opens one CSV file of the directory. Names containing a path are rejected.
func (s *Source) Open(ctx context.Context, name string) (telemetry.Dataset, error) {
	_ = ctx
	if name == "" {
		return telemetry.Dataset{}, telemetry.ErrEmptyFileName
	}
	if filepath.Base(name) != name || name == "." || name == ".." {
		return telemetry.Dataset{}, telemetry.ErrFileNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return telemetry.Dataset{}, telemetry.ErrFileNotFound
	}
	if err != nil {
		return telemetry.Dataset{}, err
	}
	return telemetry.Dataset{Name: name, Body: f}, nil
}
