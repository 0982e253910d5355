package telemetry

import "errors"

var (
	// ErrFileNotFound is returned when a source has no file with the requested name.
	ErrFileNotFound = errors.New("telemetry: file not found")
	// ErrEmptyFileName is returned when an empty file name is requested.
	ErrEmptyFileName = errors.New("telemetry: empty file name")
)
