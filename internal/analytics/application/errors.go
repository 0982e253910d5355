package application

import "errors"

var (
	// ErrInvalidParams is returned when analysis parameters are malformed.
	ErrInvalidParams = errors.New("analytics: invalid params")
	// ErrNilSource is returned when the service has no file source.
	ErrNilSource = errors.New("analytics: nil source")
	// ErrDatasetTooLarge is returned when a dataset is larger than the read limit.
	ErrDatasetTooLarge = errors.New("analytics: dataset too large")
)
