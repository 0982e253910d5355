package statistic

import "errors"

var (
	// ErrInvalidHour is returned when an hour bound is outside 0-23.
	ErrInvalidHour = errors.New("statistic: hour must be within 0-23")
	// ErrInvalidDate is returned when a date cannot be parsed or is zero.
	ErrInvalidDate = errors.New("statistic: invalid date")
	// ErrUnknownSeriesView is returned for an unsupported chart view.
	ErrUnknownSeriesView = errors.New("statistic: unknown series view")
)
