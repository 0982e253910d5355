package apihttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/domain/statistic"
)

var errHoursWithoutDate = errors.New("start_date is required when start_hour or end_hour is set")

// parseParams reads analysis parameters from the query string, falling back to defaults.
func parseParams(r *http.Request, defaults application.Params) (application.Params, error) {
	q := r.URL.Query()
	params := defaults
	params.Window = nil

	var err error
	if params.MinSpeedRequirement, err = floatQuery(q.Get("min_speed"), defaults.MinSpeedRequirement, "min_speed"); err != nil {
		return application.Params{}, err
	}
	if params.IdleThresholdMinutes, err = floatQuery(q.Get("idle_minutes"), defaults.IdleThresholdMinutes, "idle_minutes"); err != nil {
		return application.Params{}, err
	}

	rawStart := strings.TrimSpace(q.Get("start_date"))
	rawEnd := strings.TrimSpace(q.Get("end_date"))
	rawStartHour := strings.TrimSpace(q.Get("start_hour"))
	rawEndHour := strings.TrimSpace(q.Get("end_hour"))
	if rawStart == "" && rawEnd == "" {
		if rawStartHour != "" || rawEndHour != "" {
			return application.Params{}, errHoursWithoutDate
		}
		return params, nil
	}
	if rawStart == "" {
		rawStart = rawEnd
	}
	if rawEnd == "" {
		rawEnd = rawStart
	}

	window := statistic.Window{StartHour: 0, EndHour: 23}
	if window.StartDate, err = statistic.ParseDate(rawStart); err != nil {
		return application.Params{}, fmt.Errorf("invalid start_date: %w", err)
	}
	if window.EndDate, err = statistic.ParseDate(rawEnd); err != nil {
		return application.Params{}, fmt.Errorf("invalid end_date: %w", err)
	}
	if window.StartHour, err = intQuery(rawStartHour, 0, "start_hour"); err != nil {
		return application.Params{}, err
	}
	if window.EndHour, err = intQuery(rawEndHour, 23, "end_hour"); err != nil {
		return application.Params{}, err
	}
	params.Window = &window
	return params, params.Validate()
}

func fileQuery(r *http.Request) (string, error) {
	file := strings.TrimSpace(r.URL.Query().Get("file"))
	if file == "" {
		return "", errors.New("file is required")
	}
	return file, nil
}

func floatQuery(raw string, fallback float64, key string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return value, nil
}

func intQuery(raw string, fallback int, key string) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return value, nil
}
