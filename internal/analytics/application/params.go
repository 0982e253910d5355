package application

import (
	"fmt"
	"math"
	"strconv"

	"machine-analytics/internal/analytics/domain/statistic"
	telemetry "machine-analytics/internal/telemetry/domain"
)

// DefaultIdleThresholdMinutes is the default minimum duration of a qualifying idle event.
const DefaultIdleThresholdMinutes = 10.0

// Params is every user-adjustable input of an analysis.
// A nil Window means the full data range.
type Params struct {
	MinSpeedRequirement  float64           `json:"min_speed_requirement" yaml:"min_speed_requirement"`
	IdleThresholdMinutes float64           `json:"idle_threshold_minutes" yaml:"idle_threshold_minutes"`
	Window               *statistic.Window `json:"window,omitempty" yaml:"window,omitempty"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		MinSpeedRequirement:  telemetry.DefaultMinSpeedRequirement,
		IdleThresholdMinutes: DefaultIdleThresholdMinutes,
	}
}

// Validate rejects non-finite thresholds and malformed windows.
func (p Params) Validate() error {
	if math.IsNaN(p.MinSpeedRequirement) || math.IsInf(p.MinSpeedRequirement, 0) {
		return fmt.Errorf("%w: min_speed_requirement must be finite", ErrInvalidParams)
	}
	if math.IsNaN(p.IdleThresholdMinutes) || math.IsInf(p.IdleThresholdMinutes, 0) {
		return fmt.Errorf("%w: idle_threshold_minutes must be finite", ErrInvalidParams)
	}
	if p.Window != nil {
		if err := p.Window.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	return nil
}

// Key renders every parameter; two Params with the same Key produce the same analysis.
func (p Params) Key() string {
	window := "full"
	if p.Window != nil {
		w := p.Window.Normalize()
		window = fmt.Sprintf("%s..%s@%02d-%02d", w.StartDate, w.EndDate, w.StartHour, w.EndHour)
	}
	return "min=" + strconv.FormatFloat(p.MinSpeedRequirement, 'g', -1, 64) +
		"|idle=" + strconv.FormatFloat(p.IdleThresholdMinutes, 'g', -1, 64) +
		"|window=" + window
}
