package statistic

import (
	"math"
	"time"

	telemetry "machine-analytics/internal/telemetry/domain"
)

// SeriesView names a chart projection of the sample window.
type SeriesView string

const (
	SeriesTotal          SeriesView = "total"
	SeriesRunning        SeriesView = "running"
	SeriesIdle           SeriesView = "idle"
	SeriesLowSpeed       SeriesView = "low_speed"
	SeriesProduction     SeriesView = "production"
	SeriesProductionRate SeriesView = "production_rate"
)

// Point is one value of a chart series.
type Point struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// IsValid checks if the view is supported.
func (v SeriesView) IsValid() bool {
	switch v {
	case SeriesTotal, SeriesRunning, SeriesIdle, SeriesLowSpeed, SeriesProduction, SeriesProductionRate:
		return true
	default:
		return false
	}
}

// Series projects samples for the given view.
func Series(samples []telemetry.ClassifiedSample, view SeriesView) ([]Point, error) {
	if !view.IsValid() {
		return nil, ErrUnknownSeriesView
	}
	rates := ProductionRates(samples)
	points := make([]Point, 0, len(samples))
	for i, s := range samples {
		switch view {
		case SeriesTotal:
		case SeriesRunning:
			if !s.IsRunning {
				continue
			}
		case SeriesIdle:
			if !s.IsIdle {
				continue
			}
		case SeriesLowSpeed:
			if !s.IsLowSpeed {
				continue
			}
		case SeriesProduction:
			points = append(points, Point{At: s.Timestamp, Value: s.Quantity})
			continue
		case SeriesProductionRate:
			points = append(points, Point{At: s.Timestamp, Value: rates[i]})
			continue
		}
		points = append(points, Point{At: s.Timestamp, Value: s.Speed})
	}
	return points, nil
}

// ProductionRates is the quantity difference to the previous sample; the first is 0.
func ProductionRates(samples []telemetry.ClassifiedSample) []float64 {
	rates := make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		rates[i] = samples[i].Quantity - samples[i-1].Quantity
	}
	return rates
}

// SpeedProductionCorrelation is the Pearson correlation of speed and production rate.
// It is 0 when undefined.
func SpeedProductionCorrelation(samples []telemetry.ClassifiedSample) float64 {
	if len(samples) < 2 {
		return 0
	}
	rates := ProductionRates(samples)
	n := float64(len(samples))

	var meanSpeed, meanRate float64
	for i, s := range samples {
		meanSpeed += s.Speed
		meanRate += rates[i]
	}
	meanSpeed /= n
	meanRate /= n

	var cov, varSpeed, varRate float64
	for i, s := range samples {
		ds := s.Speed - meanSpeed
		dr := rates[i] - meanRate
		cov += ds * dr
		varSpeed += ds * ds
		varRate += dr * dr
	}
	den := math.Sqrt(varSpeed * varRate)
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return cov / den
}
