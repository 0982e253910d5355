package statistic

import (
	"math"
	"sort"

	telemetry "machine-analytics/internal/telemetry/domain"
)

const hourlyPrecision = 2

// HourStat is the rollup of one hour of day.
type HourStat struct {
	Hour          int     `json:"hour"`
	Samples       int     `json:"samples"`
	AvgSpeed      float64 `json:"avg_speed"`
	MaxSpeed      float64 `json:"max_speed"`
	MinSpeed      float64 `json:"min_speed"`
	UptimePercent float64 `json:"uptime_percent"`
	Production    float64 `json:"production"`
}

// HourlyRollup groups samples by hour of day, ascending by hour.
// Hours without samples are absent rather than zero-filled.
func HourlyRollup(samples []telemetry.ClassifiedSample) []HourStat {
	byHour := make(map[int][]telemetry.ClassifiedSample)
	for _, s := range samples {
		hour := s.Timestamp.Hour()
		byHour[hour] = append(byHour[hour], s)
	}

	stats := make([]HourStat, 0, len(byHour))
	for hour, group := range byHour {
		stats = append(stats, rollupHour(hour, group))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Hour < stats[j].Hour })
	return stats
}

func rollupHour(hour int, group []telemetry.ClassifiedSample) HourStat {
	stat := HourStat{
		Hour:     hour,
		Samples:  len(group),
		MinSpeed: group[0].Speed,
		MaxSpeed: group[0].Speed,
	}
	var speedSum float64
	var running int
	for _, s := range group {
		speedSum += s.Speed
		stat.MinSpeed = math.Min(stat.MinSpeed, s.Speed)
		stat.MaxSpeed = math.Max(stat.MaxSpeed, s.Speed)
		if s.IsRunning {
			running++
		}
	}
	n := float64(len(group))
	if len(group) > 1 {
		stat.Production = group[len(group)-1].Quantity - group[0].Quantity
	}

	stat.AvgSpeed = roundTo(speedSum/n, hourlyPrecision)
	stat.MinSpeed = roundTo(stat.MinSpeed, hourlyPrecision)
	stat.MaxSpeed = roundTo(stat.MaxSpeed, hourlyPrecision)
	stat.UptimePercent = roundTo(100*float64(running)/n, hourlyPrecision)
	stat.Production = roundTo(stat.Production, hourlyPrecision)
	return stat
}

func roundTo(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(value*pow) / pow
}
