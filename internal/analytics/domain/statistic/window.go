package statistic

import (
	"fmt"
	"time"

	"machine-analytics/internal/analytics/domain/segment"
	telemetry "machine-analytics/internal/telemetry/domain"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(parsed), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// At builds the instant at the given clock time on d.
func (d Date) At(hour, minute, second int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, second, 0, loc)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.At(0, 0, 0, time.UTC).Format(dateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD date. Empty text is the zero date.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window restricts samples to an inclusive date range and an inclusive hour-of-day range.
type Window struct {
	StartDate Date `json:"start_date" yaml:"start_date"`
	EndDate   Date `json:"end_date" yaml:"end_date"`
	StartHour int  `json:"start_hour" yaml:"start_hour"`
	EndHour   int  `json:"end_hour" yaml:"end_hour"`
}

// SingleDay builds a window covering one day.
func SingleDay(day Date, startHour, endHour int) Window {
	return Window{StartDate: day, EndDate: day, StartHour: startHour, EndHour: endHour}
}

// FullWindow covers every sample: first to last date, all hours.
func FullWindow(samples []telemetry.ClassifiedSample) Window {
	w := Window{StartHour: 0, EndHour: 23}
	if len(samples) == 0 {
		return w
	}
	w.StartDate = DateOf(samples[0].Timestamp)
	w.EndDate = DateOf(samples[len(samples)-1].Timestamp)
	return w.Normalize()
}

// Validate checks the hour bounds and that both dates are set.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
		return ErrInvalidHour
	}
	if w.StartDate.IsZero() || w.EndDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize orders reversed date and hour bounds.
func (w Window) Normalize() Window {
	if w.EndDate.Before(w.StartDate) {
		w.StartDate, w.EndDate = w.EndDate, w.StartDate
	}
	if w.EndHour < w.StartHour {
		w.StartHour, w.EndHour = w.EndHour, w.StartHour
	}
	return w
}

// Contains applies the per-sample date and hour predicates in t's own location.
func (w Window) Contains(t time.Time) bool {
	day := DateOf(t)
	if day.Before(w.StartDate) || w.EndDate.Before(day) {
		return false
	}
	hour := t.Hour()
	return hour >= w.StartHour && hour <= w.EndHour
}

// StartInstant is start_date at start_hour:00:00.
func (w Window) StartInstant(loc *time.Location) time.Time {
	return w.StartDate.At(w.StartHour, 0, 0, loc)
}

// EndInstant is end_date at end_hour:59:59.
func (w Window) EndInstant(loc *time.Location) time.Time {
	return w.EndDate.At(w.EndHour, 59, 59, loc)
}

// FilterSamples keeps the samples inside the window, preserving order.
func FilterSamples(samples []telemetry.ClassifiedSample, w Window) []telemetry.ClassifiedSample {
	w = w.Normalize()
	out := make([]telemetry.ClassifiedSample, 0, len(samples))
	for _, s := range samples {
		if w.Contains(s.Timestamp) {
			out = append(out, s)
		}
	}
	return out
}

// FilterEvents keeps the events fully contained between the window's start and end
// instants. Events straddling either bound are dropped, even when they overlap it.
func FilterEvents(events []segment.Event, w Window) []segment.Event {
	w = w.Normalize()
	out := make([]segment.Event, 0, len(events))
	for _, evt := range events {
		loc := evt.Start.Location()
		if evt.Start.Before(w.StartInstant(loc)) || evt.End.After(w.EndInstant(loc)) {
			continue
		}
		out = append(out, evt)
	}
	return out
}
