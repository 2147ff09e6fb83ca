// ABOUTME: Day is a civil calendar date used to key day buckets.
// ABOUTME: Encodes as YYYY-MM-DD in JSON, YAML, and file names.
package models

import (
	"fmt"
	"time"
)

// DayLayout is the fixed, zero-padded layout used for day keys and file names.
const DayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day and no location.
// The zero Day is not a valid date; use IsZero to check for it.
type Day struct {
	year  int
	month time.Month
	day   int
}

// DayOf returns the calendar day of t, read in t's own location.
// Two instants on the same calendar day always yield the same Day.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{year: y, month: m, day: d}
}

// NewDay builds a Day, normalizing out-of-range values the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// Today returns the current local calendar day.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Year returns the year of d.
func (d Day) Year() int { return d.year }

// Month returns the month of d.
func (d Day) Month() time.Month { return d.month }

// DayOfMonth returns the day of the month of d.
func (d Day) DayOfMonth() int { return d.day }

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

// String returns d as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// Start returns midnight at the beginning of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return NewDay(d.year, d.month, d.day+n)
}

// Before reports whether d is earlier than o.
func (d Day) Before(o Day) bool {
	if d.year != o.year {
		return d.year < o.year
	}
	if d.month != o.month {
		return d.month < o.month
	}
	return d.day < o.day
}

// After reports whether d is later than o.
func (d Day) After(o Day) bool {
	return o.Before(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	t, err := time.Parse(DayLayout, string(b))
	if err != nil {
		return err
	}
	*d = DayOf(t)
	return nil
}
