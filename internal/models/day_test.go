// ABOUTME: Tests for the Day calendar type.
// ABOUTME: Covers determinism, arithmetic, ordering, and text encoding.
package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDayOfSameCalendarDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	early := time.Date(2026, 1, 15, 0, 0, 1, 0, loc)
	late := time.Date(2026, 1, 15, 23, 59, 59, 0, loc)

	if DayOf(early) != DayOf(late) {
		t.Errorf("DayOf(%v) != DayOf(%v)", early, late)
	}
	if got := DayOf(late).String(); got != "2026-01-15" {
		t.Errorf("String = %s, want 2026-01-15", got)
	}
}

func TestDayOfUsesOwnLocation(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, 1, 15, 23, 30, 0, 0, loc)

	if got := DayOf(at).String(); got != "2026-01-15" {
		t.Errorf("local day = %s, want 2026-01-15", got)
	}
	if got := DayOf(at.UTC()).String(); got != "2026-01-16" {
		t.Errorf("utc day = %s, want 2026-01-16", got)
	}
}

func TestDayAddDays(t *testing.T) {
	d := NewDay(2026, time.March, 1)

	if got := d.AddDays(-1).String(); got != "2026-02-28" {
		t.Errorf("AddDays(-1) = %s, want 2026-02-28", got)
	}
	if got := d.AddDays(31).String(); got != "2026-04-01" {
		t.Errorf("AddDays(31) = %s, want 2026-04-01", got)
	}
	if !d.AddDays(-1).Before(d) || !d.After(d.AddDays(-1)) {
		t.Error("expected ordering to follow calendar")
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-07-04")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.July || d.DayOfMonth() != 4 {
		t.Errorf("ParseDay = %v", d)
	}
	if _, err := ParseDay("07/04/2026"); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestDayJSON(t *testing.T) {
	type doc struct {
		Date Day `json:"date"`
	}
	in := doc{Date: NewDay(2026, time.December, 9)}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"date":"2026-12-09"}` {
		t.Errorf("Marshal = %s", data)
	}

	var out doc
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Date != in.Date {
		t.Errorf("round trip = %v, want %v", out.Date, in.Date)
	}

	if err := json.Unmarshal([]byte(`{"date":"tomorrow"}`), &out); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestDayStart(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	start := NewDay(2026, 5, 5).Start(loc)

	if start.Hour() != 0 || start.Location() != loc {
		t.Errorf("Start = %v", start)
	}
	if DayOf(start) != NewDay(2026, 5, 5) {
		t.Error("expected Start to stay on the same day")
	}
}
