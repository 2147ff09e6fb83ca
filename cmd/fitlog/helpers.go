// ABOUTME: Shared parsing and formatting helpers for CLI commands.
// ABOUTME: Covers timestamps, dates, IDs, and column padding.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fitlog/internal/models"
)

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

// parseDay reads an optional YYYY-MM-DD flag value, defaulting to today.
func parseDay(s string) (models.Day, error) {
	if s == "" {
		return models.Today(), nil
	}
	d, err := models.ParseDay(s)
	if err != nil {
		return models.Day{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", s)
	}
	return d, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
