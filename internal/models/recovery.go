// ABOUTME: RecoveryLog model plus recovery goal and totals.
// ABOUTME: Captures sleep, soreness, resting heart rate, and HRV for a day.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RecoveryLog is one recovery check-in.
type RecoveryLog struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	SleepHours float64   `json:"sleep_hours" yaml:"sleep_hours"`
	Soreness   int       `json:"soreness" yaml:"soreness"`
	RestingHR  int       `json:"resting_hr,omitempty" yaml:"resting_hr,omitempty"`
	HRVMs      float64   `json:"hrv_ms,omitempty" yaml:"hrv_ms,omitempty"`
	Notes      string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// MaxSoreness is the top of the soreness scale.
const MaxSoreness = 10

// NewRecoveryLog creates a RecoveryLog with generated UUID and current timestamp.
// Soreness is clamped to 0..MaxSoreness.
func NewRecoveryLog(sleepHours float64, soreness int) *RecoveryLog {
	if soreness < 0 {
		soreness = 0
	}
	if soreness > MaxSoreness {
		soreness = MaxSoreness
	}
	return &RecoveryLog{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		SleepHours: sleepHours,
		Soreness:   soreness,
	}
}

// RecordID returns the log's identifier.
func (r RecoveryLog) RecordID() uuid.UUID {
	return r.ID
}

// WithHeart sets resting heart rate and HRV.
func (r *RecoveryLog) WithHeart(restingHR int, hrvMs float64) *RecoveryLog {
	r.RestingHR = restingHR
	r.HRVMs = hrvMs
	return r
}

// WithNotes sets notes on the log.
func (r *RecoveryLog) WithNotes(notes string) *RecoveryLog {
	r.Notes = notes
	return r
}

// RecoveryGoal is the day-scoped recovery target.
type RecoveryGoal struct {
	SleepHours float64 `json:"sleep_hours" yaml:"sleep_hours"`
}

// DefaultRecoveryGoal returns the goal used for days with no stored goal.
func DefaultRecoveryGoal() RecoveryGoal {
	return RecoveryGoal{SleepHours: 8}
}

// RecoveryTotals aggregates one day of recovery logs.
type RecoveryTotals struct {
	Day         Day          `json:"day" yaml:"day"`
	Logs        int          `json:"logs" yaml:"logs"`
	SleepHours  float64      `json:"sleep_hours" yaml:"sleep_hours"`
	AvgSoreness float64      `json:"avg_soreness" yaml:"avg_soreness"`
	Goal        RecoveryGoal `json:"goal" yaml:"goal"`
	SleepDebt   float64      `json:"sleep_debt" yaml:"sleep_debt"`
}
