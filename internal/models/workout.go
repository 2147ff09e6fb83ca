// ABOUTME: Workout session, set, summary, and goal models for training tracking.
// ABOUTME: Sessions live in day buckets; summaries feed the capped workout history.
package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutSession represents an exercise session, either in progress or finished.
type WorkoutSession struct {
	ID              uuid.UUID    `json:"id" yaml:"id"`
	CreatedAt       time.Time    `json:"created_at" yaml:"created_at"`
	WorkoutType     string       `json:"workout_type" yaml:"workout_type"`
	StartedAt       time.Time    `json:"started_at" yaml:"started_at"`
	DurationMinutes int          `json:"duration_minutes" yaml:"duration_minutes"`
	Sets            []WorkoutSet `json:"sets,omitempty" yaml:"sets,omitempty"`
	Notes           string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewWorkoutSession creates a WorkoutSession with generated UUID and current timestamp.
func NewWorkoutSession(workoutType string) *WorkoutSession {
	now := time.Now().UTC()
	return &WorkoutSession{
		ID:          uuid.New(),
		CreatedAt:   now,
		WorkoutType: workoutType,
		StartedAt:   now,
	}
}

// RecordID returns the session's identifier.
func (w WorkoutSession) RecordID() uuid.UUID {
	return w.ID
}

// WithDuration sets the duration in minutes.
func (w *WorkoutSession) WithDuration(minutes int) *WorkoutSession {
	w.DurationMinutes = minutes
	return w
}

// WithNotes sets notes on the workout.
func (w *WorkoutSession) WithNotes(notes string) *WorkoutSession {
	w.Notes = notes
	return w
}

// WithStartedAt sets a custom start timestamp.
func (w *WorkoutSession) WithStartedAt(t time.Time) *WorkoutSession {
	w.StartedAt = t.UTC()
	return w
}

// VolumeKg is the sum of reps x weight over all sets.
func (w WorkoutSession) VolumeKg() float64 {
	var total float64
	for _, s := range w.Sets {
		total += float64(s.Reps) * s.WeightKg
	}
	return total
}

// Summary condenses a finished session into a history entry.
func (w WorkoutSession) Summary(finishedAt time.Time) WorkoutSummary {
	return WorkoutSummary{
		ID:              w.ID,
		WorkoutType:     w.WorkoutType,
		StartedAt:       w.StartedAt,
		FinishedAt:      finishedAt.UTC(),
		DurationMinutes: w.DurationMinutes,
		Sets:            len(w.Sets),
		VolumeKg:        w.VolumeKg(),
	}
}

// WorkoutSet is one set of an exercise.
type WorkoutSet struct {
	Exercise    string    `json:"exercise" yaml:"exercise"`
	Reps        int       `json:"reps" yaml:"reps"`
	WeightKg    float64   `json:"weight_kg" yaml:"weight_kg"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// WorkoutSummary is the immutable history entry for a finished workout.
type WorkoutSummary struct {
	ID              uuid.UUID `json:"id" yaml:"id"`
	WorkoutType     string    `json:"workout_type" yaml:"workout_type"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time `json:"finished_at" yaml:"finished_at"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	Sets            int       `json:"sets" yaml:"sets"`
	VolumeKg        float64   `json:"volume_kg" yaml:"volume_kg"`
}

// WorkoutGoal is the day-scoped training target.
type WorkoutGoal struct {
	TargetMinutes int `json:"target_minutes" yaml:"target_minutes"`
}

// DefaultWorkoutGoal returns the goal used for days with no stored goal.
func DefaultWorkoutGoal() WorkoutGoal {
	return WorkoutGoal{TargetMinutes: 30}
}

// WorkoutTotals aggregates one day of sessions.
type WorkoutTotals struct {
	Day      Day         `json:"day" yaml:"day"`
	Sessions int         `json:"sessions" yaml:"sessions"`
	Minutes  int         `json:"minutes" yaml:"minutes"`
	VolumeKg float64     `json:"volume_kg" yaml:"volume_kg"`
	Goal     WorkoutGoal `json:"goal" yaml:"goal"`
	GoalMet  bool        `json:"goal_met" yaml:"goal_met"`
}
