// ABOUTME: Workout store: finished sessions by day, one active session, and a capped history.
// ABOUTME: Finishing the active session files it under its start day and appends a summary.
package tracker

import (
	"context"
	"errors"
	"math"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fitlog/internal/cache"
	"github.com/harperreed/fitlog/internal/daybucket"
	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
)

var (
	// ErrNoActiveWorkout is returned when an operation needs a running session.
	ErrNoActiveWorkout = errors.New("no active workout")
	// ErrWorkoutInProgress is returned when starting while another session runs.
	ErrWorkoutInProgress = errors.New("a workout is already in progress")
)

// Store-relative paths of the workout singleton documents.
var (
	ActiveWorkoutPath  = path.Join(DomainWorkouts, "active_workout.json")
	WorkoutHistoryPath = path.Join(DomainWorkouts, "workout_history.json")
)

// WorkoutDay is one day of finished sessions.
type WorkoutDay = daybucket.Bucket[models.WorkoutSession, models.WorkoutGoal]

// Workouts tracks training sessions.
type Workouts struct {
	days    *cache.Days[models.WorkoutSession, models.WorkoutGoal]
	active  *cache.Doc[models.WorkoutSession]
	history *cache.History[models.WorkoutSummary]
	now     func() time.Time
}

func newWorkouts(docs *docstore.Store, opts Options, deps cache.Deps) *Workouts {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Workouts{
		days: cache.NewDays[models.WorkoutSession](docs, cache.DaysOptions[models.WorkoutGoal]{
			Domain:        DomainWorkouts,
			DefaultConfig: opts.WorkoutGoal,
			TrailingDays:  opts.TrailingDays,
			Deps:          deps,
		}),
		active: cache.NewDoc[models.WorkoutSession](docs, cache.DocOptions{
			Domain: DomainWorkouts,
			Path:   ActiveWorkoutPath,
			Deps:   deps,
		}),
		history: cache.NewHistory[models.WorkoutSummary](docs, cache.HistoryOptions{
			Domain:   DomainWorkouts,
			Path:     WorkoutHistoryPath,
			MaxCount: opts.HistoryMax,
			Deps:     deps,
		}),
		now: now,
	}
}

// Load reads the cached window, the active session, and the history.
func (w *Workouts) Load() {
	w.days.Load()
	w.active.Load()
	w.history.Load()
}

// Save waits for pending writes.
func (w *Workouts) Save(ctx context.Context) {
	w.days.Save(ctx)
	w.active.Save(ctx)
	w.history.Save(ctx)
}

// Close saves and stops accepting changes.
func (w *Workouts) Close(ctx context.Context) {
	w.days.Close(ctx)
	w.active.Close(ctx)
	w.history.Close(ctx)
}

// Held lists workout files whose changes wait on a failed read.
func (w *Workouts) Held() []string {
	return slices.Concat(w.days.Held(), w.active.Held(), w.history.Held())
}

// Today returns today's finished sessions.
func (w *Workouts) Today() WorkoutDay { return w.days.Today() }

// Day returns the sessions for day, empty when not cached.
func (w *Workouts) Day(day models.Day) WorkoutDay { return w.days.BucketOrEmpty(day) }

// Window returns today and the trailing days, newest first.
func (w *Workouts) Window() []WorkoutDay { return w.days.Window() }

// AddEntry files a finished session under its local start day.
func (w *Workouts) AddEntry(s models.WorkoutSession) {
	w.days.AddRecord(s, models.DayOf(s.StartedAt.Local()))
}

// AddEntryFor files a finished session under day.
func (w *Workouts) AddEntryFor(s models.WorkoutSession, day models.Day) {
	w.days.AddRecord(s, day)
}

// DeleteEntry removes the session with id. Unknown ids are a no-op.
func (w *Workouts) DeleteEntry(id uuid.UUID) bool { return w.days.DeleteRecord(id) }

// UpdateGoal sets today's goal and the default for new days.
func (w *Workouts) UpdateGoal(g models.WorkoutGoal) { w.days.UpdateConfig(g) }

// Goal returns the goal new days start with.
func (w *Workouts) Goal() models.WorkoutGoal { return w.days.DefaultConfig() }

// Totals summarizes the cached sessions for day. Uncached days total zero.
func (w *Workouts) Totals(day models.Day) models.WorkoutTotals {
	b, ok := w.days.Bucket(day)
	if !ok {
		return models.WorkoutTotals{Day: day}
	}
	return WorkoutTotals(b)
}

// WorkoutTotals aggregates one bucket.
func WorkoutTotals(b WorkoutDay) models.WorkoutTotals {
	t := models.WorkoutTotals{Day: b.Date, Goal: b.Config, Sessions: len(b.Entries)}
	for _, s := range b.Entries {
		t.Minutes += s.DurationMinutes
		t.VolumeKg += s.VolumeKg()
	}
	t.GoalMet = b.Config.TargetMinutes > 0 && t.Minutes >= b.Config.TargetMinutes
	return t
}

// ActiveWorkout returns the running session, if any.
func (w *Workouts) ActiveWorkout() (models.WorkoutSession, bool) {
	s, ok := w.active.Get()
	if ok {
		s.Sets = slices.Clone(s.Sets)
	}
	return s, ok
}

// StartWorkout begins a new session.
func (w *Workouts) StartWorkout(workoutType, notes string) (models.WorkoutSession, error) {
	var started models.WorkoutSession
	busy := false
	w.active.Update(func(cur *models.WorkoutSession) *models.WorkoutSession {
		if cur != nil {
			busy = true
			return cur
		}
		now := w.now().UTC()
		s := models.NewWorkoutSession(workoutType).WithNotes(notes)
		s.CreatedAt = now
		s.StartedAt = now
		started = *s
		return s
	})
	if busy {
		return models.WorkoutSession{}, ErrWorkoutInProgress
	}
	return started, nil
}

// AddSet records a set on the running session.
func (w *Workouts) AddSet(exercise string, reps int, weightKg float64) (models.WorkoutSession, error) {
	var updated models.WorkoutSession
	present := w.active.Update(func(cur *models.WorkoutSession) *models.WorkoutSession {
		if cur == nil {
			return nil
		}
		sets := make([]models.WorkoutSet, 0, len(cur.Sets)+1)
		sets = append(sets, cur.Sets...)
		cur.Sets = append(sets, models.WorkoutSet{
			Exercise:    exercise,
			Reps:        reps,
			WeightKg:    weightKg,
			CompletedAt: w.now().UTC(),
		})
		updated = *cur
		return cur
	})
	if !present {
		return models.WorkoutSession{}, ErrNoActiveWorkout
	}
	return updated, nil
}

// FinishWorkout ends the running session, files it under its start day, and
// appends a summary to the history.
func (w *Workouts) FinishWorkout() (models.WorkoutSummary, error) {
	var session *models.WorkoutSession
	w.active.Update(func(cur *models.WorkoutSession) *models.WorkoutSession {
		session = cur
		return nil
	})
	if session == nil {
		return models.WorkoutSummary{}, ErrNoActiveWorkout
	}

	finished := w.now().UTC()
	if session.DurationMinutes == 0 {
		minutes := int(math.Round(finished.Sub(session.StartedAt).Minutes()))
		session.DurationMinutes = max(minutes, 1)
	}
	w.AddEntry(*session)
	summary := session.Summary(finished)
	w.history.Append(summary)
	return summary, nil
}

// DiscardWorkout drops the running session without recording it.
func (w *Workouts) DiscardWorkout() error {
	existed := false
	w.active.Update(func(cur *models.WorkoutSession) *models.WorkoutSession {
		existed = cur != nil
		return nil
	})
	if !existed {
		return ErrNoActiveWorkout
	}
	return nil
}

// AppendHistory adds a summary to the front of the history.
func (w *Workouts) AppendHistory(s models.WorkoutSummary) { w.history.Append(s) }

// History returns at most limit summaries, newest first. limit <= 0 returns all.
func (w *Workouts) History(limit int) []models.WorkoutSummary { return w.history.Latest(limit) }
