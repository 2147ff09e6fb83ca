// ABOUTME: Recovery store: sleep and soreness check-ins bucketed by day.
package tracker

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/fitlog/internal/cache"
	"github.com/harperreed/fitlog/internal/daybucket"
	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
)

// RecoveryDay is one day of recovery logs.
type RecoveryDay = daybucket.Bucket[models.RecoveryLog, models.RecoveryGoal]

// Recovery tracks recovery check-ins.
type Recovery struct {
	days *cache.Days[models.RecoveryLog, models.RecoveryGoal]
}

func newRecovery(docs *docstore.Store, opts Options, deps cache.Deps) *Recovery {
	return &Recovery{days: cache.NewDays[models.RecoveryLog](docs, cache.DaysOptions[models.RecoveryGoal]{
		Domain:        DomainRecovery,
		DefaultConfig: opts.RecoveryGoal,
		TrailingDays:  opts.TrailingDays,
		Deps:          deps,
	})}
}

// Load reads the cached window.
func (r *Recovery) Load() { r.days.Load() }

// Save waits for pending writes.
func (r *Recovery) Save(ctx context.Context) { r.days.Save(ctx) }

// Today returns today's check-ins.
func (r *Recovery) Today() RecoveryDay { return r.days.Today() }

// Day returns the check-ins for day, empty when not cached.
func (r *Recovery) Day(day models.Day) RecoveryDay { return r.days.BucketOrEmpty(day) }

// Window returns today and the trailing days, newest first.
func (r *Recovery) Window() []RecoveryDay { return r.days.Window() }

// DeleteEntry removes the log with id. Unknown ids are a no-op.
func (r *Recovery) DeleteEntry(id uuid.UUID) bool { return r.days.DeleteRecord(id) }

// UpdateGoal sets today's goal and the default for new days.
func (r *Recovery) UpdateGoal(g models.RecoveryGoal) { r.days.UpdateConfig(g) }

// Goal returns the goal new days start with.
func (r *Recovery) Goal() models.RecoveryGoal { return r.days.DefaultConfig() }

// AddEntry logs l on the local calendar day it was created.
func (r *Recovery) AddEntry(l models.RecoveryLog) {
	r.days.AddRecord(l, models.DayOf(l.CreatedAt.Local()))
}

// AddEntryFor logs l on day.
func (r *Recovery) AddEntryFor(l models.RecoveryLog, day models.Day) {
	r.days.AddRecord(l, day)
}

// Totals summarizes the cached logs for day. Uncached days total zero.
func (r *Recovery) Totals(day models.Day) models.RecoveryTotals {
	b, ok := r.days.Bucket(day)
	if !ok {
		return models.RecoveryTotals{Day: day}
	}
	return RecoveryTotals(b)
}

// RecoveryTotals aggregates one bucket. Sleep debt is never negative.
func RecoveryTotals(b RecoveryDay) models.RecoveryTotals {
	t := models.RecoveryTotals{Day: b.Date, Goal: b.Config, Logs: len(b.Entries)}
	soreness := 0
	for _, l := range b.Entries {
		t.SleepHours += l.SleepHours
		soreness += l.Soreness
	}
	if t.Logs > 0 {
		t.AvgSoreness = float64(soreness) / float64(t.Logs)
	}
	if debt := b.Config.SleepHours - t.SleepHours; debt > 0 {
		t.SleepDebt = debt
	}
	return t
}
