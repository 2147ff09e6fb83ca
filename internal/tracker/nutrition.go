// ABOUTME: Nutrition store: meal entries bucketed by day with a daily goal.
// ABOUTME: Totals are computed on read from the cached buckets.
package tracker

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/fitlog/internal/cache"
	"github.com/harperreed/fitlog/internal/daybucket"
	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
)

// NutritionDay is one day of meals.
type NutritionDay = daybucket.Bucket[models.MealEntry, models.NutritionGoal]

// Nutrition tracks meals.
type Nutrition struct {
	days *cache.Days[models.MealEntry, models.NutritionGoal]
}

func newNutrition(docs *docstore.Store, opts Options, deps cache.Deps) *Nutrition {
	return &Nutrition{days: cache.NewDays[models.MealEntry](docs, cache.DaysOptions[models.NutritionGoal]{
		Domain:        DomainNutrition,
		DefaultConfig: opts.NutritionGoal,
		TrailingDays:  opts.TrailingDays,
		Deps:          deps,
	})}
}

// Load reads the cached window.
func (n *Nutrition) Load() { n.days.Load() }

// Save waits for pending writes.
func (n *Nutrition) Save(ctx context.Context) { n.days.Save(ctx) }

// Today returns today's meals.
func (n *Nutrition) Today() NutritionDay { return n.days.Today() }

// Day returns the meals for day, empty when not cached.
func (n *Nutrition) Day(day models.Day) NutritionDay { return n.days.BucketOrEmpty(day) }

// Window returns today and the trailing days, newest first.
func (n *Nutrition) Window() []NutritionDay { return n.days.Window() }

// AddEntry logs e on the calendar day of its creation time, in local time.
func (n *Nutrition) AddEntry(e models.MealEntry) {
	n.days.AddRecord(e, models.DayOf(e.CreatedAt.Local()))
}

// AddEntryFor logs e on day.
func (n *Nutrition) AddEntryFor(e models.MealEntry, day models.Day) {
	n.days.AddRecord(e, day)
}

// DeleteEntry removes the entry with id. Unknown ids are a no-op.
func (n *Nutrition) DeleteEntry(id uuid.UUID) bool { return n.days.DeleteRecord(id) }

// UpdateGoal sets today's goal and the default for new days.
func (n *Nutrition) UpdateGoal(g models.NutritionGoal) { n.days.UpdateConfig(g) }

// Goal returns the goal new days start with.
func (n *Nutrition) Goal() models.NutritionGoal { return n.days.DefaultConfig() }

// Totals sums the cached entries for day. Uncached days total zero.
func (n *Nutrition) Totals(day models.Day) models.NutritionTotals {
	b, ok := n.days.Bucket(day)
	if !ok {
		return models.NutritionTotals{Day: day}
	}
	return NutritionTotals(b)
}

// NutritionTotals aggregates one bucket.
func NutritionTotals(b NutritionDay) models.NutritionTotals {
	t := models.NutritionTotals{Day: b.Date, Goal: b.Config, Entries: len(b.Entries)}
	for _, e := range b.Entries {
		t.Kcal += e.Kcal
		t.ProteinG += e.ProteinG
		t.CarbsG += e.CarbsG
		t.FatG += e.FatG
	}
	t.RemainingKcal = b.Config.Kcal - t.Kcal
	return t
}
