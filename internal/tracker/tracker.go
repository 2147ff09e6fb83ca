// ABOUTME: Tracker wires the nutrition, workout, and recovery stores to one data directory.
// ABOUTME: All stores share a mutation actor, a persist queue, and a notice hub.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fitlog/internal/cache"
	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/persist"
	"github.com/harperreed/fitlog/internal/telemetry"
)

// Domain names, also used as directory names under the data dir.
const (
	DomainNutrition = "nutrition"
	DomainWorkouts  = "workouts"
	DomainRecovery  = "recovery"
)

var (
	// ErrNotFound is returned when no cached entry matches an ID prefix.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousPrefix is returned when an ID prefix matches several entries.
	ErrAmbiguousPrefix = errors.New("ambiguous prefix")
)

// Options configures Open.
type Options struct {
	DataDir       string
	TrailingDays  int
	HistoryMax    int
	RetryInterval time.Duration
	NutritionGoal models.NutritionGoal
	WorkoutGoal   models.WorkoutGoal
	RecoveryGoal  models.RecoveryGoal
	Sink          telemetry.Sink
	Logger        *slog.Logger
	Now           func() time.Time
	// StoreOptions are passed to the document store after the sink and logger.
	StoreOptions []docstore.Option
}

// Tracker is the entry point for all reads and writes.
type Tracker struct {
	docs   *docstore.Store
	actor  *cache.Actor
	queue  *persist.Queue
	hub    *cache.Hub
	logger *slog.Logger

	Nutrition *Nutrition
	Workouts  *Workouts
	Recovery  *Recovery
}

// Open builds a Tracker. Nothing is read until Load.
func Open(opts Options) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Sink
	if sink == nil {
		sink = telemetry.Nop{}
	}
	if opts.NutritionGoal == (models.NutritionGoal{}) {
		opts.NutritionGoal = models.DefaultNutritionGoal()
	}
	if opts.WorkoutGoal == (models.WorkoutGoal{}) {
		opts.WorkoutGoal = models.DefaultWorkoutGoal()
	}
	if opts.RecoveryGoal == (models.RecoveryGoal{}) {
		opts.RecoveryGoal = models.DefaultRecoveryGoal()
	}

	storeOpts := append([]docstore.Option{docstore.WithSink(sink), docstore.WithLogger(logger)}, opts.StoreOptions...)
	docs := docstore.New(opts.DataDir, storeOpts...)
	t := &Tracker{
		docs:   docs,
		actor:  cache.NewActor(),
		queue:  persist.New(persist.Options{RetryInterval: opts.RetryInterval, Logger: logger}),
		hub:    cache.NewHub(logger),
		logger: logger,
	}
	deps := cache.Deps{
		Actor:  t.actor,
		Queue:  t.queue,
		Hub:    t.hub,
		Sink:   sink,
		Logger: logger,
		Now:    opts.Now,
	}
	t.Nutrition = newNutrition(docs, opts, deps)
	t.Workouts = newWorkouts(docs, opts, deps)
	t.Recovery = newRecovery(docs, opts, deps)
	return t
}

// Docs exposes the document store for read-only consumers such as export.
func (t *Tracker) Docs() *docstore.Store {
	return t.docs
}

// Load reads today and the trailing window for every domain, plus workout state.
func (t *Tracker) Load() {
	t.Nutrition.Load()
	t.Workouts.Load()
	t.Recovery.Load()
}

// Subscribe returns notices from every domain.
func (t *Tracker) Subscribe(buffer int) (<-chan cache.Notice, func()) {
	return t.hub.Subscribe(buffer)
}

// Save waits for every pending write.
func (t *Tracker) Save(ctx context.Context) {
	t.Nutrition.Save(ctx)
	t.Workouts.Save(ctx)
	t.Recovery.Save(ctx)
}

// Dirty reports how many documents have changes not yet on disk.
func (t *Tracker) Dirty() int {
	return t.queue.Pending()
}

// FailedWrites lists documents whose last write failed, plus documents whose
// changes are held in memory because the stored file couldn't be read.
func (t *Tracker) FailedWrites() []string {
	failed := t.queue.Failed()
	failed = append(failed, t.Nutrition.days.Held()...)
	failed = append(failed, t.Workouts.Held()...)
	failed = append(failed, t.Recovery.days.Held()...)
	slices.Sort(failed)
	return slices.Compact(failed)
}

// DeleteEntry removes id from whichever domain holds it and returns that domain.
func (t *Tracker) DeleteEntry(id uuid.UUID) (string, bool) {
	switch {
	case t.Nutrition.DeleteEntry(id):
		return DomainNutrition, true
	case t.Workouts.DeleteEntry(id):
		return DomainWorkouts, true
	case t.Recovery.DeleteEntry(id):
		return DomainRecovery, true
	}
	return "", false
}

// ResolveID returns the ID of the cached entry whose ID starts with prefix.
// A full UUID is returned as is.
func (t *Tracker) ResolveID(prefix string) (uuid.UUID, error) {
	if id, err := uuid.Parse(prefix); err == nil {
		return id, nil
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return uuid.Nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	var matches []uuid.UUID
	match := func(id uuid.UUID) {
		if strings.HasPrefix(id.String(), prefix) {
			matches = append(matches, id)
		}
	}
	for _, b := range t.Nutrition.Window() {
		for _, e := range b.Entries {
			match(e.ID)
		}
	}
	for _, b := range t.Workouts.Window() {
		for _, e := range b.Entries {
			match(e.ID)
		}
	}
	for _, b := range t.Recovery.Window() {
		for _, e := range b.Entries {
			match(e.ID)
		}
	}

	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	}
	return uuid.Nil, fmt.Errorf("%w %s: matches %d entries", ErrAmbiguousPrefix, prefix, len(matches))
}

// Close flushes every store and stops background work.
func (t *Tracker) Close(ctx context.Context) {
	t.Nutrition.days.Close(ctx)
	t.Workouts.Close(ctx)
	t.Recovery.days.Close(ctx)
	if err := t.queue.Close(ctx); err != nil {
		t.logger.Warn("unsaved changes at shutdown", "error", err)
	}
	t.actor.Stop()
	t.hub.Close()
}
