// ABOUTME: Shared wiring for the day, history, and document caches.
// ABOUTME: Holds the actor, persist queue, hub, telemetry sink, and clock.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/persist"
	"github.com/harperreed/fitlog/internal/telemetry"
)

// State is the lifecycle of one cached document.
type State int

const (
	StateUncached State = iota
	StateLoading
	StateClean
	StateDirty
	StatePersisting
)

func (s State) String() string {
	switch s {
	case StateUncached:
		return "uncached"
	case StateLoading:
		return "loading"
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StatePersisting:
		return "persisting"
	default:
		return "unknown"
	}
}

// Deps are the collaborators shared by caches. Zero fields get private defaults.
type Deps struct {
	Actor  *Actor
	Queue  *persist.Queue
	Hub    *Hub
	Sink   telemetry.Sink
	Logger *slog.Logger
	Now    func() time.Time
}

type base struct {
	domain string
	docs   *docstore.Store
	actor  *Actor
	queue  *persist.Queue
	hub    *Hub
	sink   telemetry.Sink
	logger *slog.Logger
	now    func() time.Time

	ownActor bool
	ownQueue bool
	// reread retries reads that haven't been folded in yet. Called off the actor.
	reread func()

	// closed is owned by the actor.
	closed bool
}

func newBase(domain string, docs *docstore.Store, deps Deps) *base {
	b := &base{
		domain: domain,
		docs:   docs,
		actor:  deps.Actor,
		queue:  deps.Queue,
		hub:    deps.Hub,
		sink:   deps.Sink,
		logger: deps.Logger,
		now:    deps.Now,
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("domain", domain)
	if b.actor == nil {
		b.actor = NewActor()
		b.ownActor = true
	}
	if b.queue == nil {
		b.queue = persist.New(persist.Options{Logger: b.logger})
		b.ownQueue = true
	}
	if b.hub == nil {
		b.hub = NewHub(b.logger)
	}
	if b.sink == nil {
		b.sink = telemetry.Nop{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

func (b *base) today() models.Day {
	return models.DayOf(b.now())
}

func (b *base) emit(kind telemetry.Kind, day models.Day, path, detail string) {
	e := telemetry.Event{Kind: kind, Domain: b.domain, Path: path, Detail: detail}
	if !day.IsZero() {
		e.Day = day.String()
	}
	b.sink.Emit(telemetry.Stamp(e))
}

func (b *base) changed(day models.Day, path string) {
	b.hub.Publish(Notice{Kind: NoticeChanged, Domain: b.domain, Day: day, Path: path})
}

func (b *base) persisted(day models.Day, path string) {
	b.hub.Publish(Notice{Kind: NoticePersisted, Domain: b.domain, Day: day, Path: path})
}

// unreadable reports whether err means the document could not be reached, as
// opposed to being absent or corrupted. Changes stay in memory until a read succeeds.
func unreadable(err error) bool {
	return err != nil && !docstore.IsCorruption(err)
}

func (b *base) advise(day models.Day, path, msg string, err error) {
	b.logger.Warn(msg, "path", path, "error", err)
	b.hub.Publish(Notice{Kind: NoticeAdvisory, Domain: b.domain, Day: day, Path: path, Message: msg, Err: err})
}

// post runs fn on the actor unless the cache is closed. It does not wait.
func (b *base) post(fn func()) {
	b.actor.Post(func() {
		if !b.closed {
			fn()
		}
	})
}

// flush reads documents that are still unmerged, waits for queued writes,
// then lets posted state updates land. Background reads still in flight are
// superseded by the reads done here.
func (b *base) flush(ctx context.Context) error {
	if b.reread != nil {
		b.reread()
	}
	err := b.queue.Flush(ctx)
	b.actor.Do(func() {})
	return err
}

func (b *base) shutdown(ctx context.Context) {
	b.actor.Do(func() { b.closed = true })
	if b.ownQueue {
		if err := b.queue.Close(ctx); err != nil {
			b.logger.Warn("persist queue closed with pending work", "error", err)
		}
	}
	if b.ownActor {
		b.actor.Stop()
	}
}
