// ABOUTME: History caches a capped newest-first log in memory.
// ABOUTME: Appends are immediate; the whole document is rewritten in the background.
package cache

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/history"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/telemetry"
)

// HistoryOptions configures a History cache.
type HistoryOptions struct {
	Domain string
	// Path is the store-relative document path.
	Path string
	// MaxCount defaults to history.DefaultMaxCount.
	MaxCount int
	Deps
}

type historyView[E any] struct {
	entries []E
	state   State
	held    []string
}

// History is the in-memory authority for one history log.
type History[E any] struct {
	*base
	log *history.Log[E]
	max int

	// Owned by the actor.
	entries []E
	state   State
	version uint64
	merged  bool
	// reading is set while the read numbered seq is outstanding.
	reading     bool
	seq         uint64
	readVersion uint64

	current atomic.Pointer[historyView[E]]
}

// NewHistory creates a History cache. Call Load before first use.
func NewHistory[E any](docs *docstore.Store, opts HistoryOptions) *History[E] {
	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = history.DefaultMaxCount
	}
	h := &History[E]{
		base:    newBase(opts.Domain, docs, opts.Deps),
		log:     history.New[E](docs, opts.Path),
		max:     maxCount,
		entries: []E{},
	}
	h.base.reread = h.readUnmerged
	h.publish()
	return h
}

// Load reads the stored log. A corrupted log starts empty and raises an
// advisory. A log that can't be read is left untouched until a read succeeds.
func (h *History[E]) Load() {
	var seq uint64
	h.mutate(func() { seq = h.beginRead() })
	if seq == 0 {
		return
	}
	entries, err := h.log.Load()
	h.mutate(func() { h.install(seq, entries, err) })
}

func (h *History[E]) beginRead() uint64 {
	h.seq++
	h.reading = true
	h.readVersion = h.version
	if !h.merged {
		h.state = StateLoading
	}
	return h.seq
}

func (h *History[E]) install(seq uint64, stored []E, err error) {
	if seq != h.seq {
		return
	}
	h.reading = false
	if unreadable(err) {
		h.advise(models.Day{}, h.log.Path(), fmt.Sprintf("couldn't read %s history, leaving it untouched", h.domain), err)
		return
	}
	if err != nil {
		stored = nil
		h.advise(models.Day{}, h.log.Path(), fmt.Sprintf("couldn't read %s history, starting empty", h.domain), err)
	}
	if h.merged {
		if stored != nil && h.state == StateClean && h.version == h.readVersion {
			h.entries = stored
		}
		return
	}
	h.merged = true
	if h.version == 0 {
		if stored != nil {
			h.entries = stored
		}
		h.state = StateClean
		return
	}
	// Appends made before the log was read go on top.
	combined := make([]E, 0, len(h.entries)+len(stored))
	combined = append(combined, h.entries...)
	combined = append(combined, stored...)
	h.entries = history.Latest(combined, h.max)
	h.state = StateDirty
	h.schedule()
}

func (h *History[E]) startRead() {
	seq := h.beginRead()
	go func() {
		entries, err := h.log.Load()
		h.post(func() {
			h.install(seq, entries, err)
			h.publish()
		})
	}()
}

// readUnmerged reads the log if appends are waiting on it, superseding any
// background read still in flight.
func (h *History[E]) readUnmerged() {
	var seq uint64
	h.mutate(func() {
		if !h.merged && h.version > 0 {
			seq = h.beginRead()
		}
	})
	if seq == 0 {
		return
	}
	entries, err := h.log.Load()
	h.mutate(func() { h.install(seq, entries, err) })
}

// Append puts e at the front of the log, dropping the oldest entries beyond the cap.
// Until the stored log has been read, appends stay in memory.
func (h *History[E]) Append(e E) {
	h.mutate(func() {
		h.entries = history.Prepend(h.entries, e, h.max)
		h.version++
		switch {
		case h.merged:
			h.state = StateDirty
			h.schedule()
		case !h.reading:
			h.startRead()
		}
		h.emit(telemetry.KindHistoryAppended, models.Day{}, h.log.Path(), "")
		h.changed(models.Day{}, h.log.Path())
	})
}

func (h *History[E]) schedule() {
	version := h.version
	snapshot := h.entries
	path := h.log.Path()
	err := h.queue.Schedule(path, func() error {
		return h.persist(version, snapshot)
	})
	if err != nil {
		h.advise(models.Day{}, path, fmt.Sprintf("couldn't queue %s history save", h.domain), err)
	}
}

func (h *History[E]) persist(version uint64, entries []E) error {
	path := h.log.Path()
	h.post(func() {
		if h.version == version && h.state == StateDirty {
			h.state = StatePersisting
			h.publish()
		}
	})

	start := time.Now()
	err := h.log.Save(entries)
	elapsed := time.Since(start)

	h.post(func() {
		if h.version != version {
			return
		}
		if err != nil {
			h.state = StateDirty
		} else {
			h.state = StateClean
		}
		h.publish()
	})
	if err != nil {
		h.advise(models.Day{}, path, fmt.Sprintf("couldn't save %s history, will retry", h.domain), err)
		return err
	}
	h.sink.Emit(telemetry.Stamp(telemetry.Event{
		Kind:     telemetry.KindPersisted,
		Domain:   h.domain,
		Path:     path,
		Duration: elapsed,
	}))
	h.persisted(models.Day{}, path)
	return nil
}

func (h *History[E]) mutate(fn func()) bool {
	return h.actor.Do(func() {
		if h.closed {
			return
		}
		fn()
		h.publish()
	})
}

func (h *History[E]) publish() {
	v := &historyView[E]{entries: h.entries, state: h.state}
	if !h.merged && h.version > 0 && !h.reading {
		v.held = []string{h.log.Path()}
	}
	h.current.Store(v)
}

// Latest returns at most limit entries, newest first. limit <= 0 returns all.
func (h *History[E]) Latest(limit int) []E {
	entries := history.Latest(h.current.Load().entries, limit)
	out := make([]E, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of cached entries.
func (h *History[E]) Len() int {
	return len(h.current.Load().entries)
}

// State reports whether the log has unsaved changes.
func (h *History[E]) State() State {
	return h.current.Load().state
}

// Held lists the log path while appends are waiting on a read that failed.
func (h *History[E]) Held() []string {
	return slices.Clone(h.current.Load().held)
}

// Save waits for pending writes.
func (h *History[E]) Save(ctx context.Context) {
	if err := h.flush(ctx); err != nil {
		h.logger.Warn("history save incomplete", "error", err)
	}
}

// Close saves and stops accepting appends.
func (h *History[E]) Close(ctx context.Context) {
	h.Save(ctx)
	h.shutdown(ctx)
}
