// ABOUTME: Days caches a rolling window of day buckets for one record kind.
// ABOUTME: Mutations apply in memory on the actor and persist in the background.
package cache

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/fitlog/internal/daybucket"
	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/telemetry"
)

// DefaultTrailingDays is how many days before today Load brings into memory.
const DefaultTrailingDays = 7

// Record is anything stored in a day bucket.
type Record interface {
	RecordID() uuid.UUID
}

// DaysOptions configures a Days cache.
type DaysOptions[C any] struct {
	// Domain names the directory and the telemetry domain, e.g. "nutrition".
	Domain string
	// DefaultConfig is used for days that have no stored bucket.
	DefaultConfig C
	// TrailingDays defaults to DefaultTrailingDays.
	TrailingDays int
	Deps
}

type daySlot[R Record, C any] struct {
	bucket  daybucket.Bucket[R, C]
	state   State
	version uint64
	// merged is set once the on-disk bucket, if any, has been folded in.
	merged    bool
	configSet bool
	// reading is set while the read numbered readSeq is outstanding.
	reading     bool
	readSeq     uint64
	readVersion uint64
}

type daysView[R Record, C any] struct {
	buckets       map[models.Day]daybucket.Bucket[R, C]
	states        map[models.Day]State
	defaultConfig C
	dirty         int
	held          []string
}

// Days is the in-memory authority for one kind of day bucket.
type Days[R Record, C any] struct {
	*base
	store    *daybucket.Store[R, C]
	trailing int

	// Owned by the actor.
	slots         map[models.Day]*daySlot[R, C]
	defaultConfig C
	seq           uint64

	current atomic.Pointer[daysView[R, C]]
}

// NewDays creates a Days cache. Call Load before first use.
func NewDays[R Record, C any](docs *docstore.Store, opts DaysOptions[C]) *Days[R, C] {
	trailing := opts.TrailingDays
	if trailing <= 0 {
		trailing = DefaultTrailingDays
	}
	c := &Days[R, C]{
		base:          newBase(opts.Domain, docs, opts.Deps),
		store:         daybucket.NewStore[R, C](docs, opts.Domain),
		trailing:      trailing,
		slots:         make(map[models.Day]*daySlot[R, C]),
		defaultConfig: opts.DefaultConfig,
	}
	c.base.reread = c.readUnmerged
	c.publish()
	return c
}

// Store exposes the underlying bucket store.
func (c *Days[R, C]) Store() *daybucket.Store[R, C] {
	return c.store
}

// WindowDays returns today followed by the trailing days, newest first.
func (c *Days[R, C]) WindowDays() []models.Day {
	today := c.today()
	days := make([]models.Day, 0, c.trailing+1)
	for i := 0; i <= c.trailing; i++ {
		days = append(days, today.AddDays(-i))
	}
	return days
}

// Load reads today and the trailing window from disk. Corrupted days start
// empty and raise an advisory. Days that can't be read raise an advisory and
// are never written until a later read succeeds. Buckets with unsaved changes
// keep their in-memory content. Clean buckets outside the window are evicted.
func (c *Days[R, C]) Load() {
	days := c.WindowDays()
	var seqs []uint64
	c.mutate(func() {
		seqs = make([]uint64, len(days))
		for i, d := range days {
			s, ok := c.slots[d]
			if !ok {
				s = c.newSlot(d)
				c.slots[d] = s
			}
			seqs[i] = c.beginRead(s)
		}
	})
	if seqs == nil {
		return
	}
	for i, d := range days {
		b, err := c.store.Load(d)
		c.mutate(func() { c.install(d, seqs[i], b, err) })
	}
	c.mutate(func() {
		inWindow := make(map[models.Day]bool, len(days))
		for _, d := range days {
			inWindow[d] = true
		}
		for d, s := range c.slots {
			if !inWindow[d] && s.state == StateClean {
				delete(c.slots, d)
			}
		}
	})
	c.logger.Debug("window loaded", "days", len(days))
}

func (c *Days[R, C]) newSlot(day models.Day) *daySlot[R, C] {
	return &daySlot[R, C]{
		bucket: daybucket.New[R](day, c.defaultConfig),
		state:  StateLoading,
	}
}

// beginRead numbers a new read of s. Only the latest read is installed.
func (c *Days[R, C]) beginRead(s *daySlot[R, C]) uint64 {
	c.seq++
	s.reading = true
	s.readSeq = c.seq
	s.readVersion = s.version
	return c.seq
}

// install folds read seq of day into its slot. Runs on the actor.
// An unreadable file leaves the slot unmerged so nothing overwrites it.
func (c *Days[R, C]) install(day models.Day, seq uint64, disk *daybucket.Bucket[R, C], err error) {
	s, ok := c.slots[day]
	if !ok || s.readSeq != seq {
		return
	}
	s.reading = false
	path := c.store.PathFor(day)
	if unreadable(err) {
		c.advise(day, path, fmt.Sprintf("couldn't read %s for %s, leaving the file untouched", c.domain, day), err)
		return
	}
	if err != nil {
		disk = nil
		c.advise(day, path, fmt.Sprintf("couldn't read %s for %s, starting empty", c.domain, day), err)
	}

	if s.merged {
		if disk != nil && s.state == StateClean && s.version == s.readVersion {
			s.bucket = disk.Clone()
		}
		return
	}
	s.merged = true

	if disk != nil {
		merged := disk.Clone()
		if s.configSet {
			merged.Config = s.bucket.Config
		}
		seen := make(map[uuid.UUID]bool, len(merged.Entries))
		for _, e := range merged.Entries {
			seen[e.RecordID()] = true
		}
		for _, e := range s.bucket.Entries {
			if !seen[e.RecordID()] {
				merged.Entries = append(merged.Entries, e)
			}
		}
		s.bucket = merged
	}
	s.configSet = false

	if s.version > 0 {
		s.state = StateDirty
		c.schedule(day, s)
		return
	}
	s.state = StateClean
}

// slotFor returns the slot for day, starting a background load if it is not cached.
func (c *Days[R, C]) slotFor(day models.Day) *daySlot[R, C] {
	if s, ok := c.slots[day]; ok {
		return s
	}
	s := c.newSlot(day)
	c.slots[day] = s
	c.startRead(day, s)
	return s
}

// startRead loads day in the background and installs it on the actor.
func (c *Days[R, C]) startRead(day models.Day, s *daySlot[R, C]) {
	seq := c.beginRead(s)
	go func() {
		b, err := c.store.Load(day)
		c.post(func() {
			c.install(day, seq, b, err)
			c.publish()
		})
	}()
}

// readUnmerged reads every changed day whose stored bucket hasn't been folded
// in yet, superseding any background read still in flight.
func (c *Days[R, C]) readUnmerged() {
	type read struct {
		day models.Day
		seq uint64
	}
	var reads []read
	c.mutate(func() {
		for d, s := range c.slots {
			if !s.merged && s.version > 0 {
				reads = append(reads, read{day: d, seq: c.beginRead(s)})
			}
		}
	})
	for _, r := range reads {
		b, err := c.store.Load(r.day)
		c.mutate(func() { c.install(r.day, r.seq, b, err) })
	}
}

// touch records a mutation and schedules a write once the bucket is merged.
// Unmerged buckets retry their read instead.
func (c *Days[R, C]) touch(day models.Day, s *daySlot[R, C]) {
	s.version++
	if !s.merged {
		if !s.reading {
			c.startRead(day, s)
		}
		return
	}
	s.state = StateDirty
	c.schedule(day, s)
}

func (c *Days[R, C]) schedule(day models.Day, s *daySlot[R, C]) {
	version := s.version
	snapshot := s.bucket.Clone()
	path := c.store.PathFor(day)
	err := c.queue.Schedule(path, func() error {
		return c.persist(day, version, snapshot)
	})
	if err != nil {
		c.advise(day, path, fmt.Sprintf("couldn't queue %s save for %s", c.domain, day), err)
	}
}

// persist runs on a queue worker.
func (c *Days[R, C]) persist(day models.Day, version uint64, b daybucket.Bucket[R, C]) error {
	path := c.store.PathFor(day)
	c.post(func() {
		if s, ok := c.slots[day]; ok && s.version == version && s.state == StateDirty {
			s.state = StatePersisting
			c.publish()
		}
	})

	start := time.Now()
	err := c.store.Save(b)
	elapsed := time.Since(start)

	c.post(func() {
		s, ok := c.slots[day]
		if !ok || s.version != version {
			return
		}
		if err != nil {
			s.state = StateDirty
		} else {
			s.state = StateClean
		}
		c.publish()
	})
	if err != nil {
		c.advise(day, path, fmt.Sprintf("couldn't save %s for %s, will retry", c.domain, day), err)
		return err
	}
	c.sink.Emit(telemetry.Stamp(telemetry.Event{
		Kind:     telemetry.KindPersisted,
		Domain:   c.domain,
		Path:     path,
		Day:      day.String(),
		Duration: elapsed,
	}))
	c.persisted(day, path)
	return nil
}

func (c *Days[R, C]) mutate(fn func()) bool {
	return c.actor.Do(func() {
		if c.closed {
			return
		}
		fn()
		c.publish()
	})
}

func (c *Days[R, C]) publish() {
	v := &daysView[R, C]{
		buckets:       make(map[models.Day]daybucket.Bucket[R, C], len(c.slots)),
		states:        make(map[models.Day]State, len(c.slots)),
		defaultConfig: c.defaultConfig,
	}
	for d, s := range c.slots {
		v.buckets[d] = s.bucket
		v.states[d] = s.state
		if s.state == StateDirty || s.state == StatePersisting || (!s.merged && s.version > 0) {
			v.dirty++
		}
		if !s.merged && s.version > 0 && !s.reading {
			v.held = append(v.held, c.store.PathFor(d))
		}
	}
	slices.Sort(v.held)
	c.current.Store(v)
}

// AddRecord appends r to the bucket for day. Uncached days are created in
// memory and merged with their stored bucket in the background.
func (c *Days[R, C]) AddRecord(r R, day models.Day) {
	c.mutate(func() {
		s := c.slotFor(day)
		entries := make([]R, 0, len(s.bucket.Entries)+1)
		entries = append(entries, s.bucket.Entries...)
		s.bucket.Entries = append(entries, r)
		c.touch(day, s)

		path := c.store.PathFor(day)
		c.emit(telemetry.KindRecordAdded, day, path, r.RecordID().String())
		c.changed(day, path)
	})
}

// DeleteRecord removes the first record with id, searching today first and
// then the other cached days newest first. It reports whether one was removed.
func (c *Days[R, C]) DeleteRecord(id uuid.UUID) bool {
	found := false
	c.mutate(func() {
		today := c.today()
		order := make([]models.Day, 0, len(c.slots))
		for d := range c.slots {
			if d != today {
				order = append(order, d)
			}
		}
		slices.SortFunc(order, func(a, b models.Day) int {
			switch {
			case a.After(b):
				return -1
			case b.After(a):
				return 1
			}
			return 0
		})
		if _, ok := c.slots[today]; ok {
			order = append([]models.Day{today}, order...)
		}

		for _, d := range order {
			s := c.slots[d]
			idx := slices.IndexFunc(s.bucket.Entries, func(r R) bool { return r.RecordID() == id })
			if idx < 0 {
				continue
			}
			s.bucket.Entries = slices.Concat(s.bucket.Entries[:idx:idx], s.bucket.Entries[idx+1:])
			c.touch(d, s)
			found = true

			path := c.store.PathFor(d)
			c.emit(telemetry.KindRecordDeleted, d, path, id.String())
			c.changed(d, path)
			return
		}
	})
	return found
}

// UpdateConfig replaces today's config and makes cfg the default for new days.
func (c *Days[R, C]) UpdateConfig(cfg C) {
	c.UpdateConfigFor(c.today(), cfg)
}

// UpdateConfigFor replaces the config of day and makes cfg the default for new days.
func (c *Days[R, C]) UpdateConfigFor(day models.Day, cfg C) {
	c.mutate(func() {
		s := c.slotFor(day)
		s.bucket.Config = cfg
		if !s.merged {
			s.configSet = true
		}
		c.defaultConfig = cfg
		c.touch(day, s)

		path := c.store.PathFor(day)
		c.emit(telemetry.KindGoalUpdated, day, path, "")
		c.changed(day, path)
	})
}

// Bucket returns the cached bucket for day.
func (c *Days[R, C]) Bucket(day models.Day) (daybucket.Bucket[R, C], bool) {
	b, ok := c.current.Load().buckets[day]
	if !ok {
		return daybucket.Bucket[R, C]{}, false
	}
	return b.Clone(), true
}

// BucketOrEmpty returns the cached bucket for day, or an empty one with the default config.
func (c *Days[R, C]) BucketOrEmpty(day models.Day) daybucket.Bucket[R, C] {
	if b, ok := c.Bucket(day); ok {
		return b
	}
	return daybucket.New[R](day, c.current.Load().defaultConfig)
}

// Today returns today's bucket, synthesizing an empty one when nothing is cached.
func (c *Days[R, C]) Today() daybucket.Bucket[R, C] {
	return c.BucketOrEmpty(c.today())
}

// Window returns one bucket per window day, newest first. Missing days are empty.
func (c *Days[R, C]) Window() []daybucket.Bucket[R, C] {
	days := c.WindowDays()
	out := make([]daybucket.Bucket[R, C], 0, len(days))
	for _, d := range days {
		out = append(out, c.BucketOrEmpty(d))
	}
	return out
}

// DefaultConfig returns the config used for days with no bucket.
func (c *Days[R, C]) DefaultConfig() C {
	return c.current.Load().defaultConfig
}

// State reports the lifecycle state of day.
func (c *Days[R, C]) State(day models.Day) State {
	if s, ok := c.current.Load().states[day]; ok {
		return s
	}
	return StateUncached
}

// Dirty reports how many buckets have changes that are not on disk yet.
func (c *Days[R, C]) Dirty() int {
	return c.current.Load().dirty
}

// Held lists files whose changes stay in memory because the stored file
// couldn't be read. They are written once a read succeeds.
func (c *Days[R, C]) Held() []string {
	return slices.Clone(c.current.Load().held)
}

// Subscribe returns change and advisory notices.
func (c *Days[R, C]) Subscribe(buffer int) (<-chan Notice, func()) {
	return c.hub.Subscribe(buffer)
}

// Save waits for pending writes. Failures surface as advisories.
func (c *Days[R, C]) Save(ctx context.Context) {
	if err := c.flush(ctx); err != nil {
		c.logger.Warn("save incomplete", "error", err, "dirty", c.Dirty())
	}
}

// Close saves and stops accepting mutations.
func (c *Days[R, C]) Close(ctx context.Context) {
	c.Save(ctx)
	c.shutdown(ctx)
}
