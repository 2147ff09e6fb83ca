// ABOUTME: Doc caches a single optional document, such as the active workout.
// ABOUTME: Setting nil removes the file; writes run in the background.
package cache

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/telemetry"
)

// DocOptions configures a Doc cache.
type DocOptions struct {
	Domain string
	Path   string
	Deps
}

type docView[T any] struct {
	value *T
	state State
	held  []string
}

// Doc holds zero or one value of T backed by one file.
type Doc[T any] struct {
	*base
	path string

	// Owned by the actor.
	value   *T
	state   State
	version uint64
	merged  bool
	// reading is set while the read numbered seq is outstanding.
	reading     bool
	seq         uint64
	readVersion uint64

	current atomic.Pointer[docView[T]]
}

// NewDoc creates a Doc cache. Call Load before first use.
func NewDoc[T any](docs *docstore.Store, opts DocOptions) *Doc[T] {
	d := &Doc[T]{
		base: newBase(opts.Domain, docs, opts.Deps),
		path: opts.Path,
	}
	d.base.reread = d.readUnmerged
	d.publish()
	return d
}

// Load reads the document. A corrupted document is treated as absent and
// raises an advisory. A document that can't be read is left untouched, and
// updates stay in memory until a read succeeds.
func (d *Doc[T]) Load() {
	var seq uint64
	d.mutate(func() { seq = d.beginRead() })
	if seq == 0 {
		return
	}
	v, err := docstore.Load[T](d.docs, d.path)
	d.mutate(func() { d.install(seq, v, err) })
}

func (d *Doc[T]) beginRead() uint64 {
	d.seq++
	d.reading = true
	d.readVersion = d.version
	return d.seq
}

func (d *Doc[T]) install(seq uint64, v *T, err error) {
	if seq != d.seq {
		return
	}
	d.reading = false
	if unreadable(err) {
		d.advise(models.Day{}, d.path, fmt.Sprintf("couldn't read %s, leaving it untouched", d.path), err)
		return
	}
	if err != nil {
		v = nil
		d.advise(models.Day{}, d.path, fmt.Sprintf("couldn't read %s, ignoring it", d.path), err)
	}
	if d.merged {
		if d.state == StateClean && d.version == d.readVersion {
			d.value = v
		}
		return
	}
	d.merged = true
	if d.version == 0 {
		d.value = v
		d.state = StateClean
		return
	}
	// The document holds one value, so updates made before the read win.
	d.state = StateDirty
	d.schedule()
}

func (d *Doc[T]) startRead() {
	seq := d.beginRead()
	go func() {
		v, err := docstore.Load[T](d.docs, d.path)
		d.post(func() {
			d.install(seq, v, err)
			d.publish()
		})
	}()
}

// readUnmerged reads the document if updates are waiting on it.
func (d *Doc[T]) readUnmerged() {
	var seq uint64
	d.mutate(func() {
		if !d.merged && d.version > 0 {
			seq = d.beginRead()
		}
	})
	if seq == 0 {
		return
	}
	v, err := docstore.Load[T](d.docs, d.path)
	d.mutate(func() { d.install(seq, v, err) })
}

// Get returns a copy of the current value.
func (d *Doc[T]) Get() (T, bool) {
	var zero T
	v := d.current.Load().value
	if v == nil {
		return zero, false
	}
	return *v, true
}

// Update replaces the value with the result of fn. fn receives a copy of the
// current value, or nil. Returning nil deletes the document.
// Update reports whether a value was present afterwards.
func (d *Doc[T]) Update(fn func(cur *T) *T) bool {
	present := false
	d.mutate(func() {
		var cur *T
		if d.value != nil {
			cp := *d.value
			cur = &cp
		}
		d.value = fn(cur)
		present = d.value != nil
		d.version++
		d.state = StateDirty
		switch {
		case d.merged:
			d.schedule()
		case !d.reading:
			d.startRead()
		}
		d.changed(models.Day{}, d.path)
	})
	return present
}

// Set stores v.
func (d *Doc[T]) Set(v T) {
	d.Update(func(*T) *T { return &v })
}

// Clear deletes the document.
func (d *Doc[T]) Clear() {
	d.Update(func(*T) *T { return nil })
}

func (d *Doc[T]) schedule() {
	version := d.version
	var snapshot *T
	if d.value != nil {
		cp := *d.value
		snapshot = &cp
	}
	err := d.queue.Schedule(d.path, func() error {
		return d.persist(version, snapshot)
	})
	if err != nil {
		d.advise(models.Day{}, d.path, fmt.Sprintf("couldn't queue save of %s", d.path), err)
	}
}

func (d *Doc[T]) persist(version uint64, v *T) error {
	var err error
	if v == nil {
		err = d.docs.Remove(d.path)
	} else {
		err = d.docs.Write(d.path, v)
	}
	d.post(func() {
		if d.version != version {
			return
		}
		if err != nil {
			d.state = StateDirty
		} else {
			d.state = StateClean
		}
		d.publish()
	})
	if err != nil {
		d.advise(models.Day{}, d.path, fmt.Sprintf("couldn't save %s, will retry", d.path), err)
		return err
	}
	d.sink.Emit(telemetry.Stamp(telemetry.Event{Kind: telemetry.KindPersisted, Domain: d.domain, Path: d.path}))
	d.persisted(models.Day{}, d.path)
	return nil
}

func (d *Doc[T]) mutate(fn func()) bool {
	return d.actor.Do(func() {
		if d.closed {
			return
		}
		fn()
		d.publish()
	})
}

func (d *Doc[T]) publish() {
	v := &docView[T]{value: d.value, state: d.state}
	if !d.merged && d.version > 0 && !d.reading {
		v.held = []string{d.path}
	}
	d.current.Store(v)
}

// State reports whether the document has unsaved changes.
func (d *Doc[T]) State() State {
	return d.current.Load().state
}

// Held lists the document path while updates are waiting on a read that failed.
func (d *Doc[T]) Held() []string {
	return slices.Clone(d.current.Load().held)
}

// Save waits for pending writes.
func (d *Doc[T]) Save(ctx context.Context) {
	if err := d.flush(ctx); err != nil {
		d.logger.Warn("document save incomplete", "path", d.path, "error", err)
	}
}

// Close saves and stops accepting updates.
func (d *Doc[T]) Close(ctx context.Context) {
	d.Save(ctx)
	d.shutdown(ctx)
}
