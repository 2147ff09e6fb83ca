// ABOUTME: Journal is a badger-backed sink that keeps a local event history.
// ABOUTME: Writes happen on a background goroutine; Emit drops events when the buffer is full.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v3"
)

const journalPrefix = "event:"

// DefaultJournalBuffer is the number of events Emit can queue before dropping.
const DefaultJournalBuffer = 256

// Journal persists events to a badger database under dir.
type Journal struct {
	db      *badger.DB
	logger  *slog.Logger
	events  chan Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	seq     atomic.Uint64
	dropped atomic.Uint64
}

// JournalOptions configures OpenJournal.
type JournalOptions struct {
	// Dir holds the badger files. Required unless InMemory is set.
	Dir string
	// InMemory keeps the journal in memory only.
	InMemory bool
	// Buffer overrides DefaultJournalBuffer.
	Buffer int
	Logger *slog.Logger
}

// OpenJournal opens (or creates) the journal database.
func OpenJournal(opts JournalOptions) (*Journal, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("telemetry: journal dir is required")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultJournalBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{
		db:     db,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go j.run()
	return j, nil
}

// Emit queues e for writing. It never blocks.
func (j *Journal) Emit(e Event) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.events <- Stamp(e):
	default:
		j.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

func (j *Journal) run() {
	defer close(j.done)
	for e := range j.events {
		if err := j.write(e); err != nil {
			j.logger.Debug("journal write failed", "error", err)
		}
	}
}

func (j *Journal) write(e Event) error {
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%020d:%08d", journalPrefix, e.At.UnixNano(), j.seq.Add(1))
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (j *Journal) Recent(limit int) ([]Event, error) {
	prefix := []byte(journalPrefix)
	var out []Event
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var e Event
			if err := json.Unmarshal(val, &e); err != nil {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}

// Close drains queued events and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.events)
	j.mu.Unlock()

	<-j.done
	return j.db.Close()
}
