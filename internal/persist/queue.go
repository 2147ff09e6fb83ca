// ABOUTME: Background persistence queue that coalesces writes per key.
// ABOUTME: At most one job per key runs at a time; failed jobs are parked and retried.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Job writes one document. It is retried as-is after a failure.
type Job func() error

// ErrClosed is returned when scheduling or flushing a closed queue.
var ErrClosed = errors.New("persist: queue closed")

// DefaultWorkers is the number of concurrent writers.
const DefaultWorkers = 2

// Options configures a Queue.
type Options struct {
	// Workers is the number of concurrent writers. Defaults to DefaultWorkers.
	Workers int
	// RetryInterval re-runs failed jobs periodically. Zero disables the timer;
	// failed jobs then only run again on Flush or when superseded.
	RetryInterval time.Duration
	Logger        *slog.Logger
}

type slot struct {
	pending Job
	failed  Job
	lastErr error
	running bool
	queued  bool
}

func (s *slot) empty() bool {
	return s.pending == nil && s.failed == nil && !s.running
}

// Queue runs jobs in the background, keyed by document path.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	slots   map[string]*slot
	ready   []string
	running int
	closed  bool

	logger *slog.Logger
	wg     sync.WaitGroup
	stop   chan struct{}
}

// New starts a Queue with its workers and retry timer.
func New(opts Options) *Queue {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		slots:  make(map[string]*slot),
		logger: logger,
		stop:   make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	if opts.RetryInterval > 0 {
		q.wg.Add(1)
		go q.retryLoop(opts.RetryInterval)
	}
	return q
}

// Schedule queues job under key, replacing any job for key that has not started yet.
// A job for a key that is currently running waits until that run finishes.
// Schedule never blocks on I/O.
func (q *Queue) Schedule(key string, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	s, ok := q.slots[key]
	if !ok {
		s = &slot{}
		q.slots[key] = s
	}
	s.pending = job
	s.failed = nil
	s.lastErr = nil
	q.enqueueLocked(key, s)
	return nil
}

func (q *Queue) enqueueLocked(key string, s *slot) {
	if s.running || s.queued || s.pending == nil {
		return
	}
	s.queued = true
	q.ready = append(q.ready, key)
	q.cond.Broadcast()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for len(q.ready) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.ready) == 0 {
			q.mu.Unlock()
			return
		}
		key := q.ready[0]
		q.ready = q.ready[1:]
		s := q.slots[key]
		job := s.pending
		s.pending = nil
		s.queued = false
		s.running = true
		q.running++
		q.mu.Unlock()

		err := runJob(job)

		q.mu.Lock()
		s.running = false
		q.running--
		if err != nil {
			q.logger.Debug("persist job failed", "key", key, "error", err)
			if s.pending == nil {
				s.failed = job
				s.lastErr = err
			}
		}
		q.enqueueLocked(key, s)
		if s.empty() {
			delete(q.slots, key)
		}
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("persist job panicked: %v", r)
		}
	}()
	return job()
}

func (q *Queue) retryLoop(interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.mu.Lock()
			n := q.requeueFailedLocked()
			q.mu.Unlock()
			if n > 0 {
				q.logger.Debug("retrying failed persist jobs", "count", n)
			}
		}
	}
}

func (q *Queue) requeueFailedLocked() int {
	n := 0
	for key, s := range q.slots {
		if s.failed == nil {
			continue
		}
		s.pending = s.failed
		s.failed = nil
		q.enqueueLocked(key, s)
		n++
	}
	return n
}

// Flush retries parked jobs and waits until no job is queued or running.
// It returns the joined errors of jobs that still failed, or ctx's error.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	q.requeueFailedLocked()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.mu.Lock()
		defer q.mu.Unlock()
		for (len(q.ready) > 0 || q.running > 0) && ctx.Err() == nil {
			q.cond.Wait()
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
		<-done
		return ctx.Err()
	}
	return q.failures()
}

func (q *Queue) failures() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	var keys []string
	for key, s := range q.slots {
		if s.failed != nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	var errs []error
	for _, key := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", key, q.slots[key].lastErr))
	}
	return errors.Join(errs...)
}

// Pending reports how many keys have work that has not been written yet.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slots)
}

// Failed lists keys whose last attempt failed and that are waiting for a retry.
func (q *Queue) Failed() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var keys []string
	for key, s := range q.slots {
		if s.failed != nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Close flushes outstanding work, then stops the workers. Jobs scheduled after Close are rejected.
func (q *Queue) Close(ctx context.Context) error {
	err := q.Flush(ctx)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return err
	}
	q.closed = true
	close(q.stop)
	q.cond.Broadcast()
	q.mu.Unlock()

	q.wg.Wait()
	return err
}
