// ABOUTME: Fire-and-forget telemetry events for persistence and cache activity.
// ABOUTME: Sinks must never block the caller; failures inside a sink are swallowed.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind identifies what happened.
type Kind string

const (
	KindLoadFailed      Kind = "load_failed"
	KindWriteFailed     Kind = "write_failed"
	KindPersisted       Kind = "persisted"
	KindRecordAdded     Kind = "record_added"
	KindRecordDeleted   Kind = "record_deleted"
	KindGoalUpdated     Kind = "goal_updated"
	KindHistoryAppended Kind = "history_appended"
)

// Event is a single telemetry record.
type Event struct {
	Kind     Kind          `json:"kind"`
	Domain   string        `json:"domain,omitempty"`
	Path     string        `json:"path,omitempty"`
	Day      string        `json:"day,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	At       time.Time     `json:"at"`
}

// Sink receives events. Emit must return promptly and never panic.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Nop discards every event.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(Event) {}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return Nop{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// Stamp fills At when unset.
func Stamp(e Event) Event {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return e
}

// LogSink writes events to a slog.Logger. Failures log at warn, the rest at debug.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink, falling back to slog.Default when logger is nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Emit logs e.
func (s *LogSink) Emit(e Event) {
	level := slog.LevelDebug
	if e.Kind == KindLoadFailed || e.Kind == KindWriteFailed {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{slog.String("kind", string(e.Kind))}
	if e.Domain != "" {
		attrs = append(attrs, slog.String("domain", e.Domain))
	}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Day != "" {
		attrs = append(attrs, slog.String("day", e.Day))
	}
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	if e.Err != "" {
		attrs = append(attrs, slog.String("error", e.Err))
	}
	if e.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", e.Duration))
	}
	s.logger.LogAttrs(context.Background(), level, "telemetry", attrs...)
}

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
