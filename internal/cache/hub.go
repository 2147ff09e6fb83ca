// ABOUTME: Hub fans change and advisory notices out to subscribers.
// ABOUTME: Publishing never blocks; slow subscribers miss notices.
package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harperreed/fitlog/internal/models"
)

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	// NoticeChanged means in-memory state changed and readers should refresh.
	NoticeChanged NoticeKind = iota + 1
	// NoticePersisted means a document reached disk.
	NoticePersisted
	// NoticeAdvisory is a user-facing warning about a load or save failure.
	NoticeAdvisory
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeChanged:
		return "changed"
	case NoticePersisted:
		return "persisted"
	case NoticeAdvisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Notice is delivered to subscribers.
type Notice struct {
	Kind    NoticeKind
	Domain  string
	Day     models.Day
	Path    string
	Message string
	Err     error
	At      time.Time
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %v", n.Message, n.Err)
	}
	return n.Message
}

// DefaultSubscriberBuffer is used when Subscribe is given a non-positive buffer.
const DefaultSubscriberBuffer = 32

// Hub is a broadcast point for notices.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Notice]struct{}
	logger  *slog.Logger
	dropped atomic.Uint64
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[chan Notice]struct{}), logger: logger}
}

// Subscribe returns a channel of notices and a function that cancels the subscription.
func (h *Hub) Subscribe(buffer int) (<-chan Notice, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan Notice, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers n to every subscriber that has room for it.
func (h *Hub) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.dropped.Add(1)
			h.logger.Debug("notice dropped, subscriber full", "kind", n.Kind.String(), "domain", n.Domain)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
