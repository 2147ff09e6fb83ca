// ABOUTME: Best-effort mirror of persisted documents into Charm KV.
// ABOUTME: Keys are the store-relative path with "/" replaced by ":" and the .json suffix dropped.
package charm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/harperreed/fitlog/internal/cache"
	"github.com/harperreed/fitlog/internal/docstore"
)

const docExt = ".json"

// KeyFor maps a store-relative document path to its KV key.
func KeyFor(rel string) string {
	return strings.ReplaceAll(strings.TrimSuffix(rel, docExt), "/", ":")
}

// PathFor maps a KV key back to its store-relative document path.
func PathFor(key string) string {
	return strings.ReplaceAll(key, ":", "/") + docExt
}

// Mirror copies documents from a docstore into a Client.
type Mirror struct {
	client  *Client
	docs    *docstore.Store
	domains []string
	logger  *slog.Logger

	wg     sync.WaitGroup
	mu     sync.Mutex
	pushed int
	failed int
}

// NewMirror returns a Mirror for the given domains.
func NewMirror(client *Client, docs *docstore.Store, domains []string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{client: client, docs: docs, domains: domains, logger: logger}
}

// Start pushes every persisted document reported on notices until the channel closes.
func (m *Mirror) Start(notices <-chan cache.Notice) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for n := range notices {
			if n.Kind != cache.NoticePersisted || n.Path == "" {
				continue
			}
			if err := m.Push(n.Path); err != nil {
				m.logger.Warn("mirror push failed", "path", n.Path, "error", err)
			}
		}
	}()
}

// Wait blocks until the notice channel given to Start has closed and drained.
func (m *Mirror) Wait() {
	m.wg.Wait()
}

// Stats reports how many pushes succeeded and failed.
func (m *Mirror) Stats() (pushed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushed, m.failed
}

// Push copies the document at rel to its key, or deletes the key when the document is gone.
func (m *Mirror) Push(rel string) error {
	err := m.push(rel)
	m.mu.Lock()
	if err != nil {
		m.failed++
	} else {
		m.pushed++
	}
	m.mu.Unlock()
	return err
}

func (m *Mirror) push(rel string) error {
	var raw json.RawMessage
	found, err := m.docs.Read(rel, &raw)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	key := KeyFor(rel)
	if !found {
		if err := m.client.Delete(key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	}
	if err := m.client.Set(key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	m.logger.Debug("mirrored document", "path", rel, "key", key)
	return nil
}

// PushAll copies every stored document in the mirrored domains. Corrupt documents are skipped.
func (m *Mirror) PushAll() (int, error) {
	n := 0
	for _, domain := range m.domains {
		names, err := m.docs.List(domain, docExt)
		if err != nil {
			return n, fmt.Errorf("list %s: %w", domain, err)
		}
		for _, name := range names {
			rel := domain + "/" + name
			if err := m.Push(rel); err != nil {
				if docstore.IsCorruption(err) {
					m.logger.Warn("skipping corrupt document", "path", rel, "error", err)
					continue
				}
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// Pull writes every mirrored document that is missing locally. Existing local files win.
func (m *Mirror) Pull() ([]string, error) {
	var restored []string
	for _, domain := range m.domains {
		keys, err := m.client.Keys(domain + ":")
		if err != nil {
			return restored, fmt.Errorf("list keys: %w", err)
		}
		sort.Strings(keys)
		for _, key := range keys {
			rel := PathFor(key)
			exists, err := m.docs.Exists(rel)
			if err != nil {
				return restored, err
			}
			if exists {
				continue
			}
			data, err := m.client.Get(key)
			if err != nil {
				return restored, fmt.Errorf("get %s: %w", key, err)
			}
			if !json.Valid(data) {
				m.logger.Warn("skipping invalid mirrored document", "key", key)
				continue
			}
			if err := m.docs.Write(rel, json.RawMessage(data)); err != nil {
				return restored, err
			}
			restored = append(restored, rel)
		}
	}
	return restored, nil
}
