// ABOUTME: Charm KV client wrapper used to mirror fitlog documents to Charm Cloud.
// ABOUTME: Serializes access to the KV store and syncs after each write when enabled.
package charm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
)

const (
	dbName    = "fitlog"
	charmHost = "charm.2389.dev"
)

// ErrReadOnly is returned for writes while another process holds the KV lock.
var ErrReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// KV is the subset of the Charm key-value store the mirror uses.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	IsReadOnly() bool
	Close() error
}

var _ KV = (*kv.KV)(nil)

// Client guards a KV store.
type Client struct {
	kv       KV
	autoSync bool
	mu       sync.RWMutex
}

// Open opens the fitlog KV database against the Charm host and pulls remote state.
func Open() (*Client, error) {
	if os.Getenv("CHARM_HOST") == "" {
		if err := os.Setenv("CHARM_HOST", charmHost); err != nil {
			return nil, fmt.Errorf("set charm host: %w", err)
		}
	}
	db, err := kv.OpenWithDefaultsFallback(dbName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}
	c := NewClient(db)
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return c, nil
}

// NewClient wraps store with auto-sync enabled.
func NewClient(store KV) *Client {
	return &Client{kv: store, autoSync: true}
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Set stores data under key.
func (c *Client) Set(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if err := c.kv.Set([]byte(key), data); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

// Get returns the value stored under key.
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get([]byte(key))
}

// Delete removes key.
func (c *Client) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if err := c.kv.Delete([]byte(key)); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

// Keys returns every key starting with prefix.
func (c *Client) Keys(prefix string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, key := range keys {
		if bytes.HasPrefix(key, []byte(prefix)) {
			out = append(out, string(key))
		}
	}
	return out, nil
}
