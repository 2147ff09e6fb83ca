// ABOUTME: Capped, newest-first history log stored as a single JSON document.
// ABOUTME: Appends prepend the entry and trim the list to the retention cap.
package history

import (
	"github.com/harperreed/fitlog/internal/docstore"
)

// DefaultMaxCount is the retention cap used when none is configured.
const DefaultMaxCount = 200

type document[E any] struct {
	Entries []E `json:"entries"`
}

func (d *document[E]) RequiredFields() []string {
	return []string{"entries"}
}

// Log is an ordered list of entries persisted at one path.
type Log[E any] struct {
	docs *docstore.Store
	path string
}

// New returns a Log stored at path inside docs.
func New[E any](docs *docstore.Store, path string) *Log[E] {
	return &Log[E]{docs: docs, path: path}
}

// Path returns the store-relative document path.
func (l *Log[E]) Path() string {
	return l.path
}

// Load returns every stored entry, newest first. A missing document yields an empty list.
func (l *Log[E]) Load() ([]E, error) {
	doc, err := docstore.Load[document[E]](l.docs, l.path)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Entries == nil {
		return []E{}, nil
	}
	return doc.Entries, nil
}

// LoadLatest returns at most limit entries, newest first. limit <= 0 returns all.
func (l *Log[E]) LoadLatest(limit int) ([]E, error) {
	entries, err := l.Load()
	if err != nil {
		return nil, err
	}
	return Latest(entries, limit), nil
}

// Save replaces the whole document with entries.
func (l *Log[E]) Save(entries []E) error {
	if entries == nil {
		entries = []E{}
	}
	return l.docs.Write(l.path, document[E]{Entries: entries})
}

// Append prepends e and rewrites the document with at most maxCount entries.
// A corrupted document is treated as empty. I/O read failures abort the append.
func (l *Log[E]) Append(e E, maxCount int) error {
	entries, err := l.Load()
	if err != nil {
		if !docstore.IsCorruption(err) {
			return err
		}
		entries = nil
	}
	return l.Save(Prepend(entries, e, maxCount))
}

// Prepend returns a new slice with e first, followed by list, trimmed to maxCount.
// maxCount <= 0 means DefaultMaxCount. list is not modified.
func Prepend[E any](list []E, e E, maxCount int) []E {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	n := len(list) + 1
	if n > maxCount {
		n = maxCount
	}
	out := make([]E, 0, n)
	out = append(out, e)
	out = append(out, list[:n-1]...)
	return out
}

// Latest returns the first limit entries of list. limit <= 0 returns list unchanged.
func Latest[E any](list []E, limit int) []E {
	if limit <= 0 || limit >= len(list) {
		return list
	}
	return list[:limit]
}
