// ABOUTME: Generic day-partitioned JSON documents, one file per calendar day.
// ABOUTME: Files are named YYYY-MM-DD.json under a per-domain directory.
package daybucket

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
)

const ext = ".json"

// Bucket holds every record of one kind for a single day plus the day's config.
type Bucket[R any, C any] struct {
	Date    models.Day `json:"date" yaml:"date"`
	Config  C          `json:"config" yaml:"config"`
	Entries []R        `json:"entries" yaml:"entries"`
}

// New returns an empty bucket for day.
func New[R any, C any](day models.Day, cfg C) Bucket[R, C] {
	return Bucket[R, C]{Date: day, Config: cfg, Entries: []R{}}
}

// RequiredFields lists the keys a stored bucket must carry.
func (b *Bucket[R, C]) RequiredFields() []string {
	return []string{"date", "config", "entries"}
}

// Clone returns a copy whose entry slice does not alias b's.
func (b Bucket[R, C]) Clone() Bucket[R, C] {
	out := b
	out.Entries = slices.Clone(b.Entries)
	if out.Entries == nil {
		out.Entries = []R{}
	}
	return out
}

// FilenameFor returns the bucket file name for the calendar day of t, read in t's location.
func FilenameFor(t time.Time) string {
	return Filename(models.DayOf(t))
}

// Filename returns the bucket file name for day.
func Filename(day models.Day) string {
	return day.String() + ext
}

// Store loads and saves buckets of one kind under dir.
type Store[R any, C any] struct {
	docs *docstore.Store
	dir  string
}

// NewStore returns a Store writing to dir inside docs.
func NewStore[R any, C any](docs *docstore.Store, dir string) *Store[R, C] {
	return &Store[R, C]{docs: docs, dir: dir}
}

// Dir returns the directory buckets are stored in.
func (s *Store[R, C]) Dir() string {
	return s.dir
}

// PathFor returns the store-relative path for day.
func (s *Store[R, C]) PathFor(day models.Day) string {
	return path.Join(s.dir, Filename(day))
}

// Load reads the bucket for day. A missing file yields (nil, nil).
// The returned bucket's Date always equals day.
func (s *Store[R, C]) Load(day models.Day) (*Bucket[R, C], error) {
	b, err := docstore.Load[Bucket[R, C]](s.docs, s.PathFor(day))
	if err != nil || b == nil {
		return nil, err
	}
	b.Date = day
	if b.Entries == nil {
		b.Entries = []R{}
	}
	return b, nil
}

// Save atomically writes b to the file for b.Date.
func (s *Store[R, C]) Save(b Bucket[R, C]) error {
	if b.Date.IsZero() {
		return fmt.Errorf("save bucket: missing date")
	}
	if b.Entries == nil {
		b.Entries = []R{}
	}
	return s.docs.Write(s.PathFor(b.Date), b)
}

// Days lists every day that has a stored bucket, oldest first.
func (s *Store[R, C]) Days() ([]models.Day, error) {
	names, err := s.docs.List(s.dir, ext)
	if err != nil {
		return nil, err
	}
	days := make([]models.Day, 0, len(names))
	for _, name := range names {
		d, err := models.ParseDay(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	slices.SortFunc(days, func(a, b models.Day) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return days, nil
}
