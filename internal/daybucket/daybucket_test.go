// ABOUTME: Tests for day-bucket documents.
// ABOUTME: Covers file naming, round-trips, and day listing.
package daybucket

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/telemetry"
)

type item struct {
	Name string  `json:"name"`
	Kcal float64 `json:"kcal"`
}

type goal struct {
	Kcal float64 `json:"kcal"`
}

func newStore(t *testing.T) (*Store[item, goal], *docstore.Store, *telemetry.Recorder) {
	t.Helper()
	rec := &telemetry.Recorder{}
	docs := docstore.New(t.TempDir(), docstore.WithSink(rec))
	return NewStore[item, goal](docs, "nutrition"), docs, rec
}

func TestFilenameForIsDeterministicWithinADay(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	morning := time.Date(2026, 2, 10, 0, 0, 0, 0, loc)
	night := time.Date(2026, 2, 10, 23, 59, 59, 999, loc)

	assert.Equal(t, "2026-02-10.json", FilenameFor(morning))
	assert.Equal(t, FilenameFor(morning), FilenameFor(night))
	assert.NotEqual(t, FilenameFor(night), FilenameFor(night.Add(time.Second)))
}

func TestFilenameIsZeroPadded(t *testing.T) {
	assert.Equal(t, "2026-03-04.json", Filename(models.NewDay(2026, 3, 4)))
	assert.Equal(t, "nutrition/2026-03-04.json", NewStore[item, goal](nil, "nutrition").PathFor(models.NewDay(2026, 3, 4)))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _, _ := newStore(t)
	day := models.NewDay(2026, 1, 5)
	b := New[item](day, goal{Kcal: 1800})
	b.Entries = append(b.Entries, item{Name: "toast", Kcal: 200}, item{Name: "soup", Kcal: 350})

	require.NoError(t, s.Save(b))

	got, err := s.Load(day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b, *got)
}

func TestLoadMissingDay(t *testing.T) {
	s, _, rec := newStore(t)

	got, err := s.Load(models.NewDay(2026, 1, 5))
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, rec.Events())
}

func TestLoadCorruptedDay(t *testing.T) {
	s, docs, rec := newStore(t)
	day := models.NewDay(2026, 1, 5)
	p, err := docs.Path(s.PathFor(day))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(docs.Root()+"/nutrition", 0o750))
	require.NoError(t, os.WriteFile(p, []byte(`{"date":"2026-01-05","config":{"kcal":1},"entries":[{"name":`), 0o600))

	got, err := s.Load(day)
	assert.Nil(t, got)
	assert.True(t, docstore.IsCorruption(err))
	assert.Equal(t, 1, rec.Count(telemetry.KindLoadFailed))
}

func TestLoadBadDateIsTypeMismatch(t *testing.T) {
	s, docs, _ := newStore(t)
	day := models.NewDay(2026, 1, 5)
	p, err := docs.Path(s.PathFor(day))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(docs.Root()+"/nutrition", 0o750))
	require.NoError(t, os.WriteFile(p, []byte(`{"date":"bogus","config":{"kcal":1},"entries":[]}`), 0o600))

	_, err = s.Load(day)
	assert.True(t, docstore.IsCorruption(err))
	assert.Equal(t, docstore.TypeMismatch, docstore.CorruptionOf(err))

	var re *docstore.ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "date", re.Field)
}

func TestLoadMissingEntriesKey(t *testing.T) {
	s, docs, _ := newStore(t)
	day := models.NewDay(2026, 1, 6)
	require.NoError(t, docs.Write(s.PathFor(day), map[string]any{"date": "2026-01-06", "config": goal{}}))

	_, err := s.Load(day)
	assert.Equal(t, docstore.MissingField, docstore.CorruptionOf(err))
}

func TestSaveNilEntriesWritesEmptyArray(t *testing.T) {
	s, _, _ := newStore(t)
	day := models.NewDay(2026, 1, 7)

	require.NoError(t, s.Save(Bucket[item, goal]{Date: day}))

	got, err := s.Load(day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.Entries)
	assert.Empty(t, got.Entries)
}

func TestSaveRequiresDate(t *testing.T) {
	s, _, _ := newStore(t)
	assert.Error(t, s.Save(Bucket[item, goal]{}))
}

func TestDaysSorted(t *testing.T) {
	s, _, _ := newStore(t)
	for _, d := range []models.Day{models.NewDay(2026, 1, 9), models.NewDay(2025, 12, 31), models.NewDay(2026, 1, 1)} {
		require.NoError(t, s.Save(New[item](d, goal{})))
	}

	days, err := s.Days()
	require.NoError(t, err)
	assert.Equal(t, []models.Day{models.NewDay(2025, 12, 31), models.NewDay(2026, 1, 1), models.NewDay(2026, 1, 9)}, days)
}

func TestCloneDoesNotAlias(t *testing.T) {
	b := New[item](models.NewDay(2026, 1, 1), goal{})
	b.Entries = append(b.Entries, item{Name: "a"})
	c := b.Clone()
	c.Entries[0].Name = "b"

	assert.Equal(t, "a", b.Entries[0].Name)
}
