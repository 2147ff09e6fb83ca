// ABOUTME: Tests for the atomic document store.
// ABOUTME: Covers atomic writes, classified read errors, and stale temp cleanup.
package docstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/fitlog/internal/telemetry"
)

type sample struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func (s *sample) RequiredFields() []string { return []string{"name", "count"} }

func newTestStore(t *testing.T, opts ...Option) (*Store, *telemetry.Recorder) {
	t.Helper()
	rec := &telemetry.Recorder{}
	opts = append([]Option{WithSink(rec)}, opts...)
	return New(t.TempDir(), opts...), rec
}

func writeRaw(t *testing.T, s *Store, rel, content string) {
	t.Helper()
	p, err := s.Path(rel)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestWriteReadRoundTrip(t *testing.T) {
	s, rec := newTestStore(t)
	in := sample{Name: "oats", Count: 3, Tags: []string{"a", "b"}}

	require.NoError(t, s.Write("nutrition/2026-01-01.json", in))

	var out sample
	found, err := s.Read("nutrition/2026-01-01.json", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
	assert.Empty(t, rec.Events())
}

func TestWriteCreatesDirectories(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Write("a/b/c/doc.json", sample{Name: "x"}))

	ok, err := s.Exists("a/b/c/doc.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWriteIsIndentedJSON(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Write("doc.json", sample{Name: "x", Count: 1}))

	p, _ := s.Path("doc.json")
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"name\""))
	assert.True(t, json.Valid(data))
}

func TestReadMissingIsNotAnError(t *testing.T) {
	s, rec := newTestStore(t)

	var out sample
	found, err := s.Read("nope/missing.json", &out)
	assert.NoError(t, err)
	assert.False(t, found)

	got, err := Load[sample](s, "nope/missing.json")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, rec.Events(), "absence must not be reported")
}

func TestReadCorruptionKinds(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Corruption
		field   string
	}{
		{name: "malformed", content: `{"name": "x", `, want: Malformed},
		{name: "not json", content: "hello", want: Malformed},
		{name: "empty", content: "", want: Malformed},
		{name: "missing field", content: `{"name": "x"}`, want: MissingField, field: "count"},
		{name: "type mismatch", content: `{"name": "x", "count": "three"}`, want: TypeMismatch, field: "count"},
		{name: "wrong top-level type", content: `[1, 2]`, want: TypeMismatch},
		{name: "null value", content: `{"name": null, "count": 1}`, want: MissingValue, field: "name"},
		{name: "null document", content: "null", want: MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestStore(t)
			writeRaw(t, s, "recovery/doc.json", tt.content)

			got, err := Load[sample](s, "recovery/doc.json")
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, IsCorruption(err))
			assert.False(t, IsIO(err))
			assert.Equal(t, tt.want, CorruptionOf(err))

			var re *ReadError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, "recovery/doc.json", re.Path)
			if tt.field != "" {
				assert.Equal(t, tt.field, re.Field)
			}

			events := rec.Events()
			require.Len(t, events, 1)
			assert.Equal(t, telemetry.KindLoadFailed, events[0].Kind)
			assert.Equal(t, "recovery", events[0].Domain)
		})
	}
}

func TestReadIOError(t *testing.T) {
	s, rec := newTestStore(t)
	// A directory where a file is expected cannot be read as a document.
	p, _ := s.Path("nutrition/day.json")
	require.NoError(t, os.MkdirAll(p, 0o750))

	var out sample
	found, err := s.Read("nutrition/day.json", &out)
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, IsIO(err))
	assert.False(t, IsCorruption(err))
	assert.Equal(t, 1, rec.Count(telemetry.KindLoadFailed))
}

func TestReadFuncFailureIsIO(t *testing.T) {
	denied := errors.New("permission denied")
	s, rec := newTestStore(t, WithReadFunc(func(string) ([]byte, error) { return nil, denied }))
	writeRaw(t, s, "workout_history.json", `[]`)

	var out []sample
	found, err := s.Read("workout_history.json", &out)
	assert.False(t, found)
	assert.True(t, IsIO(err))
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, rec.Count(telemetry.KindLoadFailed))
}

func TestFailedRenameLeavesPreviousFile(t *testing.T) {
	crash := errors.New("simulated crash")
	fail := false
	s, rec := newTestStore(t, WithRenameFunc(func(oldpath, newpath string) error {
		if fail {
			return crash
		}
		return os.Rename(oldpath, newpath)
	}))

	require.NoError(t, s.Write("doc.json", sample{Name: "old", Count: 1}))

	fail = true
	err := s.Write("doc.json", sample{Name: "new", Count: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, crash)

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, StageRename, we.Stage)
	assert.Equal(t, 1, rec.Count(telemetry.KindWriteFailed))

	got, err := Load[sample](s, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), tempMarker)
	}
}

func TestWriteEncodeError(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Write("doc.json", map[string]any{"bad": make(chan int)})
	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, StageEncode, we.Stage)

	ok, _ := s.Exists("doc.json")
	assert.False(t, ok)
}

func TestStaleTempFilesAreCleaned(t *testing.T) {
	s, _ := newTestStore(t, WithStaleAge(time.Minute))
	writeRaw(t, s, "nutrition/.day.json.tmp-123", "partial")
	writeRaw(t, s, "nutrition/.day.json.tmp-456", "partial")

	stale, _ := s.Path("nutrition/.day.json.tmp-123")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	require.NoError(t, s.Write("nutrition/day.json", sample{Name: "x", Count: 1}))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale temp file should be removed")
	fresh, _ := s.Path("nutrition/.day.json.tmp-456")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "recent temp file should be kept")
}

func TestPathRejectsEscapes(t *testing.T) {
	s, _ := newTestStore(t)

	for _, rel := range []string{"../x.json", "a/../../x.json", "", "a//b.json"} {
		_, err := s.Path(rel)
		assert.ErrorIs(t, err, ErrInvalidPath, rel)
	}
	_, err := s.Path("nutrition/2026-01-01.json")
	assert.NoError(t, err)
}

func TestListAndRemove(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Write("nutrition/2026-01-02.json", sample{Name: "b", Count: 1}))
	require.NoError(t, s.Write("nutrition/2026-01-01.json", sample{Name: "a", Count: 1}))
	writeRaw(t, s, "nutrition/.2026-01-03.json.tmp-1", "x")
	writeRaw(t, s, "nutrition/notes.txt", "x")

	names, err := s.List("nutrition", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-01.json", "2026-01-02.json"}, names)

	require.NoError(t, s.Remove("nutrition/2026-01-01.json"))
	require.NoError(t, s.Remove("nutrition/2026-01-01.json"))
	names, err = s.List("nutrition", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-02.json"}, names)

	names, err = s.List("missing", ".json")
	assert.NoError(t, err)
	assert.Empty(t, names)
}
