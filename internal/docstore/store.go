// ABOUTME: Store writes JSON documents atomically and reads them back with classified errors.
// ABOUTME: Writes go to a temp file in the target directory, are synced, then renamed over the target.
package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/fitlog/internal/telemetry"
)

// tempMarker separates the target name from the random suffix of temp files.
const tempMarker = ".tmp-"

// DefaultStaleAge is how old a leftover temp file must be before Write removes it.
const DefaultStaleAge = time.Hour

// Requirer is implemented by documents with top-level keys that must be present and non-null.
type Requirer interface {
	RequiredFields() []string
}

// Store reads and writes documents under a root directory.
// Paths passed to Store methods are slash-separated and relative to the root.
type Store struct {
	root     string
	sink     telemetry.Sink
	logger   *slog.Logger
	staleAge time.Duration
	rename   func(oldpath, newpath string) error
	readFile func(name string) ([]byte, error)
}

// Option configures a Store.
type Option func(*Store)

// WithSink sets the telemetry sink for read and write failures.
func WithSink(s telemetry.Sink) Option {
	return func(st *Store) {
		if s != nil {
			st.sink = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(st *Store) {
		if l != nil {
			st.logger = l
		}
	}
}

// WithStaleAge sets the age after which leftover temp files are cleaned up.
func WithStaleAge(d time.Duration) Option {
	return func(st *Store) { st.staleAge = d }
}

// WithRenameFunc replaces the final rename step. Used to simulate crashes.
func WithRenameFunc(fn func(oldpath, newpath string) error) Option {
	return func(st *Store) { st.rename = fn }
}

// WithReadFunc replaces the file read used by Read. Used to simulate unreadable files.
func WithReadFunc(fn func(name string) ([]byte, error)) Option {
	return func(st *Store) { st.readFile = fn }
}

// New creates a Store rooted at root. The directory is created lazily on first write.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:     root,
		sink:     telemetry.Nop{},
		logger:   slog.Default(),
		staleAge: DefaultStaleAge,
		rename:   os.Rename,
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// Path resolves rel to an absolute file path inside the root.
func (s *Store) Path(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "\\") || clean != "/"+strings.TrimPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

// Write encodes v as indented JSON and atomically replaces rel with it.
// Missing parent directories are created. On any error the previous file is unchanged.
func (s *Store) Write(rel string, v any) error {
	err := s.write(rel, v)
	if err != nil {
		s.report(telemetry.KindWriteFailed, rel, err)
	}
	return err
}

func (s *Store) write(rel string, v any) error {
	target, err := s.Path(rel)
	if err != nil {
		return &WriteError{Path: rel, Stage: StageTemp, Err: err}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &WriteError{Path: rel, Stage: StageEncode, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &WriteError{Path: rel, Stage: StageMkdir, Err: err}
	}
	s.cleanupStale(dir, filepath.Base(target))

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+tempMarker+"*")
	if err != nil {
		return &WriteError{Path: rel, Stage: StageTemp, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: rel, Stage: StageWrite, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: rel, Stage: StageSync, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: rel, Stage: StageWrite, Err: err}
	}
	if err := s.rename(tmpName, target); err != nil {
		return &WriteError{Path: rel, Stage: StageRename, Err: err}
	}
	committed = true
	syncDir(dir)

	s.logger.Debug("document written", "path", rel, "bytes", len(data))
	return nil
}

// Read decodes rel into v. It returns found=false with a nil error when the file does not exist.
// Every other failure is returned as a *ReadError and reported to the sink exactly once.
func (s *Store) Read(rel string, v any) (found bool, err error) {
	found, err = s.read(rel, v)
	if err != nil {
		s.report(telemetry.KindLoadFailed, rel, err)
	}
	return found, err
}

func (s *Store) read(rel string, v any) (bool, error) {
	target, err := s.Path(rel)
	if err != nil {
		return false, &ReadError{Path: rel, Kind: KindIO, Err: err}
	}
	data, err := s.readFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &ReadError{Path: rel, Kind: KindIO, Err: err}
	}
	if err := decode(data, v); err != nil {
		err.Path = rel
		return false, err
	}
	return true, nil
}

// Load reads rel into a new T. A missing file returns (nil, nil).
func Load[T any](s *Store, rel string) (*T, error) {
	var v T
	found, err := s.Read(rel, &v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func decode(data []byte, v any) *ReadError {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return &ReadError{Kind: KindCorruption, Corruption: MissingValue, Err: errors.New("document is null")}
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		re := classify(err)
		var parseErr *time.ParseError
		if errors.As(err, &parseErr) {
			re.Field = fieldHolding(trimmed, parseErr.Value)
		}
		return re
	}
	req, ok := v.(Requirer)
	if !ok {
		return nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return classify(err)
	}
	for _, field := range req.RequiredFields() {
		raw, present := top[field]
		if !present {
			return &ReadError{Kind: KindCorruption, Corruption: MissingField, Field: field, Err: errors.New("required key not found")}
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return &ReadError{Kind: KindCorruption, Corruption: MissingValue, Field: field, Err: errors.New("required value is null")}
		}
	}
	return nil
}

func classify(err error) *ReadError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(document)"
		}
		return &ReadError{Kind: KindCorruption, Corruption: TypeMismatch, Field: field, Err: err}
	}
	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		return &ReadError{Kind: KindCorruption, Corruption: TypeMismatch, Field: "(document)", Err: err}
	}
	return &ReadError{Kind: KindCorruption, Corruption: Malformed, Err: err}
}

// fieldHolding names the top-level key whose string value is value.
// Text unmarshalers don't report which key they were decoding.
func fieldHolding(data []byte, value string) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "(document)"
	}
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var s string
		if json.Unmarshal(top[k], &s) == nil && s == value {
			return k
		}
	}
	return "(document)"
}

// Exists reports whether rel is present.
func (s *Store) Exists(rel string) (bool, error) {
	target, err := s.Path(rel)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Remove deletes rel. Removing a missing file is not an error.
func (s *Store) Remove(rel string) error {
	target, err := s.Path(rel)
	if err != nil {
		return &WriteError{Path: rel, Stage: StageRemove, Err: err}
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		werr := &WriteError{Path: rel, Stage: StageRemove, Err: err}
		s.report(telemetry.KindWriteFailed, rel, werr)
		return werr
	}
	syncDir(filepath.Dir(target))
	return nil
}

// List returns the base names of regular files in dir ending in ext, sorted.
// Temp files are skipped. A missing directory yields an empty list.
func (s *Store) List(dir, ext string) ([]string, error) {
	target, err := s.Path(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// cleanupStale removes temp files for base that are older than the stale age.
// Failures are ignored.
func (s *Store) cleanupStale(dir, base string) {
	if s.staleAge <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(dir, "."+globEscape(base)+tempMarker+"*"))
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-s.staleAge)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(m); err == nil {
			s.logger.Debug("removed stale temp file", "path", m)
		}
	}
}

func (s *Store) report(kind telemetry.Kind, rel string, err error) {
	s.sink.Emit(telemetry.Stamp(telemetry.Event{
		Kind:   kind,
		Domain: domainOf(rel),
		Path:   rel,
		Err:    err.Error(),
	}))
}

// domainOf returns the first path segment, which names the feature area.
func domainOf(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

func globEscape(s string) string {
	r := strings.NewReplacer("*", "\\*", "?", "\\?", "[", "\\[", "\\", "\\\\")
	return r.Replace(s)
}

// syncDir flushes directory metadata so a rename survives a crash. Best effort.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
