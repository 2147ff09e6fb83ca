// ABOUTME: Classified read and write errors for the document store.
// ABOUTME: Absence is not an error; corruption and I/O failures are distinguished.
package docstore

import (
	"errors"
	"fmt"
)

// Kind separates unreadable content from failures to reach the file.
type Kind int

const (
	KindCorruption Kind = iota + 1
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindCorruption:
		return "corruption"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Corruption narrows a KindCorruption failure.
type Corruption int

const (
	// Malformed means the bytes are not valid JSON or the document was truncated.
	Malformed Corruption = iota + 1
	// MissingField means a required top-level key is absent.
	MissingField
	// TypeMismatch means a value has the wrong JSON type for its field.
	TypeMismatch
	// MissingValue means a required key, or the whole document, is null.
	MissingValue
)

func (c Corruption) String() string {
	switch c {
	case Malformed:
		return "malformed"
	case MissingField:
		return "missing field"
	case TypeMismatch:
		return "type mismatch"
	case MissingValue:
		return "missing value"
	default:
		return "unknown"
	}
}

// ErrCorrupt matches any ReadError of kind corruption via errors.Is.
var ErrCorrupt = errors.New("docstore: corrupt document")

// ErrInvalidPath is returned for paths that escape the store root.
var ErrInvalidPath = errors.New("docstore: invalid path")

// ReadError describes a failed Read. A missing file never produces one.
type ReadError struct {
	Path       string
	Kind       Kind
	Corruption Corruption
	// Field names the offending key for MissingField, TypeMismatch, and MissingValue.
	Field string
	Err   error
}

func (e *ReadError) Error() string {
	if e.Kind == KindCorruption {
		if e.Field != "" {
			return fmt.Sprintf("read %s: %s (%s): %v", e.Path, e.Corruption, e.Field, e.Err)
		}
		return fmt.Sprintf("read %s: %s: %v", e.Path, e.Corruption, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is reports ErrCorrupt for corruption failures.
func (e *ReadError) Is(target error) bool {
	return target == ErrCorrupt && e.Kind == KindCorruption
}

// Stage identifies which step of an atomic write failed.
type Stage string

const (
	StageEncode Stage = "encode"
	StageMkdir  Stage = "mkdir"
	StageTemp   Stage = "temp"
	StageWrite  Stage = "write"
	StageSync   Stage = "sync"
	StageRename Stage = "rename"
	StageRemove Stage = "remove"
)

// WriteError describes a failed Write or Remove. The previous file, if any, is untouched.
type WriteError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsCorruption reports whether err is a corruption ReadError.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

// IsIO reports whether err is an I/O ReadError.
func IsIO(err error) bool {
	var re *ReadError
	return errors.As(err, &re) && re.Kind == KindIO
}

// CorruptionOf returns the corruption sub-kind of err, or zero.
func CorruptionOf(err error) Corruption {
	var re *ReadError
	if errors.As(err, &re) && re.Kind == KindCorruption {
		return re.Corruption
	}
	return 0
}
