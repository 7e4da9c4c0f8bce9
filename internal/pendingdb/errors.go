package pendingdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports that the pending database does not exist.
	ErrNotFound = errors.New("pending database not found")
	// ErrCorruptFile reports a bad magic, a short read or a record magic mismatch.
	ErrCorruptFile = errors.New("pending database is corrupt")
	// ErrUnsupportedVersion reports a schema version the loader refuses.
	ErrUnsupportedVersion = errors.New("unsupported pending database version")
)

// LoadError describes why a pending database was rejected. It matches one of
// the package sentinels via errors.Is.
type LoadError struct {
	Kind    error
	Path    string
	Version uint32
	// Index is the zero-based record index, or -1 when the failure is not
	// tied to a record.
	Index  int
	Detail string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": record %d", e.Index)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Is(target error) bool {
	return target == e.Kind
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the failure for reporting.
func (e *LoadError) ErrorKind() string {
	switch e.Kind {
	case ErrNotFound:
		return "not_found"
	case ErrUnsupportedVersion:
		return "unsupported_version"
	default:
		return "corrupt_file"
	}
}

func corrupt(path string, index int, detail string, err error) *LoadError {
	return &LoadError{Kind: ErrCorruptFile, Path: path, Index: index, Detail: detail, Err: err}
}
