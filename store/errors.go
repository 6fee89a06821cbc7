package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies store failures for callers that react differently to
// configuration problems than to transient ones.
type ErrorKind int

const (
	// Unavailable covers network and backend outages. Retrying is the
	// caller's decision; the store never retries on its own.
	Unavailable ErrorKind = iota
	// PermissionDenied means the backend's access rules rejected the
	// operation. Not retryable.
	PermissionDenied
	// NotFound means the addressed document does not exist.
	NotFound
	// IndexMissing means a filtered+ordered query needs a composite index
	// that has not been created. Recoverable only by an operator; the error
	// names the exact index so they can create it.
	IndexMissing
)

func (k ErrorKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case PermissionDenied:
		return "permission denied"
	case NotFound:
		return "not found"
	case IndexMissing:
		return "index missing"
	}
	return "unknown"
}

// IndexField is one field of a composite index specification.
type IndexField struct {
	Field string
	Desc  bool
}

// StoreError is the typed failure surface of every Store operation.
type StoreError struct {
	Kind    ErrorKind
	Message string
	// Index describes the missing composite index when Kind is IndexMissing.
	Index *IndexSpec
	Err    error
}

// IndexSpec names a composite index an operator must create.
type IndexSpec struct {
	Collection string
	Fields     []IndexField
}

func (s *IndexSpec) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		dir := "asc"
		if f.Desc {
			dir = "desc"
		}
		parts[i] = f.Field + " " + dir
	}
	return fmt.Sprintf("%s(%s)", s.Collection, strings.Join(parts, ", "))
}

func (e *StoreError) Error() string {
	if e.Kind == IndexMissing && e.Index != nil {
		return fmt.Sprintf("store: %s: required index %s", e.Kind, e.Index)
	}
	if e.Message != "" {
		return fmt.Sprintf("store: %s: %s", e.Kind, e.Message)
	}
	return "store: " + e.Kind.String()
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewError builds a StoreError of the given kind.
func NewError(kind ErrorKind, msg string) *StoreError {
	return &StoreError{Kind: kind, Message: msg}
}

// IsKind reports whether err is a StoreError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == kind
}

// IsNotFound reports whether err is a NotFound store error.
func IsNotFound(err error) bool { return IsKind(err, NotFound) }

// IsIndexMissing reports whether err is an IndexMissing store error.
func IsIndexMissing(err error) bool { return IsKind(err, IndexMissing) }
