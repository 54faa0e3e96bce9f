package as1

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShape is wrapped by every ShapeError.
var ErrShape = errors.New("invalid input shape")

// ShapeError reports input that isn't structured the way a conversion
// requires, eg a top level JSON array where an object is expected, or a
// required field with no fallback.
type ShapeError struct {
	Path   string // offending field, eg "$" or "items[2].id"
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrShape, e.Path, e.Reason)
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// NewShapeError builds a ShapeError.
func NewShapeError(path string, format string, args ...any) *ShapeError {
	return &ShapeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal degradation, eg a dropped attachment.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// Warnings accumulates non-fatal problems found during one conversion.
type Warnings []Warning

// Add appends a warning.
func (w *Warnings) Add(path string, format string, args ...any) {
	*w = append(*w, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Extend appends other warnings, prefixing their paths.
func (w *Warnings) Extend(prefix string, other Warnings) {
	for _, o := range other {
		path := o.Path
		if prefix != "" {
			path = JoinPath(prefix, path)
		}
		*w = append(*w, Warning{Path: path, Message: o.Message})
	}
}

func (w Warnings) String() string {
	s := make([]string, len(w))
	for i, warn := range w {
		s[i] = warn.String()
	}
	return strings.Join(s, "; ")
}

// JoinPath joins field path segments, eg JoinPath("items[0]", "tags[1]").
func JoinPath(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}

// Index formats an indexed path segment, eg Index("tags", 2) is "tags[2]".
func Index(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}

// Fetcher retrieves a document by URL for optional enrichment, such as
// following an author link. It is supplied by the caller; the converters
// never do network I/O themselves. Errors mean "enrichment unavailable".
type Fetcher func(url string) ([]byte, error)
