package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal precondition errors. The run never starts when one of these is hit.
var (
	ErrNoInputFile = errors.New("no input file selected")
	ErrNoRaster    = errors.New("no raster selected")
)

// UnresolvedFieldError reports a required semantic field with no matching
// column, by override or default. It carries the full header list so the
// operator can diagnose the mismatch from the log alone.
type UnresolvedFieldError struct {
	Field   string
	Headers []string
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("required field %q has no matching column (headers: %s)",
		e.Field, strings.Join(e.Headers, ", "))
}

// MissingCategoryError reports a category key absent from both the embedded
// and fallback DDF sources. Per-record, never run-fatal.
type MissingCategoryError struct {
	Key string
}

func (e *MissingCategoryError) Error() string {
	return fmt.Sprintf("no DDF curve for category %q", e.Key)
}

// ErrorKind classifies per-record failures for counting and summary output.
type ErrorKind string

const (
	KindInvalidCoordinate ErrorKind = "invalid_coordinate"
	KindMissingCategory   ErrorKind = "missing_category"
	KindNoData            ErrorKind = "nodata"
)

// RecordError is a per-record failure. It is recorded and surfaced in the
// run summary; it never aborts processing of subsequent records.
type RecordError struct {
	Row  int // zero-based input row index
	Kind ErrorKind
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
