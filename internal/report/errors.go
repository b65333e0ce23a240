package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/report-ingest/internal/pdf"
)

// ErrorKind classifies ingestion failures by the scope they are recovered at
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindDecode: a document cannot be opened or parsed; the document is skipped
	KindDecode
	// KindPage: one page cannot be read; the page is skipped
	KindPage
	// KindRowShape: a table row has fewer cells than the schema; the row is skipped
	KindRowShape
	// KindStore: schema, connection or insert failure
	KindStore
	// KindTimeout: the per-document time budget ran out
	KindTimeout
)

// String returns a string representation of the ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindDecode:
		return "DECODE"
	case KindPage:
		return "PAGE"
	case KindRowShape:
		return "ROW_SHAPE"
	case KindStore:
		return "STORE"
	case KindTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Error carries the kind and location of an ingestion failure.
type Error struct {
	Kind ErrorKind
	Path string
	Page int // 1-indexed, 0 when not page specific
	Row  int // 0-indexed within the extracted rows, -1 when not row specific
	Err  error
}

// NewError creates an error that is not tied to a page or row
func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Row: -1, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Path)
	if e.Page > 0 {
		msg += fmt.Sprintf(" page %d", e.Page)
	}
	if e.Row >= 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err, looking through wrapped errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var reportErr *Error
	if errors.As(err, &reportErr) {
		return reportErr.Kind
	}

	var pageErr *pdf.PageError
	if errors.As(err, &pageErr) {
		return KindPage
	}

	var decodeErr *pdf.DecodeError
	if errors.As(err, &decodeErr) {
		return KindDecode
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindUnknown
}
