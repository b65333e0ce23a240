package pdf

import (
	"fmt"
	"iter"
)

// Row is one table row. Cells that are absent in the source are empty strings.
type Row []string

// Table is an ordered grid of rows as detected on a page.
type Table []Row

// Opener opens a document for reading. Callers must Close the returned
// Document on every exit path.
type Opener interface {
	Open(path string) (Document, error)
}

// Document is an opened handle over an ordered, finite sequence of pages.
type Document interface {
	// Path returns the file the document was opened from
	Path() string

	// Pages yields pages in document order. A non-nil error accompanies a
	// page that could not be loaded; iteration continues with the next one.
	Pages() iter.Seq2[Page, error]

	Close() error
}

// Page is a read-only view of a single page.
type Page interface {
	// Number returns the 1-indexed page number
	Number() int

	// Text returns the page's plain text, one visual line per text line
	Text() (string, error)

	// Tables returns the tables detected on the page in detection order
	Tables() ([]Table, error)
}

// PageError reports a failure to decode a single page.
type PageError struct {
	Page int
	Op   string
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Op, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// DecodeError reports a document that could not be opened or parsed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
