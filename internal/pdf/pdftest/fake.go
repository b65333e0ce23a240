// Package pdftest provides in-memory documents for testing code that
// consumes the pdf page source.
package pdftest

import (
	"fmt"
	"iter"
	"sync"

	"github.com/a3tai/report-ingest/internal/pdf"
)

// Page is an in-memory page. TextErr and TablesErr, when set, are returned
// instead of the content.
type Page struct {
	Content   string
	Grid      []pdf.Table
	TextErr   error
	TablesErr error
}

// Document is an in-memory document. A nil entry in PageData is yielded as a
// page load failure.
type Document struct {
	Name     string
	PageData []*Page

	mu          sync.Mutex
	closed      bool
	textReads   int
	tablesReads int
}

// NewDocument creates a document named path with the given pages
func NewDocument(path string, pages ...*Page) *Document {
	return &Document{Name: path, PageData: pages}
}

func (d *Document) Path() string {
	return d.Name
}

func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close has been called
func (d *Document) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// TextReads returns how many times page text was requested
func (d *Document) TextReads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textReads
}

// TablesReads returns how many times page tables were requested
func (d *Document) TablesReads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tablesReads
}

// Pages implements pdf.Document
func (d *Document) Pages() iter.Seq2[pdf.Page, error] {
	return func(yield func(pdf.Page, error) bool) {
		for i, p := range d.PageData {
			n := i + 1
			if p == nil {
				if !yield(nil, &pdf.PageError{Page: n, Op: "load", Err: fmt.Errorf("corrupt page")}) {
					return
				}
				continue
			}
			if !yield(&page{doc: d, page: p, number: n}, nil) {
				return
			}
		}
	}
}

type page struct {
	doc    *Document
	page   *Page
	number int
}

func (p *page) Number() int {
	return p.number
}

func (p *page) Text() (string, error) {
	p.doc.mu.Lock()
	p.doc.textReads++
	p.doc.mu.Unlock()

	if p.page.TextErr != nil {
		return "", &pdf.PageError{Page: p.number, Op: "text", Err: p.page.TextErr}
	}
	return p.page.Content, nil
}

func (p *page) Tables() ([]pdf.Table, error) {
	p.doc.mu.Lock()
	p.doc.tablesReads++
	p.doc.mu.Unlock()

	if p.page.TablesErr != nil {
		return nil, &pdf.PageError{Page: p.number, Op: "tables", Err: p.page.TablesErr}
	}
	return p.page.Grid, nil
}

// Opener serves in-memory documents by path. Paths listed in Errors fail
// to open with a *pdf.DecodeError.
type Opener struct {
	Docs   map[string]*Document
	Errors map[string]error

	mu     sync.Mutex
	opened []string
}

// NewOpener creates an opener serving the given documents
func NewOpener(docs ...*Document) *Opener {
	o := &Opener{
		Docs:   make(map[string]*Document),
		Errors: make(map[string]error),
	}
	for _, d := range docs {
		o.Docs[d.Name] = d
	}
	return o
}

// Open implements pdf.Opener
func (o *Opener) Open(path string) (pdf.Document, error) {
	o.mu.Lock()
	o.opened = append(o.opened, path)
	o.mu.Unlock()

	if err, ok := o.Errors[path]; ok {
		return nil, &pdf.DecodeError{Path: path, Err: err}
	}
	doc, ok := o.Docs[path]
	if !ok {
		return nil, &pdf.DecodeError{Path: path, Err: fmt.Errorf("no such document")}
	}
	return doc, nil
}

// Opened returns the paths passed to Open, in call order
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

// ReportTable builds an assessment table: the marker header, an empty
// sub-header, then the given subject rows.
func ReportTable(rows ...pdf.Row) pdf.Table {
	table := pdf.Table{
		{"Areas Of Assessment", "", "", "", "", ""},
		{"", "", "", "", "", ""},
	}
	return append(table, rows...)
}
