package pdf

import (
	"fmt"
	"iter"
	"math"
	"os"
	"runtime/debug"
	"sync"

	"github.com/ledongthuc/pdf"
)

// LedongthucOpener opens documents with ledongthuc/pdf and rebuilds page
// text and tables from positioned text runs.
type LedongthucOpener struct {
	layout LayoutConfig
}

// NewLedongthucOpener creates an opener using the given layout configuration
func NewLedongthucOpener(layout LayoutConfig) *LedongthucOpener {
	return &LedongthucOpener{layout: layout}
}

// Open opens a PDF from a file path
func (o *LedongthucOpener) Open(path string) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &DecodeError{Path: path, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	return &ledongthucDocument{
		path:   path,
		file:   f,
		reader: reader,
		layout: o.layout,
	}, nil
}

type ledongthucDocument struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	layout LayoutConfig

	// the reader caches decoded objects and is not safe for concurrent use
	mu     sync.Mutex
	closed bool
	// pages are shared between concurrent iterations so each decodes once
	pages map[int]*ledongthucPage
}

func (d *ledongthucDocument) Path() string {
	return d.path
}

func (d *ledongthucDocument) Pages() iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			yield(nil, &DecodeError{Path: d.path, Err: fmt.Errorf("document is closed")})
			return
		}
		total := d.reader.NumPage()
		d.mu.Unlock()

		for n := 1; n <= total; n++ {
			page, err := d.page(n)
			if !yield(page, err) {
				return
			}
		}
	}
}

func (d *ledongthucDocument) page(n int) (page Page, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = &PageError{Page: n, Op: "load", Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	if d.closed {
		return nil, &PageError{Page: n, Op: "load", Err: fmt.Errorf("document is closed")}
	}

	if cached, ok := d.pages[n]; ok {
		return cached, nil
	}

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, &PageError{Page: n, Op: "load", Err: fmt.Errorf("page object is missing")}
	}

	lp := &ledongthucPage{doc: d, page: p, number: n}
	if d.pages == nil {
		d.pages = make(map[int]*ledongthucPage)
	}
	d.pages[n] = lp
	return lp, nil
}

func (d *ledongthucDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

type ledongthucPage struct {
	doc    *ledongthucDocument
	page   pdf.Page
	number int

	once  sync.Once
	lines []line
	err   error
}

func (p *ledongthucPage) Number() int {
	return p.number
}

func (p *ledongthucPage) Text() (string, error) {
	lines, err := p.load()
	if err != nil {
		return "", &PageError{Page: p.number, Op: "text", Err: err}
	}
	return joinLines(lines), nil
}

func (p *ledongthucPage) Tables() ([]Table, error) {
	lines, err := p.load()
	if err != nil {
		return nil, &PageError{Page: p.number, Op: "tables", Err: err}
	}
	return detectTables(lines, p.doc.layout), nil
}

// load decodes the page's positioned text once and caches the merged lines.
func (p *ledongthucPage) load() ([]line, error) {
	p.once.Do(func() {
		p.lines, p.err = p.decode()
	})
	return p.lines, p.err
}

func (p *ledongthucPage) decode() (lines []line, err error) {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("decoder panic: %v\n%s", r, debug.Stack())
		}
	}()

	if p.doc.closed {
		return nil, fmt.Errorf("document is closed")
	}

	content := p.page.Content()
	lines = groupLines(glyphsFromText(content.Text), p.doc.layout)
	return withRuledRows(lines, rulesFromRects(content.Rect), p.doc.layout), nil
}

func rulesFromRects(rects []pdf.Rect) []rule {
	rules := make([]rule, 0, len(rects))
	for _, r := range rects {
		rules = append(rules, rule{
			y0: math.Min(r.Min.Y, r.Max.Y),
			y1: math.Max(r.Min.Y, r.Max.Y),
		})
	}
	return rules
}

// glyphsFromText converts decoded text runs into glyphs. Fonts without a
// widths array decode with zero width and no advance, leaving every glyph
// of a run at the run's origin; those glyphs are laid out one estimated
// advance apart.
func glyphsFromText(texts []pdf.Text) []glyph {
	glyphs := make([]glyph, 0, len(texts))
	var prev pdf.Text
	for i, t := range texts {
		// run separators emitted by the decoder
		if t.S == "" || t.S == "\n" || t.S == "\r" {
			prev = pdf.Text{}
			continue
		}

		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		g := glyph{x: t.X, y: t.Y, w: t.W, size: size, s: t.S}

		if g.w <= 0 {
			g.w = size * advanceRatio
			if i+1 < len(texts) {
				next := texts[i+1]
				if next.Y == t.Y && next.X > t.X && next.X-t.X < size*2 {
					g.w = next.X - t.X
				}
			}
		}

		if prev.S != "" && prev.W <= 0 && t.X == prev.X && t.Y == prev.Y {
			last := glyphs[len(glyphs)-1]
			g.x = last.x + last.w
		}

		glyphs = append(glyphs, g)
		prev = t
	}
	return glyphs
}
