package pdf

import (
	"math"
	"sort"
	"strings"
)

// LayoutConfig tunes how positioned text runs are merged into lines, cells
// and tables. Distances are in PDF points.
type LayoutConfig struct {
	// WordGapRatio is the gap, relative to font size, above which a space
	// is inserted between adjacent glyphs
	WordGapRatio float64

	// CellGap is the horizontal gap above which adjacent text starts a new cell
	CellGap float64

	// LineTolerance is how far apart two glyph baselines may be and still
	// share a line
	LineTolerance float64

	// MaxRowGap is the vertical distance above which consecutive lines
	// belong to different tables. It must leave room for a blank row.
	MaxRowGap float64

	// AlignmentTolerance is how far a cell may sit from a column anchor
	AlignmentTolerance float64

	// MinRows is the number of rows, counting an attached header, a block
	// needs to be a table
	MinRows int

	// MinCols is the number of cells a line needs to count towards MinRows
	MinCols int
}

// DefaultLayoutConfig returns the layout configuration used for report documents
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		WordGapRatio:       0.15,
		CellGap:            10.0,
		LineTolerance:      2.0,
		MaxRowGap:          60.0,
		AlignmentTolerance: 6.0,
		MinRows:            2,
		MinCols:            2,
	}
}

const (
	defaultFontSize = 12.0

	// advanceRatio approximates a glyph's advance, relative to its font
	// size, when the font carries no widths
	advanceRatio = 0.5

	// pitchTolerance is how far a row gap may stray from a whole number of
	// row pitches and still be read as blank rows
	pitchTolerance = 0.2
)

type glyph struct {
	x, y, w, size float64
	s             string
}

// cell is a run of glyphs with no cell-sized gap inside it
type cell struct {
	x0, x1 float64
	text   string
}

// line is a row of text. A line without cells stands for a ruled row that
// holds no text.
type line struct {
	y     float64
	cells []cell
}

// rule is the vertical extent of a drawn rectangle; y0 is its bottom edge
type rule struct {
	y0, y1 float64
}

func (l line) text() string {
	parts := make([]string, 0, len(l.cells))
	for _, c := range l.cells {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

// groupLines sorts glyphs top of page first and merges those whose
// baselines fall within the line tolerance.
func groupLines(glyphs []glyph, cfg LayoutConfig) []line {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].y > glyphs[j].y
	})

	var lines []line
	start := 0
	for i := 1; i <= len(glyphs); i++ {
		if i == len(glyphs) || glyphs[start].y-glyphs[i].y > cfg.LineTolerance {
			if l, ok := buildLine(glyphs[start].y, glyphs[start:i], cfg); ok {
				lines = append(lines, l)
			}
			start = i
		}
	}
	return lines
}

// buildLine merges glyphs sharing a baseline into cells. It reports false
// when the glyphs carry no visible text.
func buildLine(y float64, glyphs []glyph, cfg LayoutConfig) (line, bool) {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].x < glyphs[j].x
	})

	var (
		cells   []cell
		current *cell
		sb      strings.Builder
		prevEnd float64
	)
	flush := func() {
		if current == nil {
			return
		}
		current.text = strings.TrimSpace(sb.String())
		if current.text != "" {
			cells = append(cells, *current)
		}
		current = nil
		sb.Reset()
	}

	for _, g := range glyphs {
		if g.s == "" {
			continue
		}
		size := g.size
		if size <= 0 {
			size = defaultFontSize
		}

		if current != nil {
			gap := g.x - prevEnd
			switch {
			case gap > cfg.CellGap:
				flush()
			case gap > size*cfg.WordGapRatio:
				sb.WriteByte(' ')
			}
		}
		if current == nil {
			current = &cell{x0: g.x}
		}
		sb.WriteString(g.s)
		prevEnd = g.x + g.w
		current.x1 = prevEnd
	}
	flush()

	if len(cells) == 0 {
		return line{}, false
	}
	return line{y: y, cells: cells}, true
}

func joinLines(lines []line) string {
	var sb strings.Builder
	for _, l := range lines {
		if len(l.cells) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.text())
	}
	return sb.String()
}

// withRuledRows adds a line without cells for every ruled row band that
// contains no text, keeping lines top first. Bands thinner than the line
// tolerance are rules, not rows, and bands taller than MaxRowGap are frames.
func withRuledRows(lines []line, rules []rule, cfg LayoutConfig) []line {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].y1 != rules[j].y1 {
			return rules[i].y1 > rules[j].y1
		}
		return rules[i].y0 > rules[j].y0
	})

	out := append([]line(nil), lines...)
	var prev *rule
	for i := range rules {
		r := &rules[i]
		height := r.y1 - r.y0
		if height <= cfg.LineTolerance || height > cfg.MaxRowGap {
			continue
		}
		if prev != nil && math.Abs(prev.y1-r.y1) <= cfg.LineTolerance && math.Abs(prev.y0-r.y0) <= cfg.LineTolerance {
			continue
		}
		prev = r

		if !holdsText(lines, r.y0, r.y1) {
			out = append(out, line{y: (r.y0 + r.y1) / 2})
		}
	}
	if len(out) == len(lines) {
		return lines
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].y > out[j].y
	})
	return out
}

func holdsText(lines []line, y0, y1 float64) bool {
	for _, l := range lines {
		if len(l.cells) > 0 && l.y >= y0 && l.y <= y1 {
			return true
		}
	}
	return false
}

// detectTables splits lines into vertically contiguous blocks and turns each
// block with enough rows into a grid. Lines are expected top first.
func detectTables(lines []line, cfg LayoutConfig) []Table {
	var tables []Table
	for _, block := range splitBlocks(lines, cfg.MaxRowGap) {
		if t, ok := gridFromBlock(block, cfg); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

func splitBlocks(lines []line, maxGap float64) [][]line {
	var blocks [][]line
	start := 0
	for i := 1; i <= len(lines); i++ {
		if i == len(lines) || math.Abs(lines[i-1].y-lines[i].y) > maxGap {
			if i > start {
				blocks = append(blocks, lines[start:i])
			}
			start = i
		}
	}
	return blocks
}

func gridFromBlock(block []line, cfg LayoutConfig) (Table, bool) {
	// a table starts at its first multi-cell line; text above it is prose
	first := -1
	rows := 0
	for i, l := range block {
		if len(l.cells) >= cfg.MinCols {
			if first < 0 {
				first = i
			}
			rows++
		}
	}
	if first < 0 {
		return nil, false
	}

	anchors := columnAnchors(block[first:], cfg)
	if len(anchors) < cfg.MinCols {
		return nil, false
	}

	// a header whose other columns are empty is a single-cell line in the
	// first column above the grid, possibly over blank rows
	header := first - 1
	for header >= 0 && len(block[header].cells) == 0 {
		header--
	}
	if header >= 0 && len(block[header].cells) == 1 &&
		math.Abs(block[header].cells[0].x0-anchors[0]) <= cfg.AlignmentTolerance {
		first = header
		rows++
	}
	if rows < cfg.MinRows {
		return nil, false
	}
	block = block[first:]

	pitch := rowPitch(block)
	table := make(Table, 0, len(block))
	for i, l := range block {
		if i > 0 {
			for n := blankRows(block[i-1].y-l.y, pitch); n > 0; n-- {
				table = append(table, make(Row, len(anchors)))
			}
		}

		row := make(Row, len(anchors))
		for _, c := range l.cells {
			col := nearestColumn(anchors, c.x0, cfg.AlignmentTolerance)
			if row[col] == "" {
				row[col] = c.text
			} else {
				row[col] += " " + c.text
			}
		}
		table = append(table, row)
	}

	// ruled rows left empty below the last entry are not part of the data
	for len(table) > 0 && emptyRow(table[len(table)-1]) {
		table = table[:len(table)-1]
	}
	return table, true
}

func emptyRow(row Row) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// rowPitch is the lower median of the vertical gaps between lines.
func rowPitch(block []line) float64 {
	if len(block) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(block)-1)
	for i := 1; i < len(block); i++ {
		gaps = append(gaps, math.Abs(block[i-1].y-block[i].y))
	}
	sort.Float64s(gaps)
	return gaps[(len(gaps)-1)/2]
}

// blankRows returns how many rows without text fit in gap. Blank rows leave
// no glyphs behind, so they only show as a gap close to a whole number of
// row pitches.
func blankRows(gap, pitch float64) int {
	if pitch <= 0 {
		return 0
	}
	ratio := math.Abs(gap) / pitch
	n := math.Round(ratio)
	if n < 2 || math.Abs(ratio-n) > pitchTolerance {
		return 0
	}
	return int(n) - 1
}

// columnAnchors clusters the left edges of cells on multi-cell lines.
func columnAnchors(block []line, cfg LayoutConfig) []float64 {
	var xs []float64
	for _, l := range block {
		if len(l.cells) < cfg.MinCols {
			continue
		}
		for _, c := range l.cells {
			xs = append(xs, c.x0)
		}
	}
	sort.Float64s(xs)

	var anchors []float64
	var sum float64
	count := 0
	for i, x := range xs {
		if i > 0 && x-xs[i-1] > cfg.AlignmentTolerance {
			anchors = append(anchors, sum/float64(count))
			sum, count = 0, 0
		}
		sum += x
		count++
	}
	if count > 0 {
		anchors = append(anchors, sum/float64(count))
	}
	return anchors
}

// nearestColumn returns the right-most anchor at or left of x, allowing for
// the alignment tolerance.
func nearestColumn(anchors []float64, x, tolerance float64) int {
	col := 0
	for i, a := range anchors {
		if a <= x+tolerance {
			col = i
		}
	}
	return col
}
