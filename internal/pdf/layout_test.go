package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word places a glyph run at x with a fixed advance of 5pt per character.
func word(x float64, s string) glyph {
	return glyph{x: x, w: float64(len(s)) * 5, size: 10, s: s}
}

func mustLine(t *testing.T, y float64, glyphs ...glyph) line {
	t.Helper()
	l, ok := buildLine(y, glyphs, DefaultLayoutConfig())
	require.True(t, ok)
	return l
}

func TestBuildLine_WordsAndCells(t *testing.T) {
	cfg := DefaultLayoutConfig()

	l, ok := buildLine(700, []glyph{
		word(73, "SMITH"),
		word(50, "Jane"),
		word(200, "Year"),
	}, cfg)
	require.True(t, ok)

	require.Len(t, l.cells, 2)
	assert.Equal(t, "Jane SMITH", l.cells[0].text)
	assert.Equal(t, 50.0, l.cells[0].x0)
	assert.Equal(t, "Year", l.cells[1].text)
	assert.Equal(t, "Jane SMITH Year", l.text())
}

func TestBuildLine_AdjacentGlyphsJoinWithoutSpace(t *testing.T) {
	l, ok := buildLine(700, []glyph{
		{x: 50, w: 5, size: 10, s: "S"},
		{x: 55, w: 5, size: 10, s: "e"},
		{x: 60, w: 5, size: 10, s: "m"},
	}, DefaultLayoutConfig())
	require.True(t, ok)
	assert.Equal(t, "Sem", l.text())
}

func TestBuildLine_BlankGlyphs(t *testing.T) {
	_, ok := buildLine(700, []glyph{word(50, ""), word(70, "   ")}, DefaultLayoutConfig())
	assert.False(t, ok)
}

func TestJoinLines(t *testing.T) {
	lines := []line{
		mustLine(t, 700, word(50, "Jane"), word(73, "SMITH")),
		mustLine(t, 680, word(50, "Semester 1, 2024 - Progress Report 2")),
	}
	assert.Equal(t, "Jane SMITH\nSemester 1, 2024 - Progress Report 2", joinLines(lines))
}

func reportLines(t *testing.T) []line {
	cols := []float64{50, 200, 280, 360, 440, 520}
	row := func(y float64, cells ...string) line {
		var glyphs []glyph
		for i, c := range cells {
			if c != "" {
				glyphs = append(glyphs, word(cols[i], c))
			}
		}
		return mustLine(t, y, glyphs...)
	}

	return []line{
		mustLine(t, 700, word(50, "Jane"), word(73, "SMITH")),
		mustLine(t, 680, word(50, "Semester 1, 2024 - Progress Report 2")),
		row(500, "Areas Of Assessment", "Evidence", "Personal", "Working", "Orderly", "Outside"),
		row(485, "", "1-5", "1-5", "1-5", "1-5", "1-5"),
		row(470, "Mathematics", "Good", "Good", "Good", "Good", "Good"),
		row(455, "English", "Fair", "Good", "", "Good", "Fair"),
	}
}

func TestDetectTables_ReportLayout(t *testing.T) {
	tables := detectTables(reportLines(t), DefaultLayoutConfig())
	require.Len(t, tables, 1)

	table := tables[0]
	require.Len(t, table, 4)
	assert.Equal(t, Row{"Areas Of Assessment", "Evidence", "Personal", "Working", "Orderly", "Outside"}, table[0])
	assert.Equal(t, Row{"", "1-5", "1-5", "1-5", "1-5", "1-5"}, table[1])
	assert.Equal(t, Row{"Mathematics", "Good", "Good", "Good", "Good", "Good"}, table[2])
	assert.Equal(t, Row{"English", "Fair", "Good", "", "Good", "Fair"}, table[3])
}

func TestDetectTables_ProseOnly(t *testing.T) {
	lines := reportLines(t)[:2]
	assert.Empty(t, detectTables(lines, DefaultLayoutConfig()))
}

func TestDetectTables_SeparateBlocks(t *testing.T) {
	lines := []line{
		mustLine(t, 700, word(50, "Name"), word(200, "Class")),
		mustLine(t, 685, word(50, "Jane"), word(200, "7B")),
		mustLine(t, 400, word(50, "Areas Of Assessment"), word(200, "Evidence")),
		mustLine(t, 385, word(50, "Art"), word(200, "Good")),
	}

	tables := detectTables(lines, DefaultLayoutConfig())
	require.Len(t, tables, 2)
	assert.Equal(t, Row{"Name", "Class"}, tables[0][0])
	assert.Equal(t, Row{"Areas Of Assessment", "Evidence"}, tables[1][0])
}

var (
	reportCols = []float64{50, 200, 280, 360, 440, 520}
	markerRow  = Row{"Areas Of Assessment", "", "", "", "", ""}
	blankRow   = Row{"", "", "", "", "", ""}
	mathsRow   = Row{"Mathematics", "Good", "Good", "Good", "Good", "Good"}
	englishRow = Row{"English", "Fair", "Good", "Good", "Good", "Fair"}
)

func gridLine(t *testing.T, y float64, row Row) line {
	t.Helper()

	var glyphs []glyph
	for i, c := range row {
		if c != "" {
			glyphs = append(glyphs, word(reportCols[i], c))
		}
	}
	return mustLine(t, y, glyphs...)
}

// rowRules draws one bordered cell per column for a row spanning y0 to y1
func rowRules(y0, y1 float64) []rule {
	rules := make([]rule, len(reportCols))
	for i := range rules {
		rules[i] = rule{y0: y0, y1: y1}
	}
	return rules
}

func TestDetectTables_RuledBlankRowUnderHeader(t *testing.T) {
	lines := []line{
		gridLine(t, 500, markerRow),
		gridLine(t, 456, mathsRow),
	}

	var rules []rule
	rules = append(rules, rowRules(492, 514)...)
	rules = append(rules, rowRules(470, 492)...)
	rules = append(rules, rowRules(448, 470)...)
	// empty ruled rows below the data, a hairline and a frame
	rules = append(rules, rowRules(426, 448)...)
	rules = append(rules, rule{y0: 440, y1: 440.5}, rule{y0: 100, y1: 300})

	lines = withRuledRows(lines, rules, DefaultLayoutConfig())
	require.Len(t, lines, 4)
	assert.Equal(t, "Areas Of Assessment\nMathematics Good Good Good Good Good", joinLines(lines))

	tables := detectTables(lines, DefaultLayoutConfig())
	require.Len(t, tables, 1)
	assert.Equal(t, Table{markerRow, blankRow, mathsRow}, tables[0])
}

func TestDetectTables_BlankRowFromSpacing(t *testing.T) {
	lines := []line{
		gridLine(t, 500, markerRow),
		gridLine(t, 460, mathsRow),
		gridLine(t, 440, englishRow),
		gridLine(t, 420, mathsRow),
	}

	tables := detectTables(lines, DefaultLayoutConfig())
	require.Len(t, tables, 1)
	assert.Equal(t, Table{markerRow, blankRow, mathsRow, englishRow, mathsRow}, tables[0])
}

func TestDetectTables_HeaderMustAlignWithFirstColumn(t *testing.T) {
	lines := []line{
		mustLine(t, 490, word(300, "Term summary")),
		gridLine(t, 470, mathsRow),
		gridLine(t, 450, englishRow),
	}

	tables := detectTables(lines, DefaultLayoutConfig())
	require.Len(t, tables, 1)
	assert.Equal(t, Table{mathsRow, englishRow}, tables[0])
}

func TestDetectTables_SingleRowWithoutHeader(t *testing.T) {
	lines := []line{gridLine(t, 470, mathsRow)}
	assert.Empty(t, detectTables(lines, DefaultLayoutConfig()))
}

func TestBlankRows(t *testing.T) {
	tests := []struct {
		gap, pitch float64
		want       int
	}{
		{gap: 20, pitch: 20, want: 0},
		{gap: 30, pitch: 20, want: 0},
		{gap: 40, pitch: 20, want: 1},
		{gap: 42, pitch: 20, want: 1},
		{gap: 45, pitch: 20, want: 0},
		{gap: -60, pitch: 20, want: 2},
		{gap: 40, pitch: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, blankRows(tt.gap, tt.pitch), "gap=%v pitch=%v", tt.gap, tt.pitch)
	}
}

func TestRowPitch(t *testing.T) {
	assert.Zero(t, rowPitch([]line{{y: 500}}))
	assert.Equal(t, 40.0, rowPitch([]line{{y: 500}, {y: 460}}))
	assert.Equal(t, 20.0, rowPitch([]line{{y: 500}, {y: 460}, {y: 440}}))
}

func TestGroupLines(t *testing.T) {
	glyphs := []glyph{
		{x: 50, y: 680, w: 5, size: 10, s: "Semester"},
		{x: 50, y: 700, w: 5, size: 10, s: "J"},
		{x: 55, y: 700.5, w: 5, size: 10, s: "o"},
		{x: 60, y: 700, w: 5, size: 10, s: "e"},
	}

	lines := groupLines(glyphs, DefaultLayoutConfig())
	require.Len(t, lines, 2)
	assert.Equal(t, "Joe", lines[0].text())
	assert.Equal(t, "Semester", lines[1].text())
	assert.Empty(t, groupLines(nil, DefaultLayoutConfig()))
}

func TestGlyphsFromText(t *testing.T) {
	texts := []pdf.Text{
		// a run from a font without widths: no advance between glyphs
		{FontSize: 10, X: 50, Y: 700, S: "J"},
		{FontSize: 10, X: 50, Y: 700, S: "o"},
		{FontSize: 10, X: 50, Y: 700, S: "e"},
		{S: "\n"},
		{FontSize: 10, X: 200, Y: 700, W: 6, S: "A"},
		{FontSize: 10, X: 206, Y: 700, W: 6, S: "B"},
		{X: 300, Y: 700, S: "x"},
		{X: 307, Y: 700, S: "y"},
	}

	glyphs := glyphsFromText(texts)
	require.Len(t, glyphs, 7)

	assert.Equal(t, glyph{x: 50, y: 700, w: 5, size: 10, s: "J"}, glyphs[0])
	assert.Equal(t, glyph{x: 55, y: 700, w: 5, size: 10, s: "o"}, glyphs[1])
	assert.Equal(t, glyph{x: 60, y: 700, w: 5, size: 10, s: "e"}, glyphs[2])
	assert.Equal(t, glyph{x: 200, y: 700, w: 6, size: 10, s: "A"}, glyphs[3])
	assert.Equal(t, glyph{x: 206, y: 700, w: 6, size: 10, s: "B"}, glyphs[4])
	// advance taken from the next glyph, then the default font size
	assert.Equal(t, glyph{x: 300, y: 700, w: 7, size: defaultFontSize, s: "x"}, glyphs[5])
	assert.Equal(t, glyph{x: 307, y: 700, w: defaultFontSize * advanceRatio, size: defaultFontSize, s: "y"}, glyphs[6])

	lines := groupLines(glyphs, DefaultLayoutConfig())
	require.Len(t, lines, 1)
	assert.Equal(t, "Joe AB xy", lines[0].text())
}

func TestSplitBlocks(t *testing.T) {
	lines := []line{{y: 700}, {y: 690}, {y: 500}, {y: 495}, {y: 100}}
	blocks := splitBlocks(lines, 40)
	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0], 2)
	assert.Len(t, blocks[1], 2)
	assert.Len(t, blocks[2], 1)

	assert.Empty(t, splitBlocks(nil, 40))
}

func TestNearestColumn(t *testing.T) {
	anchors := []float64{50, 200, 280}

	tests := []struct {
		x    float64
		want int
	}{
		{x: 10, want: 0},
		{x: 50, want: 0},
		{x: 196, want: 1},
		{x: 250, want: 1},
		{x: 400, want: 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nearestColumn(anchors, tt.x, 6), "x=%v", tt.x)
	}
}

func TestLedongthucOpener_MissingFile(t *testing.T) {
	opener := NewLedongthucOpener(DefaultLayoutConfig())

	doc, err := opener.Open("/non/existent/report.pdf")
	assert.Nil(t, doc)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "/non/existent/report.pdf", decodeErr.Path)
}
