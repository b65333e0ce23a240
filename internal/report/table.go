package report

import (
	"context"
	"strings"

	"github.com/phuslu/log"

	"github.com/a3tai/report-ingest/internal/pdf"
)

// TableExtractor locates the assessment table of a document by its header marker.
type TableExtractor struct {
	logger *log.Logger
}

// NewTableExtractor creates a new table extractor
func NewTableExtractor(logger *log.Logger) *TableExtractor {
	return &TableExtractor{logger: logger}
}

// Extract scans pages and their tables in order and returns the rows of the
// first table whose first cell contains TableMarker, minus the header and
// sub-header rows. found is false when no table carries the marker. A
// matched table with fewer than three rows yields found with no rows.
func (e *TableExtractor) Extract(ctx context.Context, doc pdf.Document) (rows []pdf.Row, found bool, err error) {
	for page, pageErr := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if pageErr != nil {
			e.skipPage(doc.Path(), pageErr)
			continue
		}

		tables, err := page.Tables()
		if err != nil {
			e.skipPage(doc.Path(), err)
			continue
		}

		for i, table := range tables {
			if rows, ok := MatchTable(table); ok {
				e.logger.Debug().Str("path", doc.Path()).Int("page", page.Number()).
					Int("table", i).Int("rows", len(rows)).Msg("assessment table matched")
				return rows, true, nil
			}
		}
	}
	return nil, false, nil
}

func (e *TableExtractor) skipPage(path string, err error) {
	e.logger.Warn().Str("path", path).Err(err).Msg("skipping page during table extraction")
}

// MatchTable reports whether table is the assessment table and returns its
// rows after the header and sub-header.
func MatchTable(table pdf.Table) ([]pdf.Row, bool) {
	if len(table) == 0 || len(table[0]) == 0 {
		return nil, false
	}
	if !strings.Contains(table[0][0], TableMarker) {
		return nil, false
	}
	if len(table) <= headerRows {
		return []pdf.Row{}, true
	}
	return table[headerRows:], true
}
