package report

import "github.com/a3tai/report-ingest/internal/pdf"

// Assemble merges a document's metadata and assessment rows. It yields a
// result only when both were found and there is at least one row, so no
// partial record ever reaches the store.
func Assemble(path string, meta Metadata, metaFound bool, rows []pdf.Row, rowsFound bool) (Result, bool) {
	if !metaFound || !rowsFound || len(rows) == 0 {
		return Result{}, false
	}
	return Result{Path: path, Metadata: meta, Rows: rows}, true
}
