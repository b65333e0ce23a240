package pdftest

import (
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"

	"github.com/a3tai/report-ingest/internal/pdf"
)

// Cover is the first page of the rendered report
var Cover = []string{"Jane SMITH", "Semester 1, 2024 - Progress Report 2"}

// WriteReport renders a two-page report into dir. Page one prints the
// cover lines; page two draws table as bordered 30mm by 8mm cells, so
// rows without text still leave their cell borders behind.
func WriteReport(t testing.TB, dir, name string, cover []string, table pdf.Table) string {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 10, 10)
	doc.SetFont("Arial", "", 11)

	doc.AddPage()
	for _, text := range cover {
		doc.Cell(0, 8, text)
		doc.Ln(8)
	}

	doc.AddPage()
	for _, row := range table {
		for _, text := range row {
			doc.CellFormat(30, 8, text, "1", 0, "L", false, 0, "")
		}
		doc.Ln(8)
	}

	path := filepath.Join(dir, name)
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("failed to render %s: %v", path, err)
	}
	return path
}
