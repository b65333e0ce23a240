// Package report extracts student progress-report records from paged documents.
package report

import (
	"fmt"

	"github.com/a3tai/report-ingest/internal/pdf"
)

// TableMarker is the header text identifying the assessment table
const TableMarker = "Areas Of Assessment"

// headerRows is the number of leading rows (header plus one sub-header)
// dropped from a matched assessment table
const headerRows = 2

// Metadata identifies the student and reporting period of one document.
// It is only ever produced with every field populated.
type Metadata struct {
	Firstname string `json:"firstname"`
	Surname   string `json:"surname"`
	Year      int    `json:"year"`
	Semester  int    `json:"semester"`
	Report    int    `json:"report"`
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s %s (%d semester %d report %d)", m.Firstname, m.Surname, m.Year, m.Semester, m.Report)
}

// Result is the extraction of one document: its metadata and the
// assessment rows that follow the table header. Rows is never empty.
type Result struct {
	Path     string    `json:"path"`
	Metadata Metadata  `json:"metadata"`
	Rows     []pdf.Row `json:"rows"`
}
