package store

// TableName is the single table holding ingested report rows
const TableName = "mesc_reports"

// AssessmentColumns are the per-subject assessment fields, in the order the
// cells follow the subject cell in a table row.
var AssessmentColumns = []string{
	"Evidence of Learning",
	"Personal Learning",
	"Working with Others",
	"Orderly Behaviour",
	"Learning Outside the Classroom",
}

// RowCells is the number of cells a table row must carry: subject plus assessments
var RowCells = 1 + len(AssessmentColumns)

// No unique key on (firstname, surname, year, semester, report, subject):
// writing the same result twice appends duplicate rows.
const schemaSQL = `
DROP TABLE IF EXISTS mesc_reports;
CREATE TABLE mesc_reports (
	"id" INTEGER PRIMARY KEY,
	"firstname" TEXT,
	"surname" TEXT,
	"year" INTEGER,
	"semester" INTEGER,
	"report" INTEGER,
	"subject" TEXT,
	"Evidence of Learning" TEXT,
	"Personal Learning" TEXT,
	"Working with Others" TEXT,
	"Orderly Behaviour" TEXT,
	"Learning Outside the Classroom" TEXT
);
`

const insertSQL = `
INSERT INTO mesc_reports (
	"firstname",
	"surname",
	"year",
	"semester",
	"report",
	"subject",
	"Evidence of Learning",
	"Personal Learning",
	"Working with Others",
	"Orderly Behaviour",
	"Learning Outside the Classroom"
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `"id", "firstname", "surname", "year", "semester", "report", "subject",
	"Evidence of Learning", "Personal Learning", "Working with Others",
	"Orderly Behaviour", "Learning Outside the Classroom"`
