// Package store persists extracted report rows in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"github.com/a3tai/report-ingest/internal/pdf"
	"github.com/a3tai/report-ingest/internal/report"
)

const busyTimeoutMS = 5000

// ReportRow is one persisted subject assessment for one report.
type ReportRow struct {
	ID                       int64  `json:"id,omitempty"`
	Firstname                string `json:"firstname"`
	Surname                  string `json:"surname"`
	Year                     int    `json:"year"`
	Semester                 int    `json:"semester"`
	Report                   int    `json:"report"`
	Subject                  string `json:"subject"`
	EvidenceOfLearning       string `json:"evidence_of_learning"`
	PersonalLearning         string `json:"personal_learning"`
	WorkingWithOthers        string `json:"working_with_others"`
	OrderlyBehaviour         string `json:"orderly_behaviour"`
	LearningOutsideClassroom string `json:"learning_outside_the_classroom"`
}

// NewReportRow maps a table row positionally onto the report columns. Rows
// with fewer than RowCells cells are rejected; extra cells are ignored.
func NewReportRow(meta report.Metadata, row pdf.Row) (ReportRow, error) {
	if len(row) < RowCells {
		return ReportRow{}, fmt.Errorf("row has %d cells, want %d", len(row), RowCells)
	}
	return ReportRow{
		Firstname:                meta.Firstname,
		Surname:                  meta.Surname,
		Year:                     meta.Year,
		Semester:                 meta.Semester,
		Report:                   meta.Report,
		Subject:                  row[0],
		EvidenceOfLearning:       row[1],
		PersonalLearning:         row[2],
		WorkingWithOthers:        row[3],
		OrderlyBehaviour:         row[4],
		LearningOutsideClassroom: row[5],
	}, nil
}

func (r ReportRow) args() []any {
	return []any{
		r.Firstname, r.Surname, r.Year, r.Semester, r.Report, r.Subject,
		r.EvidenceOfLearning, r.PersonalLearning, r.WorkingWithOthers,
		r.OrderlyBehaviour, r.LearningOutsideClassroom,
	}
}

// WriteSummary counts the outcome of writing one document's rows.
type WriteSummary struct {
	Inserted int
	Skipped  int
	// Errors holds one *report.Error per skipped row
	Errors []error
}

// Store manages the SQLite database holding report rows
type Store struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// Open opens (creating if needed) the SQLite database at path
func Open(path string, logger *log.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite registers as "sqlite", not "sqlite3"
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one pooled connection serialises writes
	// across documents instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("SQLite database opened")
	return &Store{db: db, path: path, logger: logger}, nil
}

// DB returns the underlying database connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema drops and recreates the report table, discarding all rows.
func (s *Store) InitSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report.NewError(report.KindStore, s.path, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return report.NewError(report.KindStore, s.path, fmt.Errorf("failed to create schema: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return report.NewError(report.KindStore, s.path, fmt.Errorf("failed to commit schema: %w", err))
	}

	s.logger.Info().Str("path", s.path).Str("table", TableName).Msg("report table recreated")
	return nil
}

// Write inserts one row per extracted table row over a single scoped
// connection. Each insert commits on its own; a row that is malformed or
// fails to insert is logged and skipped. The returned error is non-nil when
// no connection could be obtained (nothing written) or ctx ends mid-way
// (rows already inserted stay committed).
func (s *Store) Write(ctx context.Context, result report.Result) (WriteSummary, error) {
	var summary WriteSummary

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return summary, report.NewError(writeKind(ctx), result.Path, fmt.Errorf("failed to open connection: %w", err))
	}
	defer conn.Close()

	stmt, err := conn.PrepareContext(ctx, insertSQL)
	if err != nil {
		return summary, report.NewError(writeKind(ctx), result.Path, fmt.Errorf("failed to prepare statement: %w", err))
	}
	defer stmt.Close()

	for i, cells := range result.Rows {
		if err := ctx.Err(); err != nil {
			return summary, report.NewError(report.KindTimeout, result.Path,
				fmt.Errorf("stopped after %d of %d rows: %w", i, len(result.Rows), err))
		}

		row, err := NewReportRow(result.Metadata, cells)
		if err != nil {
			s.skipRow(&summary, &report.Error{Kind: report.KindRowShape, Path: result.Path, Row: i, Err: err})
			continue
		}
		if len(cells) > RowCells {
			s.logger.Debug().Str("path", result.Path).Int("row", i).Int("cells", len(cells)).
				Msg("ignoring cells beyond the assessment columns")
		}

		if _, err := stmt.ExecContext(ctx, row.args()...); err != nil {
			if ctx.Err() != nil {
				return summary, report.NewError(report.KindTimeout, result.Path,
					fmt.Errorf("stopped after %d of %d rows: %w", i, len(result.Rows), err))
			}
			s.skipRow(&summary, &report.Error{Kind: report.KindStore, Path: result.Path, Row: i, Err: err})
			continue
		}
		summary.Inserted++
	}

	return summary, nil
}

// writeKind attributes a failed write to the context when it has ended
func writeKind(ctx context.Context) report.ErrorKind {
	if ctx.Err() != nil {
		return report.KindTimeout
	}
	return report.KindStore
}

func (s *Store) skipRow(summary *WriteSummary, err *report.Error) {
	summary.Skipped++
	summary.Errors = append(summary.Errors, err)
	s.logger.Error().Str("path", err.Path).Int("row", err.Row).Str("kind", err.Kind.String()).
		Err(err.Err).Msg("skipping row")
}

// Count returns the number of stored rows
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// ListByStudent returns a student's rows in insertion order. An empty
// surname matches any surname.
func (s *Store) ListByStudent(ctx context.Context, firstname, surname string) ([]ReportRow, error) {
	query := "SELECT " + selectColumns + " FROM " + TableName +
		` WHERE "firstname" = ? AND (? = '' OR "surname" = ?) ORDER BY "id"`

	rows, err := s.db.QueryContext(ctx, query, firstname, surname, surname)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		var r ReportRow
		if err := rows.Scan(
			&r.ID, &r.Firstname, &r.Surname, &r.Year, &r.Semester, &r.Report, &r.Subject,
			&r.EvidenceOfLearning, &r.PersonalLearning, &r.WorkingWithOthers,
			&r.OrderlyBehaviour, &r.LearningOutsideClassroom,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
