package ingest

import (
	"time"

	"github.com/phuslu/log"
)

// Status tags the outcome of ingesting one document
type Status string

const (
	StatusIngested     Status = "ingested"
	StatusNoMetadata   Status = "no_metadata"
	StatusNoTable      Status = "no_table"
	StatusDecodeFailed Status = "decode_failed"
	StatusWriteFailed  Status = "write_failed"
	StatusTimedOut     Status = "timed_out"

	// StatusReady marks an inspected document that would be ingested
	StatusReady Status = "ready"
)

// DocumentOutcome records what happened to one document
type DocumentOutcome struct {
	Path     string `json:"path"`
	Status   Status `json:"status"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Err      error  `json:"-"`
}

// Summary aggregates the outcomes of one batch run
type Summary struct {
	RunID        string            `json:"run_id"`
	Documents    int               `json:"documents"`
	Ingested     int               `json:"ingested"`
	NoMetadata   int               `json:"no_metadata"`
	NoTable      int               `json:"no_table"`
	DecodeFailed int               `json:"decode_failed"`
	WriteFailed  int               `json:"write_failed"`
	TimedOut     int               `json:"timed_out"`
	RowsInserted int               `json:"rows_inserted"`
	RowsSkipped  int               `json:"rows_skipped"`
	Duration     time.Duration     `json:"duration"`
	Outcomes     []DocumentOutcome `json:"outcomes"`
}

func (s *Summary) add(o DocumentOutcome) {
	s.Documents++
	s.RowsInserted += o.Inserted
	s.RowsSkipped += o.Skipped

	switch o.Status {
	case StatusIngested:
		s.Ingested++
	case StatusNoMetadata:
		s.NoMetadata++
	case StatusNoTable:
		s.NoTable++
	case StatusDecodeFailed:
		s.DecodeFailed++
	case StatusWriteFailed:
		s.WriteFailed++
	case StatusTimedOut:
		s.TimedOut++
	}

	s.Outcomes = append(s.Outcomes, o)
}

// Failed returns the number of documents that ended in an error
func (s *Summary) Failed() int {
	return s.DecodeFailed + s.WriteFailed + s.TimedOut
}

// Log writes the summary at info level
func (s *Summary) Log(logger *log.Logger) {
	logger.Info().
		Str("run", s.RunID).
		Int("documents", s.Documents).
		Int("ingested", s.Ingested).
		Int("no_metadata", s.NoMetadata).
		Int("no_table", s.NoTable).
		Int("decode_failed", s.DecodeFailed).
		Int("write_failed", s.WriteFailed).
		Int("timed_out", s.TimedOut).
		Int("rows_inserted", s.RowsInserted).
		Int("rows_skipped", s.RowsSkipped).
		Dur("duration", s.Duration).
		Msg("ingestion finished")
}
