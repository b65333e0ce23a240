// Package ingest drives report documents through extraction into the store.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/report-ingest/internal/pdf"
	"github.com/a3tai/report-ingest/internal/report"
	"github.com/a3tai/report-ingest/internal/store"
)

// Validator checks a file before it is opened
type Validator interface {
	Validate(path string) error
}

// Writer receives assembled results
type Writer interface {
	InitSchema(ctx context.Context) error
	Write(ctx context.Context, result report.Result) (store.WriteSummary, error)
}

// Options tunes a batch run
type Options struct {
	// Workers bounds how many documents are processed at once; values below 1 mean 1
	Workers int
	// DocumentTimeout bounds the time spent on one document; 0 means no limit
	DocumentTimeout time.Duration
}

// Driver runs documents through validation, extraction and storage
type Driver struct {
	opener    pdf.Opener
	validator Validator
	writer    Writer
	metadata  *report.MetadataExtractor
	tables    *report.TableExtractor
	logger    *log.Logger
	workers   int
	timeout   time.Duration
}

// NewDriver creates a driver. validator may be nil to skip pre-flight checks.
func NewDriver(opener pdf.Opener, validator Validator, writer Writer, logger *log.Logger, opts Options) *Driver {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Driver{
		opener:    opener,
		validator: validator,
		writer:    writer,
		metadata:  report.NewMetadataExtractor(logger),
		tables:    report.NewTableExtractor(logger),
		logger:    logger,
		workers:   workers,
		timeout:   opts.DocumentTimeout,
	}
}

// Run recreates the report table and ingests paths. A schema failure aborts
// the run before any document is touched. Per-document failures are
// recorded as outcomes and never stop the batch; outcomes keep the order of
// paths. When ctx ends, documents not yet started are left out of the
// summary and ctx's error is returned alongside it.
func (d *Driver) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()

	if err := d.writer.InitSchema(ctx); err != nil {
		return nil, err
	}

	d.logger.Info().Str("run", runID).Int("documents", len(paths)).Int("workers", d.workers).Msg("starting ingestion")

	outcomes := make([]*DocumentOutcome, len(paths))

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o := d.process(ctx, path)
			outcomes[i] = &o
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{RunID: runID}
	for _, o := range outcomes {
		if o != nil {
			summary.add(*o)
		}
	}
	summary.Duration = time.Since(start)
	summary.Log(d.logger)

	return summary, ctx.Err()
}

// RunDirectory discovers the reports in dir matching glob and runs them
func (d *Driver) RunDirectory(ctx context.Context, dir, glob string) (*Summary, error) {
	paths, err := Discover(dir, glob)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		d.logger.Warn().Str("dir", dir).Str("glob", glob).Msg("no report files found")
	}
	return d.Run(ctx, paths)
}

// Inspect validates, opens and extracts path without touching the store.
// The outcome's status is StatusReady when a result was assembled.
func (d *Driver) Inspect(ctx context.Context, path string) (DocumentOutcome, *report.Result) {
	ctx, cancel := d.documentContext(ctx)
	defer cancel()

	result, outcome, ok := d.extract(ctx, path)
	if !ok {
		return outcome, nil
	}
	outcome.Status = StatusReady
	return outcome, &result
}

func (d *Driver) documentContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout > 0 {
		return context.WithTimeout(ctx, d.timeout)
	}
	return context.WithCancel(ctx)
}

func (d *Driver) process(ctx context.Context, path string) DocumentOutcome {
	ctx, cancel := d.documentContext(ctx)
	defer cancel()

	result, outcome, ok := d.extract(ctx, path)
	if !ok {
		return outcome
	}

	written, err := d.writer.Write(ctx, result)
	outcome.Inserted = written.Inserted
	outcome.Skipped = written.Skipped
	if err != nil {
		status := StatusWriteFailed
		if timedOut(err) {
			status = StatusTimedOut
		}
		return d.fail(outcome, status, err)
	}

	outcome.Status = StatusIngested
	d.logger.Info().Str("path", path).Str("student", result.Metadata.String()).
		Int("inserted", written.Inserted).Int("skipped", written.Skipped).Msg("report ingested")
	return outcome
}

// extract runs one document up to assembly. ok is false when the outcome
// is final: a failure or a document without metadata or table.
func (d *Driver) extract(ctx context.Context, path string) (result report.Result, outcome DocumentOutcome, ok bool) {
	outcome.Path = path

	if d.validator != nil {
		if err := d.validator.Validate(path); err != nil {
			return result, d.fail(outcome, StatusDecodeFailed, report.NewError(report.KindDecode, path, err)), false
		}
	}

	doc, err := d.opener.Open(path)
	if err != nil {
		return result, d.fail(outcome, StatusDecodeFailed, report.NewError(report.KindDecode, path, err)), false
	}
	defer func() {
		if err := doc.Close(); err != nil {
			d.logger.Warn().Str("path", path).Err(err).Msg("failed to close document")
		}
	}()

	var (
		meta      report.Metadata
		metaFound bool
		rows      []pdf.Row
		rowsFound bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, metaFound, err = d.metadata.Extract(gctx, doc)
		return err
	})
	g.Go(func() error {
		var err error
		rows, rowsFound, err = d.tables.Extract(gctx, doc)
		return err
	})
	if err := g.Wait(); err != nil {
		return result, d.fail(outcome, StatusTimedOut, report.NewError(report.KindTimeout, path, err)), false
	}

	result, ok = report.Assemble(path, meta, metaFound, rows, rowsFound)
	if !ok {
		switch {
		case !metaFound:
			outcome.Status = StatusNoMetadata
			d.logger.Info().Str("path", path).Msg("no student metadata found, skipping document")
		case !rowsFound:
			outcome.Status = StatusNoTable
			d.logger.Info().Str("path", path).Msg("no assessment table found, skipping document")
		default:
			outcome.Status = StatusNoTable
			d.logger.Info().Str("path", path).Msg("assessment table has no subject rows, skipping document")
		}
		return result, outcome, false
	}

	return result, outcome, true
}

// timedOut reports whether err comes from the document's deadline or the
// run's cancellation, however the writer classified it.
func timedOut(err error) bool {
	return report.KindOf(err) == report.KindTimeout ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func (d *Driver) fail(outcome DocumentOutcome, status Status, err error) DocumentOutcome {
	outcome.Status = status
	outcome.Err = err
	d.logger.Error().Str("path", outcome.Path).Str("status", string(status)).Err(err).Msg("document failed")
	return outcome
}
