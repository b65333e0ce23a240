package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/a3tai/report-ingest/internal/config"
	"github.com/a3tai/report-ingest/internal/ingest"
	"github.com/a3tai/report-ingest/internal/store"
)

// Querier reads stored report rows
type Querier interface {
	Count(ctx context.Context) (int, error)
	ListByStudent(ctx context.Context, firstname, surname string) ([]store.ReportRow, error)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	driver    *ingest.Driver
	querier   Querier
	mcpServer *server.MCPServer
	logger    *log.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, driver *ingest.Driver, querier Querier, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if driver == nil {
		return nil, fmt.Errorf("driver cannot be nil")
	}
	if querier == nil {
		return nil, fmt.Errorf("querier cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		driver:    driver,
		querier:   querier,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	ingestTool := mcp.NewTool(
		"report_ingest_directory",
		mcp.WithDescription("Recreate the report table and ingest every progress report PDF in a directory. "+
			"Existing rows are discarded."),
		mcp.WithString("directory",
			mcp.Description("Directory containing report PDFs (uses default if empty)"),
		),
		mcp.WithString("glob",
			mcp.Description("File name pattern selecting reports (uses default if empty)"),
		),
	)
	s.mcpServer.AddTool(ingestTool, s.handleIngestDirectory)

	queryTool := mcp.NewTool(
		"report_query_student",
		mcp.WithDescription("List the stored assessment rows of one student"),
		mcp.WithString("firstname",
			mcp.Required(),
			mcp.Description("Student first name as printed on the report, e.g. Jane"),
		),
		mcp.WithString("surname",
			mcp.Description("Student surname in upper case, e.g. SMITH (any surname if empty)"),
		),
	)
	s.mcpServer.AddTool(queryTool, s.handleQueryStudent)

	validateTool := mcp.NewTool(
		"report_validate_file",
		mcp.WithDescription("Check a report PDF and preview the student, period and assessment rows "+
			"that would be ingested, without writing anything"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)
}

func (s *Server) handleIngestDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := s.config.PDFDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	glob := s.config.Glob
	if g, ok := args["glob"].(string); ok && g != "" {
		glob = g
	}

	summary, err := s.driver.RunDirectory(ctx, directory, glob)
	if err != nil && summary == nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed: %v", err)), nil
	}

	text := s.formatSummary(directory, summary)
	if err != nil {
		text += fmt.Sprintf("\nRun interrupted: %v\n", err)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleQueryStudent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	firstname, err := request.RequireString("firstname")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	surname := ""
	if sn, ok := request.GetArguments()["surname"].(string); ok {
		surname = sn
	}

	rows, err := s.querier.ListByStudent(ctx, firstname, surname)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(s.formatStudentRows(firstname, surname, rows)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, result := s.driver.Inspect(ctx, path)
	if outcome.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Report validation failed: %v", outcome.Err)), nil
	}

	text := fmt.Sprintf("Report: %s\nStatus: %s\n", path, outcome.Status)
	if result == nil {
		switch outcome.Status {
		case ingest.StatusNoMetadata:
			text += "No student name and reporting period found; the file would be skipped.\n"
		default:
			text += "No assessment table with subject rows found; the file would be skipped.\n"
		}
		return mcp.NewToolResultText(text), nil
	}

	text += fmt.Sprintf("Student: %s %s\n", result.Metadata.Firstname, result.Metadata.Surname)
	text += fmt.Sprintf("Period: Semester %d, %d - Progress Report %d\n",
		result.Metadata.Semester, result.Metadata.Year, result.Metadata.Report)
	text += fmt.Sprintf("Assessment rows: %d\n", len(result.Rows))
	for i, row := range result.Rows {
		text += fmt.Sprintf("%d. %v\n", i+1, []string(row))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) formatSummary(directory string, summary *ingest.Summary) string {
	text := "Report Ingestion Summary\n"
	text += fmt.Sprintf("Directory: %s\n", directory)
	text += fmt.Sprintf("Documents: %d\n", summary.Documents)
	text += fmt.Sprintf("Ingested: %d\n", summary.Ingested)
	text += fmt.Sprintf("No metadata: %d\n", summary.NoMetadata)
	text += fmt.Sprintf("No table: %d\n", summary.NoTable)
	text += fmt.Sprintf("Failed: %d\n", summary.Failed())
	text += fmt.Sprintf("Rows inserted: %d\n", summary.RowsInserted)
	text += fmt.Sprintf("Rows skipped: %d\n", summary.RowsSkipped)

	if len(summary.Outcomes) > 0 {
		text += "\nDocuments:\n"
		for i, o := range summary.Outcomes {
			text += fmt.Sprintf("%d. %s: %s", i+1, o.Path, o.Status)
			if o.Inserted > 0 || o.Skipped > 0 {
				text += fmt.Sprintf(" (%d inserted, %d skipped)", o.Inserted, o.Skipped)
			}
			if o.Err != nil {
				text += fmt.Sprintf(" - %v", o.Err)
			}
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatStudentRows(firstname, surname string, rows []store.ReportRow) string {
	name := firstname
	if surname != "" {
		name += " " + surname
	}

	if len(rows) == 0 {
		return fmt.Sprintf("No report rows found for %s\n", name)
	}

	text := fmt.Sprintf("Report rows for %s (%d found)\n", name, len(rows))
	for _, r := range rows {
		text += fmt.Sprintf("\n%s %s, Semester %d, %d - Progress Report %d\n",
			r.Firstname, r.Surname, r.Semester, r.Year, r.Report)
		text += fmt.Sprintf("  Subject: %s\n", r.Subject)
		text += fmt.Sprintf("  Evidence of learning: %s\n", r.EvidenceOfLearning)
		text += fmt.Sprintf("  Personal learning: %s\n", r.PersonalLearning)
		text += fmt.Sprintf("  Working with others: %s\n", r.WorkingWithOthers)
		text += fmt.Sprintf("  Orderly behaviour: %s\n", r.OrderlyBehaviour)
		text += fmt.Sprintf("  Learning outside the classroom: %s\n", r.LearningOutsideClassroom)
	}
	return text
}

// Run serves MCP over standard I/O until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	count, err := s.querier.Count(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("report table not readable yet")
	}
	s.logger.Info().Str("dir", s.config.PDFDirectory).Str("db", s.config.DatabasePath).
		Int("rows", count).Msg("starting report MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
