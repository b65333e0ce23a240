package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/phuslu/log"

	"github.com/a3tai/report-ingest/internal/config"
	"github.com/a3tai/report-ingest/internal/ingest"
	"github.com/a3tai/report-ingest/internal/logging"
	"github.com/a3tai/report-ingest/internal/mcp"
	"github.com/a3tai/report-ingest/internal/pdf"
	"github.com/a3tai/report-ingest/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// Check for version flag before parsing other flags
	if hasVersionFlag(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := logging.ForMode(cfg.IsStdioMode(), cfg.LogLevel)
	logger.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("report-ingest failed")
		stop()
		os.Exit(1)
	}
}

// run wires the components for cfg and executes the configured mode
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	db, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	driver := ingest.NewDriver(
		pdf.NewLedongthucOpener(pdf.DefaultLayoutConfig()),
		pdf.NewValidator(cfg.MaxFileSize),
		db,
		logger,
		ingest.Options{Workers: cfg.Workers, DocumentTimeout: cfg.DocumentTimeout},
	)

	if cfg.IsStdioMode() {
		server, err := mcp.NewServer(cfg, driver, db, logger)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}

	summary, err := driver.RunDirectory(ctx, cfg.PDFDirectory, cfg.Glob)
	if err != nil {
		return err
	}
	if summary.Failed() > 0 {
		logger.Warn().Int("failed", summary.Failed()).Msg("some documents could not be ingested")
	}
	return nil
}

// hasVersionFlag reports whether args ask for version information
func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Report Ingest\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
