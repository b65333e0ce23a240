package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultPDFDirectory = "state_db/analyse"
	DefaultGlob         = "*.pdf"
	DefaultDatabasePath = "state_db/school_reports.db"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultWorkers      = 1
	MaxWorkers          = 64
)

// Config holds all configuration for the report ingester
type Config struct {
	Mode string // "batch" or "stdio"

	// Input configuration
	PDFDirectory string
	Glob         string
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// Store configuration
	DatabasePath string

	// Processing configuration
	Workers         int
	DocumentTimeout time.Duration // 0 disables the per-document budget

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeBatch,
		PDFDirectory:    DefaultPDFDirectory,
		Glob:            DefaultGlob,
		MaxFileSize:     DefaultMaxFileSize,
		DatabasePath:    DefaultDatabasePath,
		Workers:         DefaultWorkers,
		DocumentTimeout: 0,
		Version:         "1.0.0",
		ServerName:      "report-ingest",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.PDFDirectory, &cfg.DatabasePath} {
		if *p == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*p); err == nil {
			*p = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("REPORT_INGEST")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("glob", cfg.Glob)
	viper.SetDefault("db", cfg.DatabasePath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("timeout", cfg.DocumentTimeout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to ingest once and exit, 'stdio' for an MCP server on standard I/O")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing report PDF files")
	pflag.String("glob", cfg.Glob, "File name pattern selecting reports within the directory")
	pflag.String("db", cfg.DatabasePath, "SQLite database file receiving report rows")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("workers", cfg.Workers, "Number of documents processed concurrently")
	pflag.Duration("timeout", cfg.DocumentTimeout, "Time budget per document, e.g. 30s (0 = unlimited)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{"mode", "dir", "glob", "db", "loglevel", "maxfilesize", "workers", "timeout"} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nreport-ingest - Load student progress report PDFs into SQLite\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        # ingest %s into %s\n",
			os.Args[0], DefaultPDFDirectory, DefaultDatabasePath)
		fmt.Fprintf(os.Stderr, "  %s --dir=/reports --db=/data/reports.db   # custom locations\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --workers=4 --timeout=30s              # parallel, bounded\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                           # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from ./.env):\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_MODE         Run mode\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_DIR          PDF directory\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_GLOB         File name pattern\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_DB           Database file\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_WORKERS      Concurrent documents\n")
		fmt.Fprintf(os.Stderr, "  REPORT_INGEST_TIMEOUT      Per-document time budget\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.Glob = viper.GetString("glob")
	cfg.DatabasePath = viper.GetString("db")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Workers = viper.GetInt("workers")
	cfg.DocumentTimeout = viper.GetDuration("timeout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	info, err := os.Stat(c.PDFDirectory)
	if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("PDF directory %s is not a directory", c.PDFDirectory)
	}

	if c.Glob == "" {
		return errors.New("glob pattern cannot be empty")
	}
	if _, err := filepath.Match(c.Glob, ""); err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", c.Glob, err)
	}

	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
	}

	if c.DocumentTimeout < 0 {
		return errors.New("document timeout cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true if the ingester runs as an MCP server on stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, PDFDirectory: %s, Glob: %s, DatabasePath: %s, LogLevel: %s, "+
		"MaxFileSize: %d, Workers: %d, DocumentTimeout: %s}",
		c.Mode, c.PDFDirectory, c.Glob, c.DatabasePath, c.LogLevel,
		c.MaxFileSize, c.Workers, c.DocumentTimeout)
}
