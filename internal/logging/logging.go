// Package logging builds the structured loggers shared by every component.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// New returns a logger at the given level ("debug", "info", "warn",
// "error"). Console output is colourised only when w is a terminal.
func New(level string, w io.Writer) *log.Logger {
	console := &log.ConsoleWriter{
		Writer:         w,
		ColorOutput:    false,
		QuoteString:    true,
		EndWithMessage: true,
	}
	if f, ok := w.(*os.File); ok && log.IsTerminal(f.Fd()) {
		console.ColorOutput = true
	}

	return &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer:     console,
	}
}

// ForMode returns the logger for a run mode. In stdio mode stdout carries
// the MCP protocol, so logs go to stderr and drop to warnings unless debug
// is requested.
func ForMode(stdio bool, level string) *log.Logger {
	if stdio && level != "debug" {
		level = "warn"
	}
	return New(level, os.Stderr)
}

// Discard returns a logger that writes nothing.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.ParseLevel("error"),
		Writer: log.IOWriter{Writer: io.Discard},
	}
}
