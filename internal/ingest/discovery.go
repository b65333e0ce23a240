package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/report-ingest/internal/pdf"
)

// Discover returns the PDF files in dir whose names match glob, in reverse
// lexical order so date-stamped report names come newest first.
// Subdirectories, non-PDF names and symlinks resolving outside dir are
// skipped. Sizes and content are not checked here; the driver validates
// each file before opening it.
func Discover(dir, glob string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	info, err := os.Stat(absDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(absDir, glob))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", glob, err)
	}

	paths := make([]string, 0, len(matches))
	for _, path := range matches {
		if !pdf.IsPDFName(path) {
			continue
		}

		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			continue
		}

		within, err := isPathWithinDirectory(path, absDir)
		if err != nil || !within {
			continue
		}

		paths = append(paths, path)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// isPathWithinDirectory checks if path, after resolving symlinks, is inside directory
func isPathWithinDirectory(path, directory string) (bool, error) {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	realDir, err := filepath.EvalSymlinks(directory)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate directory symlinks: %w", err)
	}

	realPath = filepath.Clean(realPath)
	realDir = filepath.Clean(realDir)
	if !strings.HasSuffix(realDir, string(filepath.Separator)) {
		realDir += string(filepath.Separator)
	}

	return strings.HasPrefix(realPath, realDir), nil
}
