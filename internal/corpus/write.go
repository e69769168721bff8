// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

// WriteFile writes records to path in the given format. The dataset is
// written to a temporary file in the same directory and renamed into place
// so a failed write never leaves a truncated dataset behind.
func WriteFile(path string, format types.OutputFormat, layout Layout, records []types.Record) error {
	var write func(io.Writer) error
	switch format {
	case types.FormatCSV, "":
		write = func(w io.Writer) error { return WriteCSV(w, records, layout) }
	case types.FormatZIP:
		write = func(w io.Writer) error { return WriteZip(w, records) }
	default:
		return fmt.Errorf("unsupported output format %q: use csv or zip", format)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".corpus-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := write(tmpFile)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// DefaultPath returns the dataset file name used when none is configured.
func DefaultPath(stem string, format types.OutputFormat) string {
	if format == types.FormatZIP {
		return stem + ".zip"
	}
	return stem + ".csv"
}
