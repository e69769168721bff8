// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

const maxNameLen = 120

// unsafeNameChars are replaced in archive entry names.
var unsafeNameChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "",
)

// TextFileName returns the archive entry name for a record title: the
// extension after the last dot is replaced with .txt.
func TextFileName(title string) string {
	base := strings.TrimSuffix(title, filepath.Ext(title))
	base = strings.TrimSpace(unsafeNameChars.Replace(base))
	if r := []rune(base); len(r) > maxNameLen {
		base = strings.TrimSpace(string(r[:maxNameLen]))
	}
	if base == "" || base == "." || base == ".." {
		base = "document"
	}
	return base + ".txt"
}

// WriteZip writes one text file per record into a ZIP archive. Entries
// whose names collide get a numeric suffix (-2, -3, ...).
func WriteZip(w io.Writer, records []types.Record) error {
	zw := zip.NewWriter(w)
	used := make(map[string]int)

	for _, r := range records {
		name := uniqueName(TextFileName(r.Title), used)
		f, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		if _, err := io.WriteString(f, r.Text); err != nil {
			zw.Close()
			return fmt.Errorf("writing archive entry %s: %w", name, err)
		}
	}
	return zw.Close()
}

func uniqueName(name string, used map[string]int) string {
	key := strings.ToLower(name)
	n := used[key]
	used[key] = n + 1
	if n == 0 {
		return name
	}
	stem := strings.TrimSuffix(name, ".txt")
	for {
		n++
		candidate := fmt.Sprintf("%s-%d.txt", stem, n)
		ckey := strings.ToLower(candidate)
		if used[ckey] == 0 {
			used[ckey] = 1
			used[key] = n
			return candidate
		}
	}
}
