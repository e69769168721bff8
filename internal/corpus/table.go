// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

const (
	titleWidth  = 60
	sourceWidth = 40
)

// FormatTable writes records as a human-readable table to w. Titles are
// truncated by display width so CJK and accented titles stay aligned.
func FormatTable(records []types.Record, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No documents collected.")
		return
	}

	fmt.Fprintf(w, "%-4s  %s  %-4s  %8s  %s\n",
		"#", pad("Title", titleWidth), "Year", "Words", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 4+2+titleWidth+2+4+2+8+2+sourceWidth))

	total := 0
	for i, r := range records {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(w, "%-4d  %s  %-4s  %8d  %s\n",
			i+1, pad(r.Title, titleWidth), year, r.WordCount,
			runewidth.Truncate(r.SourceURL, sourceWidth, "..."))
		total += r.WordCount
	}

	fmt.Fprintf(w, "\n%d documents, %d words\n", len(records), total)
}

// pad truncates s to width display columns and right-pads it with spaces.
func pad(s string, width int) string {
	s = runewidth.Truncate(s, width, "...")
	return runewidth.FillRight(s, width)
}
