// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

// Layout selects the CSV columns.
type Layout int

const (
	// LayoutHarvest writes title, year, word_count, text, source_url.
	LayoutHarvest Layout = iota
	// LayoutScrub writes filename, original_len, cleaned_len, word_count, text.
	LayoutScrub
)

func (l Layout) header() []string {
	if l == LayoutScrub {
		return []string{"filename", "original_len", "cleaned_len", "word_count", "text"}
	}
	return []string{"title", "year", "word_count", "text", "source_url"}
}

func (l Layout) row(r types.Record) []string {
	if l == LayoutScrub {
		return []string{
			r.Title,
			strconv.Itoa(r.OriginalLen),
			strconv.Itoa(r.CleanedLen),
			strconv.Itoa(r.WordCount),
			r.Text,
		}
	}
	year := ""
	if r.Year > 0 {
		year = strconv.Itoa(r.Year)
	}
	return []string{r.Title, year, strconv.Itoa(r.WordCount), r.Text, r.SourceURL}
}

// WriteCSV writes one row per record, preceded by a header row.
func WriteCSV(w io.Writer, records []types.Record, layout Layout) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(layout.header()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(layout.row(r)); err != nil {
			return fmt.Errorf("writing CSV row for %q: %w", r.Title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
