// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest pages through a search backend, downloads and extracts
// each candidate document, and accumulates records until a word target is
// reached or the results run out.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/corpus-builder/internal/clean"
	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/internal/extract"
	"github.com/pdiddy/corpus-builder/internal/fetch"
	"github.com/pdiddy/corpus-builder/internal/search"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

// ErrSearchFailed marks a terminal search API failure. The partial result
// gathered before the failure is returned with it.
var ErrSearchFailed = errors.New("search failed")

// StopReason says why a run ended.
type StopReason string

const (
	StopTargetReached StopReason = "target_reached"
	StopExhausted     StopReason = "exhausted"
	StopSearchFailed  StopReason = "search_failed"
	StopCancelled     StopReason = "cancelled"
)

// Searcher returns one page of candidates.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Page, error)
}

// PageSizer is implemented by searchers whose service caps the page size.
type PageSizer interface {
	MaxPageSize() int
}

// Fetcher downloads a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Document, error)
}

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(data []byte, contentType string) extract.Result
}

// Harvester wires the search, fetch and extract stages together.
type Harvester struct {
	Search   Searcher
	Fetch    Fetcher
	Extract  Extractor
	Progress io.Writer // human-readable progress lines; nil discards
}

// Counts tallies candidate outcomes for one run.
type Counts struct {
	Pages         int
	Candidates    int
	Stored        int
	NoSource      int
	FetchFailed   int
	ExtractFailed int
	TooShort      int
	Duplicates    int
}

// Map returns the counts keyed by outcome name.
func (c Counts) Map() map[string]int {
	return map[string]int{
		"pages":          c.Pages,
		"candidates":     c.Candidates,
		"stored":         c.Stored,
		"no_source":      c.NoSource,
		"fetch_failed":   c.FetchFailed,
		"extract_failed": c.ExtractFailed,
		"too_short":      c.TooShort,
		"duplicates":     c.Duplicates,
	}
}

// Result is the outcome of a run. Records are in harvest order.
type Result struct {
	Records    []types.Record
	TotalWords int
	Stop       StopReason
	Offset     int // offset of the last page requested
	Counts     Counts
	Err        error
}

// Run harvests documents for cfg. A search failure or cancellation returns
// the partial Result together with the error.
func (h *Harvester) Run(ctx context.Context, cfg types.HarvestConfig) (Result, error) {
	cfg = withDefaults(cfg)
	if err := validate(cfg); err != nil {
		return Result{}, err
	}
	if h.Search == nil || h.Fetch == nil || h.Extract == nil {
		return Result{}, fmt.Errorf("harvester is missing a search, fetch or extract stage")
	}

	w := h.Progress
	if w == nil {
		w = io.Discard
	}

	// Offsets advance by the page size actually served.
	if ps, ok := h.Search.(PageSizer); ok {
		if limit := ps.MaxPageSize(); limit > 0 && cfg.BatchSize > limit {
			log.Warn().Int("batch_size", cfg.BatchSize).Int("max", limit).Msg("batch size capped")
			fmt.Fprintf(w, "batch size %d capped to %d\n", cfg.BatchSize, limit)
			cfg.BatchSize = limit
		}
	}

	acc := corpus.NewAccumulator()
	var (
		res    Result
		offset int
	)
	finish := func(stop StopReason, err error) (Result, error) {
		res.Records = acc.Records()
		res.TotalWords = acc.Total()
		res.Stop = stop
		res.Err = err
		fmt.Fprintf(w, "\nHarvest summary: %d stored, %d words, %d no source, %d fetch failed, %d extract failed, %d too short, %d duplicates (stop: %s)\n",
			res.Counts.Stored, res.TotalWords, res.Counts.NoSource, res.Counts.FetchFailed,
			res.Counts.ExtractFailed, res.Counts.TooShort, res.Counts.Duplicates, stop)
		return res, err
	}

	for acc.Total() < cfg.TargetWords {
		if err := ctx.Err(); err != nil {
			return finish(StopCancelled, err)
		}

		q := search.Query{
			Topic:    cfg.Topic,
			YearFrom: cfg.YearFrom,
			YearTo:   cfg.YearTo,
			Limit:    cfg.BatchSize,
			Offset:   offset,
		}
		res.Offset = offset
		log.Debug().Int("offset", offset).Int("limit", cfg.BatchSize).Msg("searching")

		page, err := h.Search.Search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return finish(StopCancelled, ctx.Err())
			}
			log.Warn().Err(err).Int("offset", offset).Msg("search failed")
			fmt.Fprintf(w, "search failed at offset %d: %v\n", offset, err)
			return finish(StopSearchFailed, fmt.Errorf("%w at offset %d: %w", ErrSearchFailed, offset, err))
		}
		if len(page.Candidates) == 0 {
			fmt.Fprintf(w, "no more results at offset %d\n", offset)
			return finish(StopExhausted, nil)
		}
		res.Counts.Pages++

		for _, c := range page.Candidates {
			if err := ctx.Err(); err != nil {
				return finish(StopCancelled, err)
			}
			res.Counts.Candidates++
			h.process(ctx, c, cfg, acc, &res.Counts, w)
			if acc.Total() >= cfg.TargetWords {
				return finish(StopTargetReached, nil)
			}
		}

		offset += cfg.BatchSize
		if err := sleep(ctx, cfg.PageDelay); err != nil {
			return finish(StopCancelled, err)
		}
	}
	return finish(StopTargetReached, nil)
}

// process handles one candidate, updating counts and the accumulator.
func (h *Harvester) process(ctx context.Context, c search.Candidate, cfg types.HarvestConfig, acc *corpus.Accumulator, counts *Counts, w io.Writer) {
	url := c.DocumentURL()
	if url == "" {
		counts.NoSource++
		fmt.Fprintf(w, "skipped: %q (no source)\n", c.Title)
		return
	}

	fmt.Fprintf(w, "downloading: %s\n", url)
	doc, err := h.Fetch.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		counts.FetchFailed++
		log.Debug().Err(err).Str("url", url).Msg("fetch failed")
		fmt.Fprintf(w, "failed: %s: %v\n", url, err)
		return
	}

	ex := h.Extract.Extract(doc.Body, doc.ContentType)
	if !ex.OK() {
		counts.ExtractFailed++
		log.Debug().Err(ex.Err).Str("url", url).Str("kind", string(ex.Kind)).Msg("extract failed")
		fmt.Fprintf(w, "failed: %s: %s: %v\n", url, ex.Kind, ex.Err)
		return
	}

	n := utf8.RuneCountInString(ex.Text)
	if n <= cfg.MinTextLength {
		counts.TooShort++
		fmt.Fprintf(w, "skipped: %s (%d characters)\n", url, n)
		return
	}

	rec := types.Record{
		Title:       c.Title,
		Year:        c.Year,
		Text:        ex.Text,
		SourceURL:   url,
		ContentType: ex.ContentType,
		Source:      c.Source,
	}
	if cfg.Clean {
		out := clean.Apply(ex.Text, cfg.Cleaning)
		rec.Text = out.Text
		rec.OriginalLen = out.OriginalLen
		rec.CleanedLen = out.CleanedLen
		if out.Text == "" {
			counts.TooShort++
			fmt.Fprintf(w, "skipped: %s (empty after cleaning)\n", url)
			return
		}
	}
	rec.WordCount = corpus.WordCount(rec.Text)

	if err := acc.Add(rec); err != nil {
		if errors.Is(err, corpus.ErrDuplicate) {
			counts.Duplicates++
			fmt.Fprintf(w, "skipped: %s (duplicate)\n", url)
			return
		}
		counts.ExtractFailed++
		fmt.Fprintf(w, "failed: %s: %v\n", url, err)
		return
	}
	counts.Stored++
	log.Debug().Str("url", url).Int("words", rec.WordCount).Int("total", acc.Total()).Msg("stored")
	fmt.Fprintf(w, "stored: %q +%d words (%d/%d)\n", c.Title, rec.WordCount, acc.Total(), cfg.TargetWords)
}

func withDefaults(cfg types.HarvestConfig) types.HarvestConfig {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = types.DefaultBatchSize
	}
	if cfg.TargetWords == 0 {
		cfg.TargetWords = types.DefaultTargetWords
	}
	return cfg
}

func validate(cfg types.HarvestConfig) error {
	switch {
	case cfg.Topic == "":
		return fmt.Errorf("topic is required")
	case cfg.BatchSize < 0:
		return fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	case cfg.TargetWords < 0:
		return fmt.Errorf("target words must be positive, got %d", cfg.TargetWords)
	case cfg.MinTextLength < 0:
		return fmt.Errorf("minimum text length must not be negative, got %d", cfg.MinTextLength)
	case cfg.YearFrom > 0 && cfg.YearTo > 0 && cfg.YearFrom > cfg.YearTo:
		return fmt.Errorf("year range %d-%d is inverted", cfg.YearFrom, cfg.YearTo)
	}
	return nil
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
