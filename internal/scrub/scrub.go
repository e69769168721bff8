// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrub extracts and cleans local PDF and DOCX files into corpus
// records.
package scrub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/corpus-builder/internal/clean"
	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/internal/extract"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

// Input is one document to scrub. When Data is nil the file at Path is
// read during the run.
type Input struct {
	Name        string // display name, usually the base file name
	Path        string
	Data        []byte
	ContentType string // declared type; empty derives it from Name
}

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(data []byte, contentType string) extract.Result
}

// Scrubber runs inputs through extraction and cleaning.
type Scrubber struct {
	Extract  Extractor
	Progress io.Writer // nil discards
}

// Counts tallies input outcomes.
type Counts struct {
	Files         int
	Stored        int
	ReadFailed    int
	ExtractFailed int
	Empty         int
	Duplicates    int
}

// Map returns the counts keyed by outcome name.
func (c Counts) Map() map[string]int {
	return map[string]int{
		"files":          c.Files,
		"stored":         c.Stored,
		"read_failed":    c.ReadFailed,
		"extract_failed": c.ExtractFailed,
		"empty":          c.Empty,
		"duplicates":     c.Duplicates,
	}
}

// Result holds the scrubbed records in input order.
type Result struct {
	Records    []types.Record
	TotalWords int
	Counts     Counts
}

// Run scrubs inputs with cfg. Failures on individual files are counted
// and skipped; only cancellation stops the run early, returning what was
// gathered with ctx.Err().
func (s *Scrubber) Run(ctx context.Context, inputs []Input, cfg types.CleaningConfig) (Result, error) {
	if s.Extract == nil {
		return Result{}, fmt.Errorf("scrubber has no extractor")
	}
	w := s.Progress
	if w == nil {
		w = io.Discard
	}

	acc := corpus.NewAccumulator()
	var res Result
	finish := func(err error) (Result, error) {
		res.Records = acc.Records()
		res.TotalWords = acc.Total()
		fmt.Fprintf(w, "\nScrub summary: %d stored, %d words, %d read failed, %d extract failed, %d empty, %d duplicates\n",
			res.Counts.Stored, res.TotalWords, res.Counts.ReadFailed, res.Counts.ExtractFailed,
			res.Counts.Empty, res.Counts.Duplicates)
		return res, err
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		res.Counts.Files++

		data := in.Data
		if data == nil {
			b, err := os.ReadFile(in.Path)
			if err != nil {
				res.Counts.ReadFailed++
				fmt.Fprintf(w, "failed: %s: %v\n", in.Path, err)
				continue
			}
			data = b
		}

		declared := in.ContentType
		if declared == "" {
			declared = extract.ContentTypeForFile(in.Name)
		}

		ex := s.Extract.Extract(data, declared)
		if !ex.OK() {
			res.Counts.ExtractFailed++
			log.Debug().Err(ex.Err).Str("file", in.Name).Str("kind", string(ex.Kind)).Msg("extract failed")
			fmt.Fprintf(w, "failed: %s: %s: %v\n", in.Name, ex.Kind, ex.Err)
			continue
		}

		out := clean.Apply(ex.Text, cfg)
		if out.Text == "" {
			res.Counts.Empty++
			fmt.Fprintf(w, "skipped: %s (empty after cleaning)\n", in.Name)
			continue
		}

		rec := types.Record{
			Title:       in.Name,
			Text:        out.Text,
			WordCount:   corpus.WordCount(out.Text),
			SourceURL:   in.Path,
			ContentType: ex.ContentType,
			OriginalLen: out.OriginalLen,
			CleanedLen:  out.CleanedLen,
			Source:      "scrub",
		}
		if err := acc.Add(rec); err != nil {
			if errors.Is(err, corpus.ErrDuplicate) {
				res.Counts.Duplicates++
				fmt.Fprintf(w, "skipped: %s (duplicate)\n", in.Name)
				continue
			}
			return finish(err)
		}
		res.Counts.Stored++
		fmt.Fprintf(w, "scrubbed: %s (%d -> %d characters, %d removed, %d words)\n",
			in.Name, out.OriginalLen, out.CleanedLen, out.Removed(), rec.WordCount)
	}
	return finish(nil)
}

// LoadInputs expands paths into inputs. Directories are walked for .pdf
// and .docx files in lexical order; files named explicitly are always
// included and their type is sniffed if the extension is unknown.
func LoadInputs(paths []string) ([]Input, error) {
	var inputs []Input
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			inputs = append(inputs, Input{Name: filepath.Base(p), Path: p})
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if extract.ContentTypeForFile(d.Name()) != "" && !strings.HasPrefix(d.Name(), "~$") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
		sort.Strings(found)
		for _, f := range found {
			inputs = append(inputs, Input{Name: filepath.Base(f), Path: f})
		}
	}
	return inputs, nil
}
