// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus accumulates corpus records for one run and writes them out
// as CSV, ZIP archives of text files, YAML manifests or terminal tables.
package corpus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

// ErrDuplicate is returned by Add when a record with the same title and
// source URL has already been stored in this run.
var ErrDuplicate = errors.New("duplicate record")

// Accumulator is an append-only record store with a running word total.
// It is not safe for concurrent use; each run owns its own instance.
type Accumulator struct {
	records []types.Record
	seen    map[types.RecordKey]struct{}
	total   int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[types.RecordKey]struct{})}
}

// Add appends r and adds its word count to the running total. A record
// whose identity is already present is rejected with ErrDuplicate and
// leaves the accumulator unchanged.
func (a *Accumulator) Add(r types.Record) error {
	key := r.Key()
	if _, ok := a.seen[key]; ok {
		return fmt.Errorf("%w: %q (%s)", ErrDuplicate, r.Title, r.SourceURL)
	}
	if r.WordCount < 0 {
		return fmt.Errorf("record %q has negative word count %d", r.Title, r.WordCount)
	}
	a.seen[key] = struct{}{}
	a.records = append(a.records, r)
	a.total += r.WordCount
	return nil
}

// Total returns the sum of the word counts of all stored records.
func (a *Accumulator) Total() int {
	return a.total
}

// Len returns the number of stored records.
func (a *Accumulator) Len() int {
	return len(a.records)
}

// Records returns the stored records in insertion order. The returned
// slice is a copy.
func (a *Accumulator) Records() []types.Record {
	out := make([]types.Record, len(a.records))
	copy(out, a.records)
	return out
}

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
