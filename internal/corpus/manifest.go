// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

// Manifest summarizes a run without the document text.
type Manifest struct {
	Command    string         `yaml:"command"`
	Topic      string         `yaml:"topic,omitempty"`
	Stop       string         `yaml:"stop,omitempty"`
	Error      string         `yaml:"error,omitempty"`
	TotalWords int            `yaml:"total_words"`
	Documents  int            `yaml:"documents"`
	Counts     map[string]int `yaml:"counts,omitempty"`
	CreatedAt  time.Time      `yaml:"created_at"`
	Entries    []ManifestItem `yaml:"entries"`
}

// ManifestItem describes one stored record.
type ManifestItem struct {
	Title       string `yaml:"title"`
	Year        int    `yaml:"year,omitempty"`
	WordCount   int    `yaml:"word_count"`
	SourceURL   string `yaml:"source_url"`
	ContentType string `yaml:"content_type,omitempty"`
	OriginalLen int    `yaml:"original_len,omitempty"`
	CleanedLen  int    `yaml:"cleaned_len,omitempty"`
}

// NewManifest builds a manifest entry list from records.
func NewManifest(command string, records []types.Record) Manifest {
	m := Manifest{
		Command:   command,
		Documents: len(records),
		CreatedAt: time.Now().UTC(),
		Entries:   make([]ManifestItem, len(records)),
	}
	for i, r := range records {
		m.TotalWords += r.WordCount
		m.Entries[i] = ManifestItem{
			Title:       r.Title,
			Year:        r.Year,
			WordCount:   r.WordCount,
			SourceURL:   r.SourceURL,
			ContentType: r.ContentType,
			OriginalLen: r.OriginalLen,
			CleanedLen:  r.CleanedLen,
		}
	}
	return m
}

// WriteManifest writes m as YAML to path.
func WriteManifest(m Manifest, path string) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Records returns the manifest entries as records without text, for
// display with FormatTable.
func (m Manifest) Records() []types.Record {
	records := make([]types.Record, len(m.Entries))
	for i, e := range m.Entries {
		records[i] = types.Record{
			Title:       e.Title,
			Year:        e.Year,
			WordCount:   e.WordCount,
			SourceURL:   e.SourceURL,
			ContentType: e.ContentType,
			OriginalLen: e.OriginalLen,
			CleanedLen:  e.CleanedLen,
		}
	}
	return records
}
