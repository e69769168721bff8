// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the corpus-builder pipeline.
package types

// RecordKey is the identity of a corpus record within one run.
type RecordKey struct {
	Title     string
	SourceURL string
}

// Record is one document stored in the corpus. Records are never modified
// after they are appended to an accumulator.
type Record struct {
	// Title is the document title, or the file name for scrubbed files.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year; zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// WordCount is the number of whitespace-delimited tokens in Text.
	WordCount int `json:"word_count" yaml:"word_count"`

	// Text is the stored document text: raw for harvested documents,
	// cleaned for scrubbed ones or when harvest cleaning is enabled.
	Text string `json:"text" yaml:"text"`

	// SourceURL is the URL the text was downloaded from, or the file path
	// for scrubbed files.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// ContentType is the MIME type the text was extracted from.
	ContentType string `json:"content_type" yaml:"content_type"`

	// OriginalLen is the character count before cleaning.
	OriginalLen int `json:"original_len" yaml:"original_len"`

	// CleanedLen is the character count of Text.
	CleanedLen int `json:"cleaned_len" yaml:"cleaned_len"`

	// Source names the search backend or "file".
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Key returns the record identity.
func (r Record) Key() RecordKey {
	return RecordKey{Title: r.Title, SourceURL: r.SourceURL}
}
