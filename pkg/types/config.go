// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Defaults shared by the CLI and the pipeline packages.
const (
	DefaultBatchSize     = 100
	DefaultTargetWords   = 1000000
	DefaultMinTextLength = 1000
	DefaultPageDelay     = 1 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
	DefaultSearchTimeout = 30 * time.Second
	DefaultMaxBytes      = 50 << 20

	// BrowserUserAgent is sent with document downloads so publisher
	// servers treat the request like a regular browser visit.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// APIUserAgent is sent with search API requests.
	APIUserAgent = "corpus-builder/0.1"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds every individual request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchBackend identifies the bibliographic search service.
type SearchBackend string

const (
	BackendSemanticScholar SearchBackend = "semantic_scholar"
	BackendOpenAlex        SearchBackend = "openalex"
	BackendArxiv           SearchBackend = "arxiv"
)

// SearchConfig holds settings for the search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the search service (default semantic_scholar).
	Backend SearchBackend `json:"backend" yaml:"backend"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// OpenAccessOnly asks the service to return only works with an
	// open-access PDF, where the service supports such a filter.
	OpenAccessOnly bool `json:"open_access_only" yaml:"open_access_only"`

	// MaxRetries bounds HTTP 429 backoff attempts (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for document downloads.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequirePDF rejects responses whose Content-Type is not application/pdf.
	RequirePDF bool `json:"require_pdf" yaml:"require_pdf"`

	// FollowLandingPages looks for a citation_pdf_url in HTML responses
	// and downloads the referenced document instead.
	FollowLandingPages bool `json:"follow_landing_pages" yaml:"follow_landing_pages"`

	// MaxBytes caps the size of a downloaded document.
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// PDFBackend selects the PDF text extraction library.
type PDFBackend string

const (
	PDFLedongthuc PDFBackend = "ledongthuc"
	PDFPdfcpu     PDFBackend = "pdfcpu"
)

// CleaningConfig toggles the optional cleaning stages. Stages always run
// in a fixed order; whitespace collapsing is applied unconditionally.
type CleaningConfig struct {
	CutReferences   bool `json:"cut_references" yaml:"cut_references"`
	RemoveURLs      bool `json:"remove_urls" yaml:"remove_urls"`
	FixHyphenation  bool `json:"fix_hyphenation" yaml:"fix_hyphenation"`
	RemoveCitations bool `json:"remove_citations" yaml:"remove_citations"`
	RemoveNumbers   bool `json:"remove_numbers" yaml:"remove_numbers"`
	RemovePunct     bool `json:"remove_punctuation" yaml:"remove_punctuation"`
	Lowercase       bool `json:"lowercase" yaml:"lowercase"`
}

// DefaultCleaningConfig enables every stage except lowercasing.
func DefaultCleaningConfig() CleaningConfig {
	return CleaningConfig{
		CutReferences:   true,
		RemoveURLs:      true,
		FixHyphenation:  true,
		RemoveCitations: true,
		RemoveNumbers:   true,
		RemovePunct:     true,
	}
}

// HarvestConfig holds the parameters of one harvest run.
type HarvestConfig struct {
	// Topic is the free-text search query.
	Topic string `json:"topic" yaml:"topic"`

	// YearFrom and YearTo bound publication years inclusively; zero leaves
	// that side open.
	YearFrom int `json:"year_from" yaml:"year_from"`
	YearTo   int `json:"year_to" yaml:"year_to"`

	// BatchSize is the number of results requested per page.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// TargetWords stops the harvest once the corpus reaches this many words.
	TargetWords int `json:"target_words" yaml:"target_words"`

	// MinTextLength is the extracted character count a document must
	// exceed to be kept.
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`

	// PageDelay paces consecutive search requests.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// Clean routes extracted text through the cleaner before storing it.
	Clean bool `json:"clean" yaml:"clean"`

	// Cleaning selects the stages applied when Clean is set.
	Cleaning CleaningConfig `json:"cleaning" yaml:"cleaning"`
}

// OutputFormat selects the dataset layout written at the end of a run.
type OutputFormat string

const (
	FormatCSV OutputFormat = "csv"
	FormatZIP OutputFormat = "zip"
)

// OutputConfig holds settings for the files written after a run.
type OutputConfig struct {
	// Format is csv or zip.
	Format OutputFormat `json:"format" yaml:"format"`

	// Path is the dataset file. Empty derives a name from the command.
	Path string `json:"path" yaml:"path"`

	// ManifestPath is an optional YAML summary of the run.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`

	// DBPath is an optional SQLite corpus database the records are saved to.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Harvest  HarvestConfig  `json:"harvest" yaml:"harvest"`
	Cleaning CleaningConfig `json:"cleaning" yaml:"cleaning"`
	PDF      PDFBackend     `json:"pdf_backend" yaml:"pdf_backend"`
	Output   OutputConfig   `json:"output" yaml:"output"`
}
