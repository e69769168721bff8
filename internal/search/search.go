// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic APIs one page at a time and returns
// candidate documents for the harvester.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

var (
	// ErrStatus reports a non-2xx response from a search API.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrMissingResults reports a response body without the results field.
	ErrMissingResults = errors.New("response lacks results field")
	// ErrPageSize reports a page request the backend cannot serve in full.
	ErrPageSize = errors.New("unsupported page size")
)

// Backend searches a single bibliographic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, q Query) (Page, error)
	// MaxPageSize is the largest Limit the service returns in one page.
	MaxPageSize() int
}

// Query holds the parameters for one page request. YearFrom and YearTo are
// inclusive; zero leaves that end of the range open.
type Query struct {
	Topic    string
	YearFrom int
	YearTo   int
	Limit    int
	Offset   int
}

// Validate reports whether the query can be sent.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Topic) == "" {
		return fmt.Errorf("empty topic")
	}
	if q.Limit <= 0 {
		return fmt.Errorf("page size must be positive, got %d", q.Limit)
	}
	if q.Offset < 0 {
		return fmt.Errorf("negative offset %d", q.Offset)
	}
	if q.YearFrom > 0 && q.YearTo > 0 && q.YearFrom > q.YearTo {
		return fmt.Errorf("year range %d-%d is inverted", q.YearFrom, q.YearTo)
	}
	return nil
}

// checkPageSize rejects a Limit above limit. Silently shrinking the page
// would make callers advance their offset past results never returned.
func checkPageSize(q Query, limit int) error {
	if q.Limit > limit {
		return fmt.Errorf("page size %d exceeds the maximum of %d: %w", q.Limit, limit, ErrPageSize)
	}
	return nil
}

// Candidate is one search hit that may lead to a document.
type Candidate struct {
	ID            string
	Title         string
	Year          int
	URL           string // landing page
	OpenAccessURL string // direct document link, if any
	Source        string
}

// DocumentURL returns the URL to fetch: the open-access link when present,
// otherwise the landing page. Empty means the candidate has no source.
func (c Candidate) DocumentURL() string {
	if c.OpenAccessURL != "" {
		return c.OpenAccessURL
	}
	return c.URL
}

// Page is one page of search results. An empty Candidates slice means the
// result set is exhausted.
type Page struct {
	Candidates []Candidate
	Total      int
}

// New returns the backend selected by cfg.
func New(cfg types.SearchConfig, client *http.Client) (Backend, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = types.APIUserAgent
	}
	switch cfg.Backend {
	case types.BackendSemanticScholar, "":
		return &SemanticScholarBackend{
			Client:         client,
			APIKey:         cfg.SemanticScholarAPIKey,
			UserAgent:      ua,
			OpenAccessOnly: cfg.OpenAccessOnly,
			MaxRetries:     cfg.MaxRetries,
		}, nil
	case types.BackendOpenAlex:
		return &OpenAlexBackend{
			Client:         client,
			Email:          cfg.OpenAlexEmail,
			UserAgent:      ua,
			OpenAccessOnly: cfg.OpenAccessOnly,
			MaxRetries:     cfg.MaxRetries,
		}, nil
	case types.BackendArxiv:
		return &ArxivBackend{
			Client:     client,
			UserAgent:  ua,
			MaxRetries: cfg.MaxRetries,
		}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q: use semantic_scholar, openalex or arxiv", cfg.Backend)
	}
}
