// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/corpus-builder/internal/httputil"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,year,openAccessPdf,url,externalIds"

// semanticMaxLimit is the largest limit the paper search endpoint accepts.
const semanticMaxLimit = 100

// SemanticScholarBackend queries the Semantic Scholar graph API.
type SemanticScholarBackend struct {
	Client         *http.Client
	APIKey         string
	UserAgent      string
	OpenAccessOnly bool
	MaxRetries     int
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// MaxPageSize returns the largest limit the search endpoint accepts.
func (b *SemanticScholarBackend) MaxPageSize() int { return semanticMaxLimit }

// Search requests one page of papers matching q.
func (b *SemanticScholarBackend) Search(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	if err := checkPageSize(q, semanticMaxLimit); err != nil {
		return Page{}, err
	}

	params := url.Values{
		"query":  {q.Topic},
		"limit":  {strconv.Itoa(q.Limit)},
		"offset": {strconv.Itoa(q.Offset)},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(q.YearFrom, q.YearTo); yr != "" {
		params.Set("year", yr)
	}
	if b.OpenAccessOnly {
		params.Set("openAccessPdf", "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return Page{}, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("Semantic Scholar API returned HTTP %d: %w", resp.StatusCode, ErrStatus)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Page{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	if sr.Data == nil {
		return Page{}, fmt.Errorf("Semantic Scholar: %w %q", ErrMissingResults, "data")
	}

	page := Page{Total: sr.Total, Candidates: make([]Candidate, 0, len(*sr.Data))}
	for _, p := range *sr.Data {
		c := Candidate{
			ID:     p.PaperID,
			Title:  p.Title,
			Year:   p.Year,
			URL:    p.URL,
			Source: b.Name(),
		}
		if p.OpenAccessPDF != nil {
			c.OpenAccessURL = p.OpenAccessPDF.URL
		}
		page.Candidates = append(page.Candidates, c)
	}
	return page, nil
}

// buildYearRange returns a Semantic Scholar year filter such as "2020-2023",
// "2020-" or "-2023".
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures. Data is a pointer so a missing
// field can be told apart from an empty page.
type semanticResponse struct {
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Data   *[]semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Year          int                 `json:"year"`
	URL           string              `json:"url"`
	OpenAccessPDF *semanticOpenAccess `json:"openAccessPdf"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticOpenAccess struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
