// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/corpus-builder/internal/httputil"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexMaxPerPage is the largest page size OpenAlex accepts.
const openAlexMaxPerPage = 200

// OpenAlexBackend queries the OpenAlex API. OpenAlex paginates by page
// number, so offsets are mapped onto pages of Limit results.
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email          string
	UserAgent      string
	OpenAccessOnly bool
	MaxRetries     int
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// MaxPageSize returns the largest per-page value OpenAlex accepts.
func (b *OpenAlexBackend) MaxPageSize() int { return openAlexMaxPerPage }

// Search requests one page of works matching q. The offset must fall on a
// page boundary of Limit results.
func (b *OpenAlexBackend) Search(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	if err := checkPageSize(q, openAlexMaxPerPage); err != nil {
		return Page{}, err
	}
	if q.Offset%q.Limit != 0 {
		return Page{}, fmt.Errorf("offset %d is not a multiple of page size %d: %w", q.Offset, q.Limit, ErrPageSize)
	}

	params := url.Values{
		"search":   {q.Topic},
		"per-page": {strconv.Itoa(q.Limit)},
		"page":     {strconv.Itoa(q.Offset/q.Limit + 1)},
	}

	var filters []string
	if q.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%04d-01-01", q.YearFrom))
	}
	if q.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%04d-12-31", q.YearTo))
	}
	if b.OpenAccessOnly {
		filters = append(filters, "is_oa:true")
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return Page{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("OpenAlex API returned HTTP %d: %w", resp.StatusCode, ErrStatus)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return Page{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	if oar.Results == nil {
		return Page{}, fmt.Errorf("OpenAlex: %w %q", ErrMissingResults, "results")
	}

	page := Page{Total: oar.Meta.Count, Candidates: make([]Candidate, 0, len(*oar.Results))}
	for _, w := range *oar.Results {
		c := Candidate{
			ID:     w.ID,
			Title:  w.Title,
			Year:   w.PublicationYear,
			Source: b.Name(),
		}
		if w.PrimaryLocation != nil {
			c.URL = w.PrimaryLocation.LandingPageURL
		}
		if c.URL == "" && w.DOI != "" {
			c.URL = w.DOI
		}
		switch {
		case w.OpenAccess.OAURL != "" && looksLikePDF(w.OpenAccess.OAURL):
			c.OpenAccessURL = w.OpenAccess.OAURL
		case w.BestOALocation != nil && w.BestOALocation.PDFURL != "":
			c.OpenAccessURL = w.BestOALocation.PDFURL
		case w.OpenAccess.OAURL != "":
			c.OpenAccessURL = w.OpenAccess.OAURL
		}
		page.Candidates = append(page.Candidates, c)
	}
	return page, nil
}

func looksLikePDF(u string) bool {
	return strings.HasSuffix(strings.ToLower(u), ".pdf")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta    `json:"meta"`
	Results *[]openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	DOI             string            `json:"doi"`
	PublicationYear int               `json:"publication_year"`
	OpenAccess      openAlexOA        `json:"open_access"`
	PrimaryLocation *openAlexLocation `json:"primary_location"`
	BestOALocation  *openAlexLocation `json:"best_oa_location"`
}

type openAlexOA struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
}
