// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/corpus-builder/internal/httputil"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivMaxPage is the largest page arXiv serves in one response.
const arxivMaxPage = 2000

// ArxivBackend queries the arXiv Atom API. Every arXiv paper has a PDF, so
// candidates always carry an open-access link.
type ArxivBackend struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// MaxPageSize returns the largest page arXiv serves.
func (b *ArxivBackend) MaxPageSize() int { return arxivMaxPage }

// Search requests one page of papers matching q.
func (b *ArxivBackend) Search(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	if err := checkPageSize(q, arxivMaxPage); err != nil {
		return Page{}, err
	}

	params := url.Values{
		"search_query": {buildArxivQuery(q)},
		"start":        {strconv.Itoa(q.Offset)},
		"max_results":  {strconv.Itoa(q.Limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return Page{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("arXiv API returned HTTP %d: %w", resp.StatusCode, ErrStatus)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return Page{}, fmt.Errorf("parsing arXiv response: %w", err)
	}

	page := Page{Total: feed.TotalResults, Candidates: make([]Candidate, 0, len(feed.Entries))}
	for _, entry := range feed.Entries {
		// Malformed queries come back as a single entry under /api/errors.
		if strings.Contains(entry.ID, "/api/errors") {
			return Page{}, fmt.Errorf("arXiv API error %q: %w", strings.TrimSpace(entry.Summary), ErrStatus)
		}
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}
		c := Candidate{
			ID:            id,
			Title:         strings.Join(strings.Fields(entry.Title), " "),
			URL:           entry.ID,
			OpenAccessURL: entry.pdfLink(),
			Source:        b.Name(),
		}
		if c.OpenAccessURL == "" {
			c.OpenAccessURL = "https://arxiv.org/pdf/" + id
		}
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			c.Year = t.Year()
		}
		page.Candidates = append(page.Candidates, c)
	}
	return page, nil
}

// buildArxivQuery ANDs every topic word across all fields and adds a
// submittedDate range when the query has year bounds.
func buildArxivQuery(q Query) string {
	var parts []string
	for _, term := range strings.Fields(q.Topic) {
		parts = append(parts, "all:"+term)
	}
	if q.YearFrom > 0 || q.YearTo > 0 {
		from, to := "000001010000", "999912312359"
		if q.YearFrom > 0 {
			from = fmt.Sprintf("%04d01010000", q.YearFrom)
		}
		if q.YearTo > 0 {
			to = fmt.Sprintf("%04d12312359", q.YearTo)
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", from, to))
	}
	return strings.Join(parts, " AND ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	TotalResults int          `xml:"totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	Links     []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// pdfLink returns the entry's PDF link, if the feed lists one.
func (e arxivEntry) pdfLink() string {
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
