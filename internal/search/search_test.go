// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/corpus-builder/internal/httputil"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// withSemanticServer points the Semantic Scholar backend at a test server.
func withSemanticServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() {
		semanticAPIBase = old
		ts.Close()
	})
	return ts
}

func withOpenAlexServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	t.Cleanup(func() {
		openAlexSearchBase = old
		ts.Close()
	})
	return ts
}

// --- Query validation ---

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"valid", Query{Topic: "rice", Limit: 10}, false},
		{"open range", Query{Topic: "rice", Limit: 10, YearFrom: 2000}, false},
		{"empty topic", Query{Topic: "  ", Limit: 10}, true},
		{"zero limit", Query{Topic: "rice"}, true},
		{"negative offset", Query{Topic: "rice", Limit: 10, Offset: -1}, true},
		{"inverted years", Query{Topic: "rice", Limit: 10, YearFrom: 2020, YearTo: 2010}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCandidateDocumentURL(t *testing.T) {
	assert.Equal(t, "https://oa/x.pdf", Candidate{URL: "https://land", OpenAccessURL: "https://oa/x.pdf"}.DocumentURL())
	assert.Equal(t, "https://land", Candidate{URL: "https://land"}.DocumentURL())
	assert.Equal(t, "", Candidate{}.DocumentURL())
}

func TestBuildYearRange(t *testing.T) {
	assert.Equal(t, "2020-2023", buildYearRange(2020, 2023))
	assert.Equal(t, "2020-", buildYearRange(2020, 0))
	assert.Equal(t, "-2023", buildYearRange(0, 2023))
	assert.Equal(t, "", buildYearRange(0, 0))
}

func TestNewSelectsBackend(t *testing.T) {
	b, err := New(types.SearchConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "semantic_scholar", b.Name())

	b, err = New(types.SearchConfig{Backend: types.BackendOpenAlex}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openalex", b.Name())

	b, err = New(types.SearchConfig{Backend: types.BackendArxiv}, nil)
	require.NoError(t, err)
	assert.Equal(t, "arxiv", b.Name())

	_, err = New(types.SearchConfig{Backend: "crossref"}, nil)
	assert.Error(t, err)
}

// --- Semantic Scholar ---

func TestSemanticSearchRequestParams(t *testing.T) {
	var captured *http.Request
	ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	})

	b := &SemanticScholarBackend{Client: ts.Client(), APIKey: "secret", UserAgent: "test-agent", OpenAccessOnly: true}
	_, err := b.Search(context.Background(), Query{Topic: "Social Science Philippines", YearFrom: 2010, YearTo: 2024, Limit: 100, Offset: 200})
	require.NoError(t, err)
	require.NotNil(t, captured)

	q := captured.URL.Query()
	assert.Equal(t, "Social Science Philippines", q.Get("query"))
	assert.Equal(t, "2010-2024", q.Get("year"))
	assert.Equal(t, "100", q.Get("limit"))
	assert.Equal(t, "200", q.Get("offset"))
	assert.Equal(t, semanticFields, q.Get("fields"))
	assert.True(t, q.Has("openAccessPdf"))
	assert.Equal(t, "secret", captured.Header.Get("x-api-key"))
	assert.Equal(t, "test-agent", captured.Header.Get("User-Agent"))
}

func TestSemanticSearchParsesCandidates(t *testing.T) {
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total":2,"offset":0,"data":[
			{"paperId":"p1","title":"Open Paper","year":2019,"url":"https://s2/p1","openAccessPdf":{"url":"https://oa/p1.pdf","status":"GOLD"}},
			{"paperId":"p2","title":"Closed Paper","url":"https://s2/p2","openAccessPdf":null}
		]}`)
	})

	b := &SemanticScholarBackend{Client: ts.Client()}
	page, err := b.Search(context.Background(), Query{Topic: "x", Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Candidates, 2)
	assert.Equal(t, Candidate{ID: "p1", Title: "Open Paper", Year: 2019, URL: "https://s2/p1", OpenAccessURL: "https://oa/p1.pdf", Source: "semantic_scholar"}, page.Candidates[0])
	assert.Equal(t, "", page.Candidates[1].OpenAccessURL)
	assert.Equal(t, "https://s2/p2", page.Candidates[1].DocumentURL())
}

func TestSemanticSearchEmptyPage(t *testing.T) {
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	})

	b := &SemanticScholarBackend{Client: ts.Client()}
	page, err := b.Search(context.Background(), Query{Topic: "nothing", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Candidates)
}

func TestSemanticSearchFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{}`, ErrStatus},
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, ErrStatus},
		{"missing data", http.StatusOK, `{"total":5,"offset":0}`, ErrMissingResults},
		{"null data", http.StatusOK, `{"total":5,"data":null}`, ErrMissingResults},
		{"not json", http.StatusOK, `<html>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			b := &SemanticScholarBackend{Client: ts.Client()}
			_, err := b.Search(context.Background(), Query{Topic: "x", Limit: 10})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestSemanticSearchRetriesThrottle(t *testing.T) {
	calls := 0
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"total":1,"data":[{"paperId":"p","title":"T","url":"https://s2/p"}]}`)
	})

	b := &SemanticScholarBackend{Client: ts.Client()}
	page, err := b.Search(context.Background(), Query{Topic: "x", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Candidates, 1)
	assert.Equal(t, 2, calls)
}

// --- OpenAlex ---

func TestOpenAlexRequestParams(t *testing.T) {
	var captured *http.Request
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"meta":{"count":0},"results":[]}`)
	})

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.org"}
	_, err := b.Search(context.Background(), Query{Topic: "rice farming", YearFrom: 2015, YearTo: 2020, Limit: 50, Offset: 100})
	require.NoError(t, err)

	q := captured.URL.Query()
	assert.Equal(t, "rice farming", q.Get("search"))
	assert.Equal(t, "50", q.Get("per-page"))
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "from_publication_date:2015-01-01,to_publication_date:2020-12-31", q.Get("filter"))
	assert.Equal(t, "me@example.org", q.Get("mailto"))
}

func TestOpenAlexPageSizeLimits(t *testing.T) {
	var captured *http.Request
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"meta":{"count":0},"results":[]}`)
	})

	b := &OpenAlexBackend{Client: ts.Client(), OpenAccessOnly: true}
	assert.Equal(t, 200, b.MaxPageSize())

	_, err := b.Search(context.Background(), Query{Topic: "x", Limit: 300, Offset: 300})
	assert.ErrorIs(t, err, ErrPageSize)
	assert.Nil(t, captured, "oversized page must not reach the service")

	_, err = b.Search(context.Background(), Query{Topic: "x", Limit: 200, Offset: 100})
	assert.ErrorIs(t, err, ErrPageSize)

	_, err = b.Search(context.Background(), Query{Topic: "x", Limit: 200})
	require.NoError(t, err)
	q := captured.URL.Query()
	assert.Equal(t, "200", q.Get("per-page"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "is_oa:true", q.Get("filter"))
}

func TestOpenAlexConsecutivePagesCoverEveryResult(t *testing.T) {
	const total = 450
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		per, _ := strconv.Atoi(r.URL.Query().Get("per-page"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var items []string
		for i := (page - 1) * per; i < min(page*per, total); i++ {
			items = append(items, fmt.Sprintf(`{"id":"W%d","title":"T%d"}`, i, i))
		}
		fmt.Fprintf(w, `{"meta":{"count":%d},"results":[%s]}`, total, strings.Join(items, ","))
	})

	b := &OpenAlexBackend{Client: ts.Client()}
	limit := b.MaxPageSize()
	seen := map[string]bool{}
	for offset := 0; ; offset += limit {
		page, err := b.Search(context.Background(), Query{Topic: "x", Limit: limit, Offset: offset})
		require.NoError(t, err)
		if len(page.Candidates) == 0 {
			break
		}
		for _, c := range page.Candidates {
			assert.False(t, seen[c.ID], "duplicate %s", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, total)
}

func TestSemanticRejectsOversizedPage(t *testing.T) {
	called := false
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	})

	b := &SemanticScholarBackend{Client: ts.Client()}
	assert.Equal(t, 100, b.MaxPageSize())
	_, err := b.Search(context.Background(), Query{Topic: "x", Limit: 150})
	assert.ErrorIs(t, err, ErrPageSize)
	assert.False(t, called)

	_, err = b.Search(context.Background(), Query{Topic: "x", Limit: 100})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestOpenAlexParsesCandidates(t *testing.T) {
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"meta":{"count":3},"results":[
			{"id":"W1","title":"Direct","publication_year":2021,
			 "open_access":{"is_oa":true,"oa_url":"https://oa/w1.pdf"},
			 "primary_location":{"landing_page_url":"https://land/w1"}},
			{"id":"W2","title":"Best location","doi":"https://doi.org/10.1/w2",
			 "open_access":{"is_oa":true,"oa_url":"https://repo/w2"},
			 "best_oa_location":{"pdf_url":"https://repo/w2/file.pdf"}},
			{"id":"W3","title":"Closed","primary_location":{"landing_page_url":"https://land/w3"},
			 "open_access":{"is_oa":false}}
		]}`)
	})

	b := &OpenAlexBackend{Client: ts.Client()}
	page, err := b.Search(context.Background(), Query{Topic: "x", Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Candidates, 3)
	assert.Equal(t, "https://oa/w1.pdf", page.Candidates[0].OpenAccessURL)
	assert.Equal(t, "https://land/w1", page.Candidates[0].URL)
	assert.Equal(t, 2021, page.Candidates[0].Year)
	assert.Equal(t, "https://repo/w2/file.pdf", page.Candidates[1].OpenAccessURL)
	assert.Equal(t, "https://doi.org/10.1/w2", page.Candidates[1].URL)
	assert.Equal(t, "", page.Candidates[2].OpenAccessURL)
	assert.Equal(t, "https://land/w3", page.Candidates[2].DocumentURL())
}

func TestOpenAlexMissingResults(t *testing.T) {
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"meta":{"count":10}}`)
	})

	b := &OpenAlexBackend{Client: ts.Client()}
	_, err := b.Search(context.Background(), Query{Topic: "x", Limit: 10})
	assert.ErrorIs(t, err, ErrMissingResults)
}

// --- arXiv ---

func withArxivServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() {
		arxivAPIBase = old
		ts.Close()
	})
	return ts
}

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>42</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Rice Yields
      in Luzon</title>
    <published>2023-01-17T18:00:00Z</published>
    <link href="http://arxiv.org/abs/2301.07041v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.07041v2" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <title>No link</title>
    <published>1999-01-01T00:00:00Z</published>
  </entry>
</feed>`

func TestArxivRequestParams(t *testing.T) {
	var got *http.Request
	ts := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})

	b := &ArxivBackend{Client: ts.Client(), UserAgent: "ua/1"}
	_, err := b.Search(context.Background(), Query{Topic: "rice yields", YearFrom: 2020, Limit: 50, Offset: 100})
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "all:rice AND all:yields AND submittedDate:[202001010000 TO 999912312359]", q.Get("search_query"))
	assert.Equal(t, "100", q.Get("start"))
	assert.Equal(t, "50", q.Get("max_results"))
	assert.Equal(t, "ua/1", got.Header.Get("User-Agent"))
}

func TestArxivParsesCandidates(t *testing.T) {
	ts := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, arxivFeedXML)
	})

	b := &ArxivBackend{Client: ts.Client()}
	page, err := b.Search(context.Background(), Query{Topic: "rice", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 42, page.Total)
	require.Len(t, page.Candidates, 2)
	c := page.Candidates[0]
	assert.Equal(t, "2301.07041", c.ID)
	assert.Equal(t, "Rice Yields in Luzon", c.Title)
	assert.Equal(t, 2023, c.Year)
	assert.Equal(t, "http://arxiv.org/pdf/2301.07041v2", c.OpenAccessURL)
	assert.Equal(t, "arxiv", c.Source)

	assert.Equal(t, "hep-th/9901001", page.Candidates[1].ID)
	assert.Equal(t, "https://arxiv.org/pdf/hep-th/9901001", page.Candidates[1].OpenAccessURL)
}

func TestArxivErrorEntry(t *testing.T) {
	ts := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"><entry>
			<id>http://arxiv.org/api/errors#incorrect_id_format</id>
			<summary>incorrect id format</summary></entry></feed>`)
	})

	b := &ArxivBackend{Client: ts.Client()}
	_, err := b.Search(context.Background(), Query{Topic: "x", Limit: 10})
	assert.ErrorIs(t, err, ErrStatus)
}

func TestArxivExhausted(t *testing.T) {
	ts := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"><opensearch:totalResults xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">3</opensearch:totalResults></feed>`)
	})

	b := &ArxivBackend{Client: ts.Client()}
	page, err := b.Search(context.Background(), Query{Topic: "x", Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Candidates)
}

func TestExtractArxivID(t *testing.T) {
	assert.Equal(t, "2301.07041", extractArxivID("http://arxiv.org/abs/2301.07041v1"))
	assert.Equal(t, "2301.07041", extractArxivID("http://arxiv.org/abs/2301.07041"))
	assert.Equal(t, "", extractArxivID("http://example.org/paper"))
}
