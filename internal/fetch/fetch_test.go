// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
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

func testClient(cfg types.FetchConfig) *Client {
	return New(cfg)
}

func TestNewDefaults(t *testing.T) {
	c := New(types.FetchConfig{})
	assert.Equal(t, types.DefaultFetchTimeout, c.HTTP.Timeout)
	assert.Equal(t, types.BrowserUserAgent, c.UserAgent)
	assert.Equal(t, int64(types.DefaultMaxBytes), c.MaxBytes)
}

func TestFetchPDF(t *testing.T) {
	var ua string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf; qs=0.9")
		fmt.Fprint(w, "%PDF-1.4 body")
	}))
	defer ts.Close()

	c := testClient(types.FetchConfig{RequirePDF: true})
	doc, err := c.Fetch(context.Background(), ts.URL+"/paper.pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "%PDF-1.4 body", string(doc.Body))
	assert.Equal(t, ts.URL+"/paper.pdf", doc.URL)
	assert.Equal(t, types.BrowserUserAgent, ua)
}

func TestFetchNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := testClient(types.FetchConfig{}).Fetch(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestFetchRequirePDFRejectsHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>paywall</body></html>")
	}))
	defer ts.Close()

	_, err := testClient(types.FetchConfig{RequirePDF: true}).Fetch(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrContentType)

	doc, err := testClient(types.FetchConfig{}).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "text/html", doc.ContentType)
}

func TestFetchTooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, strings.Repeat("x", 64))
	}))
	defer ts.Close()

	_, err := testClient(types.FetchConfig{MaxBytes: 16}).Fetch(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrTooLarge)

	doc, err := testClient(types.FetchConfig{MaxBytes: 64}).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Len(t, doc.Body, 64)
}

func TestFetchTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := testClient(types.FetchConfig{HTTPConfig: types.HTTPConfig{Timeout: 50 * time.Millisecond}})
	_, err := c.Fetch(context.Background(), ts.URL)
	assert.Error(t, err)
}

func TestFetchFollowsLandingPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article/1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><meta name="citation_pdf_url" content="/files/1.pdf"></head></html>`)
	})
	mux.HandleFunc("/files/1.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.7")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(types.FetchConfig{FollowLandingPages: true, RequirePDF: true})
	doc, err := c.Fetch(context.Background(), ts.URL+"/article/1")
	require.NoError(t, err)

	assert.Equal(t, "%PDF-1.7", string(doc.Body))
	assert.Equal(t, ts.URL+"/article/1", doc.URL)
	assert.Equal(t, ts.URL+"/files/1.pdf", doc.FinalURL)
}

func TestFindPDFLink(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			"citation meta",
			`<meta name="citation_pdf_url" content="https://pub.example/x.pdf">`,
			"https://pub.example/x.pdf",
		},
		{
			"meta wins over anchor",
			`<a href="/other.pdf">pdf</a><meta name="citation_pdf_url" content="/main.pdf">`,
			"https://site.example/main.pdf",
		},
		{
			"alternate link",
			`<link rel="alternate" type="application/pdf" href="download/3">`,
			"https://site.example/articles/download/3",
		},
		{
			"anchor fallback",
			`<p><a href="../files/paper.PDF">x</a><a href="full.pdf">Full text</a></p>`,
			"https://site.example/articles/full.pdf",
		},
		{"none", `<html><body>no links</body></html>`, ""},
		{"empty content", `<meta name="citation_pdf_url" content="  ">`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPDFLink([]byte(tt.html), "https://site.example/articles/7")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/pdf", mediaType("Application/PDF"))
	assert.Equal(t, "text/html", mediaType("text/html; charset=UTF-8"))
	assert.Equal(t, "", mediaType(""))
}
