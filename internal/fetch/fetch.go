// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads candidate documents over HTTP with a fixed
// timeout, a size cap and an optional PDF content-type gate.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/corpus-builder/internal/httputil"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

var (
	// ErrStatus reports a non-2xx response.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrContentType reports a response that is not a PDF when one is required.
	ErrContentType = errors.New("unexpected content type")
	// ErrTooLarge reports a body larger than the configured cap.
	ErrTooLarge = errors.New("response body too large")
)

// Document is a downloaded response body.
type Document struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects and landing-page follow
	ContentType string // media type without parameters
	Body        []byte
}

// Client fetches documents. The zero value is not usable; call New.
type Client struct {
	HTTP               *http.Client
	UserAgent          string
	RequirePDF         bool
	FollowLandingPages bool
	MaxBytes           int64
}

// New returns a Client configured from cfg, filling defaults for unset
// fields.
func New(cfg types.FetchConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultFetchTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = types.BrowserUserAgent
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = types.DefaultMaxBytes
	}
	return &Client{
		HTTP:               &http.Client{Timeout: timeout},
		UserAgent:          ua,
		RequirePDF:         cfg.RequirePDF,
		FollowLandingPages: cfg.FollowLandingPages,
		MaxBytes:           maxBytes,
	}
}

// Fetch downloads rawURL. When the response is an HTML landing page and
// FollowLandingPages is set, the page is searched once for a PDF link
// which is then fetched in its place.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Document, error) {
	doc, err := c.get(ctx, rawURL)
	if err != nil {
		return Document{}, err
	}

	if c.FollowLandingPages && isHTML(doc.ContentType) {
		if pdfURL := FindPDFLink(doc.Body, doc.FinalURL); pdfURL != "" && pdfURL != doc.FinalURL {
			log.Debug().Str("url", rawURL).Str("pdf", pdfURL).Msg("following landing page")
			next, err := c.get(ctx, pdfURL)
			if err != nil {
				return Document{}, fmt.Errorf("following %s: %w", pdfURL, err)
			}
			next.URL = rawURL
			doc = next
		}
	}

	if c.RequirePDF && doc.ContentType != "application/pdf" {
		return Document{}, fmt.Errorf("%s: %w %q", rawURL, ErrContentType, doc.ContentType)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/pdf,application/vnd.openxmlformats-officedocument.wordprocessingml.document,text/html;q=0.8,*/*;q=0.5")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 1)
	if err != nil {
		return Document{}, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, fmt.Errorf("GET %s returned HTTP %d: %w", rawURL, resp.StatusCode, ErrStatus)
	}
	if resp.ContentLength > c.MaxBytes {
		return Document{}, fmt.Errorf("%s: %w (%d bytes)", rawURL, ErrTooLarge, resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.MaxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(body)) > c.MaxBytes {
		return Document{}, fmt.Errorf("%s: %w (over %d bytes)", rawURL, ErrTooLarge, c.MaxBytes)
	}

	return Document{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		ContentType: mediaType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

// mediaType strips parameters and lowercases a Content-Type header value.
func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(v, ";", 2)[0]))
	}
	return mt
}

func isHTML(ct string) bool {
	return ct == "text/html" || ct == "application/xhtml+xml"
}
