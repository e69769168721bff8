// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pdfLinkSelectors are tried in order against a landing page. Publishers
// expose the full text through the citation_pdf_url meta tag; the others
// cover repositories that only link the file.
var pdfLinkSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[name="citation_pdf_url"]`, "content"},
	{`meta[name="eprints.document_url"]`, "content"},
	{`link[rel="alternate"][type="application/pdf"]`, "href"},
	{`a[href$=".pdf"]`, "href"},
}

// FindPDFLink returns the absolute URL of the first PDF link found in an
// HTML landing page, or "" when none is present. Relative links are
// resolved against base.
func FindPDFLink(html []byte, base string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	for _, s := range pdfLinkSelectors {
		var found string
		doc.Find(s.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			v, ok := sel.Attr(s.attr)
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				return true
			}
			found = v
			return false
		})
		if found != "" {
			return resolve(base, found)
		}
	}
	return ""
}

func resolve(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return r.String()
	}
	return b.ResolveReference(r).String()
}
