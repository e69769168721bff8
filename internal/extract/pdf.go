// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LedongthucBackend extracts PDF text with github.com/ledongthuc/pdf. Page
// texts are concatenated in stored page order with no separator.
type LedongthucBackend struct{}

// Name returns the backend identifier.
func (LedongthucBackend) Name() string { return "ledongthuc" }

// Text returns the plain text of every page.
func (LedongthucBackend) Text(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
