// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw PDF and DOCX bytes into plain text. Parser
// failures, including panics inside third-party parsers, are reported in
// the returned Result and never escape to the caller.
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/corpus-builder/pkg/types"
)

// Supported content types.
const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Kind classifies an extraction outcome.
type Kind string

const (
	KindOK          Kind = "ok"
	KindEmpty       Kind = "empty"
	KindUnsupported Kind = "unsupported"
	KindParseError  Kind = "parse_error"
)

var (
	// ErrUnsupported reports a content type other than PDF or DOCX.
	ErrUnsupported = errors.New("unsupported content type")
	// ErrNoText reports a document that parsed but held no text.
	ErrNoText = errors.New("no text extracted")
)

// Result is the outcome of one extraction. Text is empty unless Kind is
// KindOK.
type Result struct {
	Text        string
	SourceBytes int
	ContentType string
	Kind        Kind
	Err         error
}

// OK reports whether text was extracted.
func (r Result) OK() bool { return r.Kind == KindOK }

// PDFBackend extracts text from PDF bytes.
type PDFBackend interface {
	Name() string
	Text(data []byte) (string, error)
}

// Extractor dispatches documents to a format-specific parser.
type Extractor struct {
	PDF PDFBackend
}

// New returns an Extractor using the named PDF backend. An empty name
// selects the default backend.
func New(backend types.PDFBackend) (*Extractor, error) {
	switch backend {
	case types.PDFLedongthuc, "":
		return &Extractor{PDF: LedongthucBackend{}}, nil
	case types.PDFPdfcpu:
		return &Extractor{PDF: PdfcpuBackend{}}, nil
	default:
		return nil, fmt.Errorf("unknown PDF backend %q: use ledongthuc or pdfcpu", backend)
	}
}

// Extract returns the text of data. declared is a MIME type, a file name
// or extension, or empty; generic or missing types are sniffed from data.
func (e *Extractor) Extract(data []byte, declared string) (res Result) {
	ct := NormalizeContentType(declared, data)
	res = Result{SourceBytes: len(data), ContentType: ct}

	defer func() {
		if p := recover(); p != nil {
			log.Debug().Str("content_type", ct).Interface("panic", p).Msg("parser panicked")
			res.Text = ""
			res.Kind = KindParseError
			res.Err = fmt.Errorf("parser panic: %v", p)
		}
	}()

	var (
		text string
		err  error
	)
	switch ct {
	case TypePDF:
		pdf := e.PDF
		if pdf == nil {
			pdf = LedongthucBackend{}
		}
		text, err = pdf.Text(data)
	case TypeDOCX:
		text, err = DOCXText(data)
	default:
		res.Kind = KindUnsupported
		res.Err = fmt.Errorf("%w %q", ErrUnsupported, ct)
		return res
	}

	switch {
	case err != nil:
		res.Kind = KindParseError
		res.Err = err
	case strings.TrimSpace(text) == "":
		res.Kind = KindEmpty
		res.Err = ErrNoText
	default:
		res.Kind = KindOK
		res.Text = text
	}
	return res
}

// genericTypes are declared types that say nothing about the format.
var genericTypes = map[string]bool{
	"":                           true,
	"application/octet-stream":   true,
	"binary/octet-stream":        true,
	"application/x-download":     true,
	"application/force-download": true,
	"application/download":       true,
	"application/zip":            true,
}

// NormalizeContentType maps a declared type onto TypePDF or TypeDOCX where
// possible. Unknown types are returned lowercased without parameters so
// the caller can report them.
func NormalizeContentType(declared string, data []byte) string {
	d := strings.ToLower(strings.TrimSpace(declared))
	if mt, _, err := mime.ParseMediaType(d); err == nil {
		d = mt
	}

	switch d {
	case TypePDF, "application/x-pdf", "application/acrobat":
		return TypePDF
	case TypeDOCX:
		return TypeDOCX
	}
	if ct := ContentTypeForFile(d); ct != "" {
		return ct
	}
	if genericTypes[d] {
		return Sniff(data)
	}
	return d
}

// ContentTypeForFile returns the content type implied by a file name or
// bare extension, or "" when the extension is not supported.
func ContentTypeForFile(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" && !strings.ContainsAny(name, "/.") {
		ext = "." + strings.ToLower(name)
	}
	switch ext {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	}
	return ""
}

// pdfMagicWindow bounds how far into the data the %PDF- header is sought.
// Some producers emit junk bytes before it.
const pdfMagicWindow = 1024

// Sniff detects PDF and DOCX from data. It returns "" when neither matches.
func Sniff(data []byte) string {
	head := data
	if len(head) > pdfMagicWindow {
		head = head[:pdfMagicWindow]
	}
	if bytes.Contains(head, []byte("%PDF-")) {
		return TypePDF
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return ""
		}
		for _, f := range zr.File {
			if f.Name == docxMainPart {
				return TypeDOCX
			}
		}
	}
	return ""
}
