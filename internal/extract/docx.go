// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxMainPart = "word/document.xml"

// DOCXText returns the body paragraphs of a DOCX document joined by "\n".
// Only text runs are read; tables, text boxes, headers and footers are
// ignored. Empty paragraphs produce empty lines.
func DOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%s not found in archive", docxMainPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxMainPart, err)
	}
	defer rc.Close()

	return paragraphs(xml.NewDecoder(rc))
}

// paragraphs walks the WordprocessingML token stream. A paragraph counts
// when it sits directly in the body, outside any table or text box.
func paragraphs(dec *xml.Decoder) (string, error) {
	var (
		out     []string
		cur     strings.Builder
		inBody  bool
		inPara  bool
		inRun   bool
		inText  bool
		nested  int // depth inside tbl / txbxContent
		sawBody bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxMainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				inBody, sawBody = true, true
			case "tbl", "txbxContent":
				nested++
			case "p":
				if inBody && nested == 0 {
					inPara = true
					cur.Reset()
				}
			case "r":
				inRun = inPara && nested == 0
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "body":
				inBody = false
			case "tbl", "txbxContent":
				if nested > 0 {
					nested--
				}
			case "p":
				if inPara && nested == 0 {
					out = append(out, cur.String())
					inPara = false
				}
			case "r":
				if nested == 0 {
					inRun = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}

	if !sawBody {
		return "", fmt.Errorf("%s has no body", docxMainPart)
	}
	return strings.Join(out, "\n"), nil
}
