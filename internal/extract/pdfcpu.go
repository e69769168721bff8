// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PdfcpuBackend extracts PDF text by reading each page's content stream
// with pdfcpu and interpreting the text-showing operators. It copes with
// files that ledongthuc rejects but ignores font encodings beyond
// single-byte and UTF-16 strings.
type PdfcpuBackend struct{}

// Name returns the backend identifier.
func (PdfcpuBackend) Name() string { return "pdfcpu" }

// Text returns the text of every page in order with no separator.
func (PdfcpuBackend) Text(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNr, err)
		}
		sb.WriteString(contentStreamText(content))
	}
	return sb.String(), nil
}

// operand is a value on the content-stream operand stack.
type operand struct {
	str   []byte
	num   float64
	isStr bool
	isNum bool
	arr   []operand
}

// contentStreamText interprets the text operators of a page content stream.
func contentStreamText(data []byte) string {
	var (
		sb    strings.Builder
		stack []operand
		arrAt = -1
	)

	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		s := sb.String()
		if len(s) > 0 && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			sb.WriteByte(' ')
		}
	}
	lastString := func() ([]byte, bool) {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].isStr {
				return stack[i].str, true
			}
		}
		return nil, false
	}

	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteral(data, i)
			stack = append(stack, operand{str: s, isStr: true})
			i = next
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			s, next := readHex(data, i)
			stack = append(stack, operand{str: s, isStr: true})
			i = next
		case c == '[':
			arrAt = len(stack)
			i++
		case c == ']':
			if arrAt >= 0 && arrAt <= len(stack) {
				elems := append([]operand(nil), stack[arrAt:]...)
				stack = append(stack[:arrAt], operand{arr: elems})
			}
			arrAt = -1
			i++
		case c == '/':
			j := i + 1
			for j < len(data) && !isPDFSpace(data[j]) && !isPDFDelim(data[j]) {
				j++
			}
			stack = append(stack, operand{})
			i = j
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(data) && (data[j] == '.' || (data[j] >= '0' && data[j] <= '9')) {
				j++
			}
			n, _ := strconv.ParseFloat(string(data[i:j]), 64)
			stack = append(stack, operand{num: n, isNum: true})
			i = j
		default:
			j := i
			for j < len(data) && !isPDFSpace(data[j]) && !isPDFDelim(data[j]) {
				j++
			}
			if j == i {
				i++
				continue
			}
			op := string(data[i:j])
			i = j

			switch op {
			case "Tj":
				if s, ok := lastString(); ok {
					sb.WriteString(decodeTextString(s))
				}
			case "'", "\"":
				newline()
				if s, ok := lastString(); ok {
					sb.WriteString(decodeTextString(s))
				}
			case "TJ":
				if n := len(stack); n > 0 {
					for _, el := range stack[n-1].arr {
						switch {
						case el.isStr:
							sb.WriteString(decodeTextString(el.str))
						case el.isNum && el.num < -200:
							space()
						}
					}
				}
			case "T*":
				newline()
			case "Td", "TD":
				if n := len(stack); n >= 2 && stack[n-1].isNum && stack[n-1].num != 0 {
					newline()
				} else {
					space()
				}
			case "Tm":
				newline()
			case "ET":
				newline()
			case "ID":
				i = skipInlineImage(data, i)
			}
			stack = stack[:0]
			arrAt = -1
		}
	}
	return sb.String()
}

// readLiteral reads a parenthesized string starting at data[start] and
// returns the unescaped bytes and the index after the closing paren.
func readLiteral(data []byte, start int) ([]byte, int) {
	var out []byte
	depth := 0
	i := start
	for i < len(data) {
		c := data[i]
		switch {
		case c == '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return out, i
			}
			out = append(out, c)
		case c == '\\' && i+1 < len(data):
			i++
			e := data[i]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r', '\n':
				// line continuation
				if e == '\r' && i+1 < len(data) && data[i+1] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && i+1 < len(data) && data[i+1] >= '0' && data[i+1] <= '7'; k++ {
						i++
						val = val*8 + int(data[i]-'0')
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return out, i
}

// readHex reads a <...> hex string starting at data[start].
func readHex(data []byte, start int) ([]byte, int) {
	var digits []byte
	i := start + 1
	for i < len(data) && data[i] != '>' {
		if v, ok := hexVal(data[i]); ok {
			digits = append(digits, v)
		}
		i++
	}
	if i < len(data) {
		i++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, 0)
	}
	out := make([]byte, len(digits)/2)
	for k := range out {
		out[k] = digits[2*k]<<4 | digits[2*k+1]
	}
	return out, i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipInlineImage advances past inline image data up to the EI operator.
func skipInlineImage(data []byte, i int) int {
	for i+2 < len(data) {
		if isPDFSpace(data[i]) && data[i+1] == 'E' && data[i+2] == 'I' &&
			(i+3 == len(data) || isPDFSpace(data[i+3])) {
			return i + 3
		}
		i++
	}
	return len(data)
}

// decodeTextString converts string bytes to text. Strings with a UTF-16BE
// byte order mark are decoded as such; everything else is read as
// single-byte Latin-1.
func decodeTextString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for k := 2; k+1 < len(b); k += 2 {
			u = append(u, uint16(b[k])<<8|uint16(b[k+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			continue
		}
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
