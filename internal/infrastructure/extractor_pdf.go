package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// PDFExtractor extracts links from the text of PDF pages
type PDFExtractor struct {
	logger *zap.Logger
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// Format returns the document format this extractor handles
func (e *PDFExtractor) Format() domain.DocumentFormat {
	return domain.FormatPDF
}

// Extract walks the pages in order and returns the links of each page
func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDocumentOpen, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentOpen, filepath.Base(path), err)
	}

	links := []string{}
	for page := 1; page <= pdfCtx.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrDocumentOpen, filepath.Base(path), page, err)
		}
		if r == nil {
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrIO, filepath.Base(path), page, err)
		}

		pageDict, _, inherited, err := pdfCtx.PageDict(page, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrDocumentOpen, filepath.Base(path), page, err)
		}

		found := domain.ExtractLinks(pageText(content, e.pageFonts(pdfCtx, inherited, path)))
		annotated := annotationLinks(pdfCtx, pageDict, found)
		e.logger.Debug("Scanned PDF page",
			zap.String("file", path),
			zap.Int("page", page),
			zap.Int("links", len(found)),
			zap.Int("annotation_links", len(annotated)))
		found = append(found, annotated...)
		links = append(links, found...)
	}

	return links, nil
}

// pageFonts loads the ToUnicode CMaps of the fonts a page uses, keyed by
// resource name. Fonts without one, or with one that fails to load, are left
// out and their strings are read as raw bytes.
func (e *PDFExtractor) pageFonts(pdfCtx *model.Context, inherited *model.InheritedPageAttrs, path string) map[string]*toUnicodeMap {
	if inherited == nil || inherited.Resources == nil {
		return nil
	}
	obj, ok := inherited.Resources.Find("Font")
	if !ok {
		return nil
	}
	fontDicts, err := pdfCtx.DereferenceDict(obj)
	if err != nil || fontDicts == nil {
		return nil
	}

	fonts := make(map[string]*toUnicodeMap)
	for name, ref := range fontDicts {
		font, err := pdfCtx.DereferenceDict(ref)
		if err != nil || font == nil {
			continue
		}
		tu, ok := font.Find("ToUnicode")
		if !ok {
			continue
		}
		sd, _, err := pdfCtx.DereferenceStreamDict(tu)
		if err != nil || sd == nil {
			continue
		}
		data, err := streamContent(sd)
		if err != nil {
			e.logger.Debug("Skipping unreadable ToUnicode map",
				zap.String("file", path),
				zap.String("font", name),
				zap.Error(err))
			continue
		}

		codeLen := 1
		if subtype := font.NameEntry("Subtype"); subtype != nil && *subtype == "Type0" {
			codeLen = 2
		}
		fonts[name] = parseToUnicode(data, codeLen)
	}
	return fonts
}

// streamContent returns the decoded bytes of a stream. Unfiltered streams
// are returned as stored.
func streamContent(sd *types.StreamDict) ([]byte, error) {
	if sd.Content != nil {
		return sd.Content, nil
	}
	if len(sd.FilterPipeline) == 0 {
		return sd.Raw, nil
	}
	if err := sd.Decode(); err != nil {
		return nil, err
	}
	return sd.Content, nil
}

// annotationLinks returns the links of URI link annotations on a page that
// the page text did not already show
func annotationLinks(pdfCtx *model.Context, pageDict types.Dict, shown []string) []string {
	obj, ok := pageDict.Find("Annots")
	if !ok {
		return nil
	}
	annots, err := pdfCtx.DereferenceArray(obj)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool, len(shown))
	for _, link := range shown {
		seen[link] = true
	}

	var links []string
	for _, ref := range annots {
		annot, err := pdfCtx.DereferenceDict(ref)
		if err != nil || annot == nil {
			continue
		}
		if subtype := annot.NameEntry("Subtype"); subtype == nil || *subtype != "Link" {
			continue
		}
		action, err := pdfCtx.DereferenceDict(annot["A"])
		if err != nil || action == nil {
			continue
		}
		if kind := action.NameEntry("S"); kind == nil || *kind != "URI" {
			continue
		}
		uriObj, err := pdfCtx.Dereference(action["URI"])
		if err != nil || uriObj == nil {
			continue
		}
		uri, err := model.Text(uriObj)
		if err != nil {
			continue
		}
		for _, link := range domain.ExtractLinks(uri) {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
	}
	return links
}

// pageText decodes the strings drawn by the text operators of a page content
// stream. Strings of one TJ array are joined; positioning operators start a
// new line. Strings shown in a font listed in fonts are mapped through its
// ToUnicode CMap.
func pageText(content []byte, fonts map[string]*toUnicodeMap) string {
	var (
		out      strings.Builder
		operands [][]byte
		array    []byte
		inArray  bool
		lastName string
		font     *toUnicodeMap
	)

	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case isPDFWhitespace(c):
			i++
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteralString(content, i)
			if inArray {
				array = append(array, s...)
			} else {
				operands = append(operands, s)
			}
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] == '<',
			c == '>' && i+1 < len(content) && content[i+1] == '>':
			i += 2
		case c == '<':
			s, next := readHexString(content, i)
			if inArray {
				array = append(array, s...)
			} else {
				operands = append(operands, s)
			}
			i = next
		case c == '[':
			inArray = true
			array = array[:0]
			i++
		case c == ']':
			inArray = false
			operands = append(operands, append([]byte(nil), array...))
			i++
		case c == '/':
			i++
			start := i
			for i < len(content) && !isPDFWhitespace(content[i]) && !isPDFDelimiter(content[i]) {
				i++
			}
			lastName = string(content[start:i])
		default:
			start := i
			for i < len(content) && !isPDFWhitespace(content[i]) && !isPDFDelimiter(content[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}

			token := string(content[start:i])
			if isPDFNumber(token) || inArray {
				continue
			}

			switch token {
			case "Tf":
				font = fonts[lastName]
			case "Tj", "TJ":
				writeLastOperand(&out, operands, font)
			case "'", "\"":
				out.WriteByte('\n')
				writeLastOperand(&out, operands, font)
			case "Td", "TD", "T*", "Tm", "ET":
				out.WriteByte('\n')
			case "ID":
				i = skipInlineImage(content, i)
			}
			operands = operands[:0]
			lastName = ""
		}
	}

	return out.String()
}

func writeLastOperand(out *strings.Builder, operands [][]byte, font *toUnicodeMap) {
	if len(operands) == 0 {
		return
	}
	last := operands[len(operands)-1]
	if font != nil {
		out.WriteString(font.decode(last))
		return
	}
	out.WriteString(decodePDFString(last))
}

// decodePDFString handles UTF-16BE strings marked with a byte order mark.
// Everything else is passed through byte for byte.
func decodePDFString(s []byte) string {
	if len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF {
		units := make([]uint16, 0, (len(s)-2)/2)
		for j := 2; j+1 < len(s); j += 2 {
			units = append(units, uint16(s[j])<<8|uint16(s[j+1]))
		}
		return string(utf16.Decode(units))
	}
	return string(s)
}

func readLiteralString(content []byte, start int) ([]byte, int) {
	var s []byte
	depth := 1
	j := start + 1
	for j < len(content) {
		c := content[j]
		switch c {
		case '\\':
			j++
			if j >= len(content) {
				return s, j
			}
			e := content[j]
			switch e {
			case 'n':
				s = append(s, '\n')
			case 'r':
				s = append(s, '\r')
			case 't':
				s = append(s, '\t')
			case 'b':
				s = append(s, '\b')
			case 'f':
				s = append(s, '\f')
			case '\r':
				if j+1 < len(content) && content[j+1] == '\n' {
					j++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := 0
					k := 0
					for k < 3 && j < len(content) && content[j] >= '0' && content[j] <= '7' {
						v = v*8 + int(content[j]-'0')
						j++
						k++
					}
					s = append(s, byte(v))
					continue
				}
				s = append(s, e)
			}
			j++
		case '(':
			depth++
			s = append(s, c)
			j++
		case ')':
			depth--
			if depth == 0 {
				return s, j + 1
			}
			s = append(s, c)
			j++
		default:
			s = append(s, c)
			j++
		}
	}
	return s, j
}

func readHexString(content []byte, start int) ([]byte, int) {
	var digits []byte
	j := start + 1
	for j < len(content) && content[j] != '>' {
		if isHexDigit(content[j]) {
			digits = append(digits, content[j])
		}
		j++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	s := make([]byte, 0, len(digits)/2)
	for k := 0; k < len(digits); k += 2 {
		s = append(s, hexValue(digits[k])<<4|hexValue(digits[k+1]))
	}
	return s, j + 1
}

// skipInlineImage jumps past binary inline image data up to the EI operator
func skipInlineImage(content []byte, pos int) int {
	for j := pos + 1; j+2 <= len(content); j++ {
		if content[j] != 'E' || content[j+1] != 'I' || !isPDFWhitespace(content[j-1]) {
			continue
		}
		if j+2 == len(content) || isPDFWhitespace(content[j+2]) {
			return j + 2
		}
	}
	return len(content)
}

func isPDFWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelimiter(c byte) bool {
	return bytes.IndexByte([]byte("()<>[]{}/%"), c) >= 0
}

func isPDFNumber(token string) bool {
	for k := 0; k < len(token); k++ {
		c := token[k]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			return false
		}
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
