package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// buildPDF writes an uncompressed PDF whose object n is objects[n-1]
func buildPDF(objects []string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, len(objects))

	buf.WriteString("%PDF-1.4\n")
	for i, body := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	size := len(offsets) + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
	return buf.Bytes()
}

func streamObject(content string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
}

// buildTestPDF writes a minimal PDF with one content stream per page
func buildTestPDF(pageContents []string) []byte {
	kids := make([]string, 0, len(pageContents))
	for i := range pageContents {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pageContents)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i, content := range pageContents {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			streamObject(content))
	}
	return buildPDF(objects)
}

// identityCMap maps glyph ids 0x0003..0x005E to U+0020..U+007B
const identityCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0003> <005E> <0020>
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

// glyphHex encodes ASCII text as the glyph ids identityCMap maps back to it
func glyphHex(text string) string {
	var b strings.Builder
	for _, r := range text {
		fmt.Fprintf(&b, "%04X", r-0x1D)
	}
	return b.String()
}

func linkAnnotation(uri string) string {
	return fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect [72 700 300 720] /Border [0 0 0] /A << /Type /Action /S /URI /URI (%s) >> >>", uri)
}

func TestPDFExtractor_PageOrder(t *testing.T) {
	pages := []string{
		"BT /F1 12 Tf 72 720 Td (Intro https://www.youtube.com/watch?v=page1a) Tj 0 -14 Td [(https://www.you) -20 (tube.com/watch?v=page1b)] TJ ET",
		"BT /F1 12 Tf 72 720 Td (see https://youtube.com/watch?v=page2) Tj ET",
	}
	path := filepath.Join(t.TempDir(), "links.pdf")
	require.NoError(t, os.WriteFile(path, buildTestPDF(pages), 0644))

	links, err := NewPDFExtractor(zap.NewNop()).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=page1a",
		"https://www.youtube.com/watch?v=page1b",
		"https://youtube.com/watch?v=page2",
	}, links)
}

func TestPDFExtractor_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0644))

	_, err := NewPDFExtractor(zap.NewNop()).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentOpen))
}

func TestPDFExtractor_MissingFile(t *testing.T) {
	_, err := NewPDFExtractor(zap.NewNop()).Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.True(t, errors.Is(err, domain.ErrDocumentOpen))
}

func TestPageText(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "simple show",
			content:  "BT (Hello) Tj ET",
			expected: "Hello\n",
		},
		{
			name:     "TJ array joined",
			content:  "BT [(https://www.you) -250 (tube.com/watch?v=abc)] TJ ET",
			expected: "https://www.youtube.com/watch?v=abc\n",
		},
		{
			name:     "positioning starts new line",
			content:  "BT (one) Tj 0 -12 Td (two) Tj T* (three) ' ET",
			expected: "one\ntwo\n\nthree\n",
		},
		{
			name:     "escapes and nested parens",
			content:  `BT (a\(b\) \050c\051 (d)) Tj ET`,
			expected: "a(b) (c) (d)\n",
		},
		{
			name:     "hex string",
			content:  "BT <68747470733A2F2F> Tj ET",
			expected: "https://\n",
		},
		{
			name:     "utf16 hex string",
			content:  "BT <FEFF00680069> Tj ET",
			expected: "hi\n",
		},
		{
			name:     "dictionaries and comments ignored",
			content:  "/Span << /MCID 0 >> BDC % (not shown) Tj\nBT (shown) Tj ET EMC",
			expected: "shown\n",
		},
		{
			name:     "inline image skipped",
			content:  "BI /W 1 /H 1 ID (x) Tj EI BT (after) Tj ET",
			expected: "after\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pageText([]byte(tt.content), nil))
		})
	}
}

func TestPDFExtractor_IdentityFontAndLinkAnnotations(t *testing.T) {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td <%s> Tj ET", glyphHex("watch https://www.youtube.com/watch?v=glyphs now"))
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 8 0 R /Annots [" +
			linkAnnotation("https://www.youtube.com/watch?v=glyphs") + " " +
			linkAnnotation("https://www.youtube.com/watch?v=annotated") + " " +
			linkAnnotation("https://example.com/elsewhere") + "] >>",
		"<< /Type /Font /Subtype /Type0 /BaseFont /ArialMT /Encoding /Identity-H /DescendantFonts [5 0 R] /ToUnicode 7 0 R >>",
		"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /ArialMT /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor 6 0 R /DW 1000 >>",
		"<< /Type /FontDescriptor /FontName /ArialMT /Flags 32 /FontBBox [-665 -325 2000 1040] /ItalicAngle 0 /Ascent 905 /Descent -212 /CapHeight 716 /StemV 80 >>",
		streamObject(identityCMap),
		streamObject(content),
	}
	path := filepath.Join(t.TempDir(), "word-export.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF(objects), 0644))

	links, err := NewPDFExtractor(zap.NewNop()).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=glyphs",
		"https://www.youtube.com/watch?v=annotated",
	}, links)
}

func TestParseToUnicode(t *testing.T) {
	cmap := parseToUnicode([]byte(`1 begincodespacerange <00> <FF> endcodespacerange
2 beginbfchar
<01> <0068>
<02> <D83DDE00>
endbfchar
2 beginbfrange
<10> <12> <0061>
<20> <21> [<0078> <0079>]
endbfrange`), 2)

	assert.Equal(t, 1, cmap.codeLen)
	assert.Equal(t, "h\U0001F600abcxy", cmap.decode([]byte{0x01, 0x02, 0x10, 0x11, 0x12, 0x20, 0x21}))
	assert.Equal(t, "h", cmap.decode([]byte{0x01, 0x7F}))
}

func TestPageText_AppliesFontMaps(t *testing.T) {
	fonts := map[string]*toUnicodeMap{"F2": parseToUnicode([]byte(identityCMap), 2)}
	content := fmt.Sprintf("BT /F1 10 Tf (plain) Tj /F2 10 Tf <%s> Tj /F1 10 Tf (again) Tj ET", glyphHex("mapped"))

	assert.Equal(t, "plainmappedagain\n", pageText([]byte(content), fonts))
}
