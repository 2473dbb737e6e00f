package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRegistry_Supported(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name string
		want bool
	}{
		{"contract.pdf", true},
		{"CONTRACT.PDF", true},
		{"notes.docx", true},
		{"notes.txt", true},
		{"README.md", true},
		{"image.png", false},
		{"archive.tar.gz", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.Supported(tt.name))
		})
	}

	assert.Equal(t, []string{".docx", ".markdown", ".md", ".pdf", ".txt"}, reg.Extensions())
}

func TestRegistry_Unsupported(t *testing.T) {
	path := writeFile(t, "photo.png", []byte{0x89, 'P', 'N', 'G'})

	_, err := DefaultRegistry().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestTextExtractor(t *testing.T) {
	path := writeFile(t, "a.txt", []byte("The vendor is Acme Corp.\nAddress: 1 Main St."))

	text, err := DefaultRegistry().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "The vendor is Acme Corp.\nAddress: 1 Main St.", text)
}

func TestMarkdownExtractor(t *testing.T) {
	src := "# Master Agreement\n\nThe **vendor** is Acme.\nIt ships goods.\n\n## Termination\n\n- either party\n- 30 days notice\n\n```\nclause 9\n```\n"
	path := writeFile(t, "a.md", []byte(src))

	text, err := DefaultRegistry().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, text, "Master Agreement")
	assert.Contains(t, text, "The vendor is Acme.\nIt ships goods.")
	assert.Contains(t, text, "Termination")
	assert.Contains(t, text, "30 days notice")
	assert.Contains(t, text, "clause 9")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "#")
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocxExtractor(t *testing.T) {
	path := writeFile(t, "a.docx", buildDocx(t, "Statement of Work", "Vendor: Acme Corp"))

	text, err := DefaultRegistry().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Statement of Work\nVendor: Acme Corp", text)
}

func TestDocxExtractor_Encrypted(t *testing.T) {
	data := append(append([]byte{}, oleSignature...), make([]byte, 512)...)
	path := writeFile(t, "locked.docx", data)

	_, err := DefaultRegistry().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrEncryptedDocument)
}

func TestDocxExtractor_NotZip(t *testing.T) {
	path := writeFile(t, "broken.docx", []byte("plain text pretending to be docx"))

	_, err := DefaultRegistry().Extract(context.Background(), path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEncryptedDocument)
}

// buildPDF assembles a one-page PDF with a correct cross-reference table.
// extraTrailer is appended inside the trailer dictionary.
func buildPDF(text, extraTrailer string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R %s>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, extraTrailer, xref)
	return buf.Bytes()
}

func TestPDFExtractor(t *testing.T) {
	path := writeFile(t, "a.pdf", buildPDF("Termination requires notice", ""))

	text, err := DefaultRegistry().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "--- Page 1 ---")
	assert.Contains(t, text, "Termination requires notice")
}

func TestPDFExtractor_Encrypted(t *testing.T) {
	path := writeFile(t, "locked.pdf", buildPDF("secret", "/Encrypt << /Filter /Standard /V 3 /R 3 >> "))

	_, err := DefaultRegistry().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrEncryptedDocument)
}

func TestPDFExtractor_Garbage(t *testing.T) {
	path := writeFile(t, "junk.pdf", []byte("definitely not a pdf"))

	_, err := DefaultRegistry().Extract(context.Background(), path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEncryptedDocument)
}
