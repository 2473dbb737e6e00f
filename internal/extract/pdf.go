package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docportal/internal/domain"
)

// PDFExtractor extracts text page by page, each page under a "--- Page N ---" marker.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (p *PDFExtractor) Extensions() []string {
	return []string{".pdf"}
}

func (p *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// the pdf package panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse PDF %s: %v", path, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncrypted(err) {
			return "", domain.Wrap(domain.ErrEncryptedDocument, err, "open %s", path)
		}
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, fmt.Sprintf("\n --- Page %d --- \n%s", i, content))
	}

	return strings.Join(pages, "\n"), nil
}

func isEncrypted(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "encrypt")
}
