// Package extract turns stored upload files into plain text, one extractor per
// supported file extension.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"docportal/internal/domain"
)

// Extractor reads a document file and returns its text.
type Extractor interface {
	// Extract returns the text of the file at path
	Extract(ctx context.Context, path string) (string, error)

	// Extensions returns the lower-case extensions this extractor handles, with dot
	Extensions() []string
}

// Registry maps file extensions to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// DefaultRegistry returns a registry for .pdf, .docx, .txt and .md.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewPDFExtractor())
	reg.Register(NewDocxExtractor())
	reg.Register(NewTextExtractor())
	reg.Register(NewMarkdownExtractor())
	return reg
}

// Register adds e under each of its extensions.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.extractors[strings.ToLower(ext)] = e
	}
}

// Supported reports whether a file name has a registered extension.
func (r *Registry) Supported(name string) bool {
	_, ok := r.extractors[Ext(name)]
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract dispatches on the extension of path.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	e, ok := r.extractors[Ext(path)]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filepath.Base(path))
	}
	return e.Extract(ctx, path)
}

// Ext returns the lower-case extension of name, with dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
