package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextExtractor reads UTF-8 text files.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (t *TextExtractor) Extensions() []string {
	return []string{".txt"}
}

func (t *TextExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
