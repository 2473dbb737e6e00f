package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor renders markdown to plain text: headings and paragraphs
// become blank-line separated blocks, code blocks are kept verbatim.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

func (m *MarkdownExtractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

func (m *MarkdownExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return m.PlainText(data), nil
}

// PlainText walks the markdown AST of content and collects its text.
func (m *MarkdownExtractor) PlainText(content []byte) string {
	doc := m.md.Parser().Parse(text.NewReader(content))

	var buf strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.(type) {
			case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
				buf.WriteString("\n\n")
			case *ast.ListItem:
				buf.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteString("\n")
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(content))
			}
			buf.WriteString("\n")
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			buf.Write(node.Label(content))
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(collapseBlankLines(buf.String()))
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
