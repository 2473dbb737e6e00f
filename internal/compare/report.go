package compare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportMeta describes a comparison run.
type ReportMeta struct {
	SessionID string
	Reference string
	Actual    string
	CreatedAt time.Time
}

// WriteReport renders the rows as a markdown table.
func WriteReport(w io.Writer, meta ReportMeta, rows []Row) error {
	var buf strings.Builder

	changed := 0
	for _, r := range rows {
		if !strings.EqualFold(strings.TrimSpace(r.Changes), NoChange) {
			changed++
		}
	}

	fmt.Fprintf(&buf, "# Comparison: %s vs %s\n\n", filepath.Base(meta.Reference), filepath.Base(meta.Actual))
	if meta.SessionID != "" {
		fmt.Fprintf(&buf, "**Session:** %s\n\n", meta.SessionID)
	}
	fmt.Fprintf(&buf, "**Date:** %s\n\n", meta.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&buf, "**Pages:** %d, **changed:** %d\n\n", len(rows), changed)

	buf.WriteString("| Page | Changes |\n")
	buf.WriteString("|------|---------|\n")
	for _, r := range rows {
		fmt.Fprintf(&buf, "| %s | %s |\n", cell(r.Page), cell(r.Changes))
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// SaveReport writes the report to a timestamped file in dir and returns its path.
func SaveReport(dir string, meta ReportMeta, rows []Row) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("comparison_%s.md", meta.CreatedAt.Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteReport(f, meta, rows); err != nil {
		return "", err
	}
	return path, nil
}

func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}
