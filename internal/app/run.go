package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"docportal/internal/domain"
)

// Run reads one line at a time from in until EOF or ctx is done. A line naming
// an existing file is ingested into the session, any other line is asked as a
// question and answered on out.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer, sessionID string) error {
	id, err := a.store.GetOrCreate(sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Session: %s\n", id)
	fmt.Fprintln(out, "Enter a question, or a file path to ingest it. Ctrl+D to exit.")

	scanner := bufio.NewScanner(in)

	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down", "session_id", id)
			return nil
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			a.handleLine(ctx, out, id, line)
		}
	}
}

func (a *App) handleLine(ctx context.Context, out io.Writer, sessionID, line string) {
	if info, err := os.Stat(line); err == nil && !info.IsDir() {
		_, r, err := a.Ingest(ctx, sessionID, []string{line})
		if err != nil {
			fmt.Fprintf(out, "Ingestion failed: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Indexed %s: %d chunks\n", line, r.Index.Len())
		return
	}

	ans, err := a.Ask(ctx, sessionID, line)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			fmt.Fprintln(out, "No documents in this session yet. Enter a file path to ingest one.")
			return
		}
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(out, "\n%s\n", ans.Text)
	if len(ans.Passages) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for i, p := range ans.Passages {
			fmt.Fprintf(out, "  %d. %s (similarity: %.2f)\n", i+1, p.Chunk.Source, p.Score)
		}
	}
	fmt.Fprintln(out)
}
