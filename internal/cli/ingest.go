package cli

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"docportal/internal/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or globs...]",
	Short: "Index documents into a session",
	Long: `Builds the session index from the given files, replacing any previous index
of the session. Arguments may be glob patterns such as "docs/**/*.pdf".
Unsupported files are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if service == nil {
		return errNoService
	}

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	id, r, err := service.Ingest(cmd.Context(), sessionID, paths)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\n", id)
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files into %d chunks\n", len(paths), r.Index.Len())
	return nil
}

// expandPaths resolves glob patterns. Arguments without glob syntax are kept
// as given.
func expandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, domain.Wrap(domain.ErrValidation, err, "bad pattern %q", arg)
		}
		if len(matches) == 0 {
			if !hasMeta(arg) {
				matches = []string{arg}
			} else {
				return nil, domain.Wrap(domain.ErrValidation, nil, "no files match %q", arg)
			}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func hasMeta(s string) bool {
	for _, c := range s {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
