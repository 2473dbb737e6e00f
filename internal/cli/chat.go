package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [files or globs...]",
	Short: "Interactive question loop",
	Long: `Optionally ingests the given files, then reads questions from standard
input, one per line, and answers them from the session index. A line naming an
existing file ingests it instead.`,
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var askShowSources bool

func init() {
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the retrieved passages")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if service == nil {
		return errNoService
	}

	id := sessionID
	if len(args) > 0 {
		paths, err := expandPaths(args)
		if err != nil {
			return err
		}
		id, _, err = service.Ingest(cmd.Context(), id, paths)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	}
	return service.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), id)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if service == nil {
		return errNoService
	}
	if sessionID == "" {
		return errSessionRequired
	}

	ans, err := service.Ask(cmd.Context(), sessionID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ans.Text)
	if askShowSources {
		fmt.Fprintln(cmd.OutOrStdout())
		for i, p := range ans.Passages {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s (%.2f)\n", i+1, p.Chunk.Source, p.Score)
			fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", snippet(p.Chunk.Text, 120))
		}
	}
	return nil
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
