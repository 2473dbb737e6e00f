package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errSessionRequired = errors.New("--session is required")

var compareCmd = &cobra.Command{
	Use:   "compare [reference.pdf] [actual.pdf]",
	Short: "Compare two PDF documents page by page",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if service == nil {
		return errNoService
	}

	res, err := service.Compare(cmd.Context(), sessionID, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Session: %s\n\n", res.SessionID)
	for _, r := range res.Rows {
		fmt.Fprintf(cmd.OutOrStdout(), "Page %s: %s\n", r.Page, r.Changes)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nReport saved to %s\n", res.ReportPath)
	return nil
}
