// Package cli is the docportal command line.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"docportal/internal/app"
	"docportal/internal/chat"
	"docportal/internal/index"
)

// Service is the application surface the commands drive.
type Service interface {
	Ingest(ctx context.Context, sessionID string, paths []string) (string, *index.Retriever, error)
	Ask(ctx context.Context, sessionID, question string) (*chat.Answer, error)
	Compare(ctx context.Context, sessionID, referencePath, actualPath string) (*app.Comparison, error)
	Run(ctx context.Context, in io.Reader, out io.Writer, sessionID string) error
}

var _ Service = (*app.App)(nil)

var (
	service   Service
	sessionID string
)

var errNoService = errors.New("application not configured")

var rootCmd = &cobra.Command{
	Use:   "docportal",
	Short: "Chat with your documents",
	Long: `docportal ingests PDF, DOCX, TXT and Markdown files into a per-session
semantic index and answers questions about them, using the conversation
history to resolve follow-up questions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session id (generated when empty)")
}

// SetService installs the application the commands run against.
func SetService(s Service) {
	service = s
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
