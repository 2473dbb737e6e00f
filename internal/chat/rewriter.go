package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/prompt"

	"docportal/internal/domain"
	"docportal/internal/providers"
	"docportal/internal/session"
)

// Rewriter turns a follow-up question into a standalone retrieval query.
type Rewriter struct {
	model    providers.ChatModel
	template prompt.ChatTemplate
	turns    int
	logger   *slog.Logger
}

// NewRewriter creates a rewriter that shows the model the last turns history
// entries.
func NewRewriter(model providers.ChatModel, turns int, logger *slog.Logger) *Rewriter {
	return &Rewriter{
		model:    model,
		template: contextualizeTemplate(),
		turns:    turns,
		logger:   logger,
	}
}

// Rewrite returns question unchanged when history is empty.
func (r *Rewriter) Rewrite(ctx context.Context, history []session.Turn, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	msgs, err := r.template.Format(ctx, map[string]any{
		keyHistory: historyMessages(history, r.turns),
		keyInput:   question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format rewrite prompt: %w", err)
	}

	resp, err := r.model.Generate(ctx, msgs)
	if err != nil {
		return "", domain.Wrap(domain.ErrProvider, err, "rewrite query")
	}

	query := ""
	if resp != nil {
		query = strings.TrimSpace(resp.Content)
	}
	if query == "" {
		r.logger.Warn("rewriter returned nothing, using the question as query", "question", question)
		return question, nil
	}
	return query, nil
}
