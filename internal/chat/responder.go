// Package chat answers questions about a session's documents, threading the
// conversation history into retrieval and generation.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/prompt"

	"docportal/internal/domain"
	"docportal/internal/index"
	"docportal/internal/providers"
	"docportal/internal/session"
)

// NoAnswer is returned when the model produced no usable answer.
const NoAnswer = "No answer."

// Stage names a step of one question.
type Stage string

const (
	StageReceive  Stage = "RECEIVE_QUESTION"
	StageRewrite  Stage = "REWRITE_QUERY"
	StageRetrieve Stage = "RETRIEVE_PASSAGES"
	StageCompose  Stage = "COMPOSE_PROMPT"
	StageGenerate Stage = "GENERATE_ANSWER"
	StageAppend   Stage = "APPEND_HISTORY"
	StageReturn   Stage = "RETURN"
	StageFailed   Stage = "FAILED"
)

// StageError reports the stage a question failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Answer is the result of one question.
type Answer struct {
	Text     string
	Query    string
	Passages []index.Hit
}

type ResponderConfig struct {
	TopK         int
	HistoryTurns int
}

// Responder runs retrieval-augmented question answering per session.
type Responder struct {
	cfg      ResponderConfig
	store    *session.Store
	rewriter *Rewriter
	embedder providers.Embedder
	model    providers.ChatModel
	template prompt.ChatTemplate
	logger   *slog.Logger
}

func NewResponder(cfg ResponderConfig, store *session.Store, rewriter *Rewriter, embedder providers.Embedder, model providers.ChatModel, logger *slog.Logger) *Responder {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Responder{
		cfg:      cfg,
		store:    store,
		rewriter: rewriter,
		embedder: embedder,
		model:    model,
		template: qaTemplate(),
		logger:   logger,
	}
}

// Invoke answers question within the session and returns the answer text.
func (r *Responder) Invoke(ctx context.Context, sessionID, question string) (string, error) {
	ans, err := r.Ask(ctx, sessionID, question)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// Ask answers question within the session. History is extended only when an
// answer was generated.
func (r *Responder) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	log := r.logger.With("op", "invoke", "session_id", sessionID)

	if err := session.ValidateID(sessionID); err != nil {
		return nil, err
	}
	unlock := r.store.LockQuery(sessionID)
	defer unlock()

	ans, stage, err := r.ask(ctx, log, sessionID, question)
	if err != nil {
		log.Error("question failed", "stage", stage, "question", question, "error", err)
		return nil, &StageError{Stage: stage, Err: err}
	}
	log.Debug("question answered", "stage", StageReturn, "query", ans.Query, "passages", len(ans.Passages))
	return ans, nil
}

func (r *Responder) ask(ctx context.Context, log *slog.Logger, sessionID, question string) (*Answer, Stage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, StageReceive, domain.Wrap(domain.ErrValidation, nil, "question is empty")
	}
	history := r.store.History(sessionID)

	query, err := r.rewriter.Rewrite(ctx, history, question)
	if err != nil {
		return nil, StageRewrite, err
	}

	passages, err := r.retrieve(ctx, log, sessionID, query)
	if err != nil {
		return nil, StageRetrieve, err
	}

	msgs, err := r.template.Format(ctx, map[string]any{
		keyContext: formatPassages(passages),
		keyHistory: historyMessages(history, r.cfg.HistoryTurns),
		keyInput:   question,
	})
	if err != nil {
		return nil, StageCompose, fmt.Errorf("failed to format answer prompt: %w", err)
	}

	resp, err := r.model.Generate(ctx, msgs)
	if err != nil {
		return nil, StageGenerate, domain.Wrap(domain.ErrProvider, err, "generate answer")
	}
	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Content)
	}
	if text == "" {
		log.Warn("model returned no answer", "question", question, "query", query)
		text = NoAnswer
	}

	r.store.Append(sessionID, session.RoleUser, question)
	r.store.Append(sessionID, session.RoleAssistant, text)

	return &Answer{Text: text, Query: query, Passages: passages}, StageReturn, nil
}

func (r *Responder) retrieve(ctx context.Context, log *slog.Logger, sessionID, query string) ([]index.Hit, error) {
	retriever, err := r.retriever(log, sessionID)
	if err != nil {
		return nil, err
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, domain.Wrap(domain.ErrProvider, nil, "embedder returned %d vectors for one query", len(vectors))
	}

	return retriever.Retrieve(ctx, vectors[0])
}

// retriever returns the cached session retriever, loading the persisted
// index on first use.
func (r *Responder) retriever(log *slog.Logger, sessionID string) (*index.Retriever, error) {
	if cached := r.store.Retriever(sessionID); cached != nil {
		return cached, nil
	}

	paths, err := r.store.ResolvePaths(sessionID)
	if err != nil {
		return nil, err
	}
	idx, err := index.Load(paths.IndexDir)
	if err != nil {
		return nil, err
	}
	log.Info("index loaded from disk", "path", paths.IndexDir, "chunks", idx.Len())

	retriever := &index.Retriever{SessionID: sessionID, Index: idx, TopK: r.cfg.TopK}
	r.store.SetRetriever(sessionID, retriever)
	return retriever, nil
}

func formatPassages(hits []index.Hit) string {
	var buf strings.Builder
	for i, h := range hits {
		if i > 0 {
			buf.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&buf, "[%d] %s\n%s", i+1, h.Chunk.Source, h.Chunk.Text)
	}
	return buf.String()
}
