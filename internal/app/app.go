package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docportal/internal/chat"
	"docportal/internal/chunker"
	"docportal/internal/compare"
	"docportal/internal/config"
	"docportal/internal/extract"
	"docportal/internal/index"
	"docportal/internal/ingest"
	"docportal/internal/providers"
	"docportal/internal/session"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *session.Store
	ingestor   *ingest.Ingestor
	responder  *chat.Responder
	comparator *compare.Comparator
	storage    *compare.Storage
}

// New connects to the configured providers and wires the application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	embedder, err := providers.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	model, err := providers.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewWithProviders(cfg, logger, embedder, model)
}

// NewWithProviders wires the application around the given providers.
func NewWithProviders(cfg *config.Config, logger *slog.Logger, embedder providers.Embedder, model providers.ChatModel) (*App, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.IndexDir, cfg.CompareDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	textChunker, err := chunker.NewTextChunker(chunker.Config{
		MaxChunkSize: cfg.ChunkSize,
		Overlap:      cfg.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}

	store := session.NewStore(cfg.UploadDir, cfg.IndexDir)
	extractor := extract.DefaultRegistry()

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		ingestor: ingest.New(ingest.Config{
			TopK:      cfg.TopK,
			BatchSize: cfg.EmbedBatchSize,
			Dimension: cfg.EmbeddingDimension,
		}, store, extractor, textChunker, embedder, logger),
		responder: chat.NewResponder(chat.ResponderConfig{
			TopK:         cfg.TopK,
			HistoryTurns: cfg.HistoryTurns,
		}, store, chat.NewRewriter(model, cfg.HistoryTurns, logger), embedder, model, logger),
		comparator: compare.NewComparator(model, extractor, logger),
		storage:    compare.NewStorage(cfg.CompareDir, logger),
	}

	logger.Info("application initialized",
		"upload_dir", cfg.UploadDir,
		"index_dir", cfg.IndexDir,
		"embedding_model", embedder.Model(),
		"llm_provider", cfg.LLMProvider,
		"chunk_size", cfg.ChunkSize,
		"chunk_overlap", cfg.ChunkOverlap,
		"top_k", cfg.TopK,
	)
	return a, nil
}

// Session validates id, or generates one when id is empty.
func (a *App) Session(id string) (string, error) {
	return a.store.GetOrCreate(id)
}

// Ingest indexes the files at paths into the session, creating the session
// when sessionID is empty. It returns the session id.
func (a *App) Ingest(ctx context.Context, sessionID string, paths []string) (string, *index.Retriever, error) {
	id, err := a.store.GetOrCreate(sessionID)
	if err != nil {
		return "", nil, err
	}
	r, err := a.ingestor.Ingest(ctx, id, ingest.FileUploads(paths...))
	if err != nil {
		return id, nil, err
	}
	return id, r, nil
}

// Ask answers a question within the session.
func (a *App) Ask(ctx context.Context, sessionID, question string) (*chat.Answer, error) {
	id, err := a.store.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}
	return a.responder.Ask(ctx, id, question)
}

// Comparison is the result of Compare.
type Comparison struct {
	SessionID  string
	Rows       []compare.Row
	ReportPath string
}

// Compare stores two PDFs under the session, compares them and saves a
// markdown report next to them.
func (a *App) Compare(ctx context.Context, sessionID, referencePath, actualPath string) (*Comparison, error) {
	id, err := a.store.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	pair, err := a.storage.SaveUploads(id, ingest.FileUpload{Path: referencePath}, ingest.FileUpload{Path: actualPath})
	if err != nil {
		return nil, err
	}

	rows, err := a.comparator.CompareFiles(ctx, pair)
	if err != nil {
		a.logger.Error("comparison failed", "op", "compare", "session_id", id, "reference", referencePath, "actual", actualPath, "error", err)
		return nil, err
	}

	dir, err := a.storage.Dir(id)
	if err != nil {
		return nil, err
	}
	report, err := compare.SaveReport(dir, compare.ReportMeta{
		SessionID: id,
		Reference: filepath.Base(referencePath),
		Actual:    filepath.Base(actualPath),
		CreatedAt: time.Now(),
	}, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	a.logger.Info("comparison saved", "session_id", id, "rows", len(rows), "report", report)

	return &Comparison{SessionID: id, Rows: rows, ReportPath: report}, nil
}
