// Package ingest turns uploaded files into a persisted, queryable session index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docportal/internal/chunker"
	"docportal/internal/domain"
	"docportal/internal/extract"
	"docportal/internal/index"
	"docportal/internal/providers"
	"docportal/internal/session"
)

type Config struct {
	TopK      int
	BatchSize int
	// Dimension is the expected embedding length, zero accepts the provider's.
	Dimension int
}

// Ingestor coordinates extraction, chunking, embedding and index persistence.
type Ingestor struct {
	cfg       Config
	store     *session.Store
	extractor *extract.Registry
	chunker   chunker.Chunker
	embedder  providers.Embedder
	logger    *slog.Logger
}

func New(cfg Config, store *session.Store, extractor *extract.Registry, ch chunker.Chunker, embedder providers.Embedder, logger *slog.Logger) *Ingestor {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	return &Ingestor{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		logger:    logger,
	}
}

type document struct {
	id     string
	source string
	text   string
}

// Ingest replaces the session index with one built from uploads and returns a
// retriever over it. Unsupported files are skipped.
func (i *Ingestor) Ingest(ctx context.Context, sessionID string, uploads []Upload) (*index.Retriever, error) {
	log := i.logger.With("op", "ingest", "session_id", sessionID)

	paths, err := i.store.ResolvePaths(sessionID)
	if err != nil {
		return nil, err
	}

	unlock := i.store.LockIngest(sessionID)
	defer unlock()

	retriever, err := i.ingest(ctx, log, sessionID, paths, uploads)
	if err != nil {
		log.Error("ingestion failed", "error", err)
		return nil, err
	}
	return retriever, nil
}

func (i *Ingestor) ingest(ctx context.Context, log *slog.Logger, sessionID string, paths session.Paths, uploads []Upload) (*index.Retriever, error) {
	accepted := make([]Upload, 0, len(uploads))
	for _, u := range uploads {
		if !i.extractor.Supported(u.Name()) {
			log.Warn("unsupported file skipped", "filename", u.Name())
			continue
		}
		accepted = append(accepted, u)
	}
	if len(accepted) == 0 {
		return nil, domain.Wrap(domain.ErrValidation, nil, "no supported files among %d uploads, supported: %s",
			len(uploads), strings.Join(i.extractor.Extensions(), ", "))
	}

	if err := resetDir(paths.TempDir); err != nil {
		return nil, err
	}

	docs, err := i.loadDocuments(ctx, log, paths.TempDir, accepted)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.Wrap(domain.ErrEmptyIngestion, nil, "none of %d files yielded text", len(accepted))
	}
	log.Info("all documents loaded", "total_docs", len(docs))

	var chunks []chunker.Chunk
	for _, doc := range docs {
		docChunks, err := i.chunker.Chunk(doc.id, doc.source, doc.text)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", doc.source, err)
		}
		chunks = append(chunks, docChunks...)
	}
	log.Info("documents split into chunks", "total_chunks", len(chunks), "chunker", i.chunker.Name())

	vectors, err := i.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	idx, err := index.Build(ctx, chunks, vectors, index.Options{
		Dimension:      i.cfg.Dimension,
		EmbeddingModel: i.embedder.Model(),
		SessionID:      sessionID,
	})
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(paths.IndexDir); err != nil {
		return nil, fmt.Errorf("failed to clear index dir %s: %w", paths.IndexDir, err)
	}
	if err := idx.Persist(paths.IndexDir); err != nil {
		return nil, err
	}
	log.Info("index saved to disk", "path", paths.IndexDir, "chunks", idx.Len(), "dimension", idx.Dimension())

	retriever := &index.Retriever{SessionID: sessionID, Index: idx, TopK: i.cfg.TopK}
	i.store.SetRetriever(sessionID, retriever)
	return retriever, nil
}

func (i *Ingestor) loadDocuments(ctx context.Context, log *slog.Logger, tempDir string, uploads []Upload) ([]document, error) {
	docs := make([]document, 0, len(uploads))
	for _, u := range uploads {
		data, err := u.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", u.Name(), err)
		}

		id, path, err := uniquePath(tempDir, extract.Ext(u.Name()))
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to save upload %s: %w", u.Name(), err)
		}
		log.Info("file saved for ingestion", "filename", u.Name(), "saved_as", path)

		text, err := i.extractor.Extract(ctx, path)
		if err != nil {
			if errors.Is(err, domain.ErrEncryptedDocument) {
				return nil, domain.Wrap(domain.ErrEncryptedDocument, err, "%s", u.Name())
			}
			return nil, fmt.Errorf("failed to extract %s: %w", u.Name(), err)
		}
		if strings.TrimSpace(text) == "" {
			log.Warn("document has no text, skipped", "filename", u.Name())
			continue
		}

		docs = append(docs, document{id: id, source: u.Name(), text: text})
	}
	return docs, nil
}

func (i *Ingestor) embed(ctx context.Context, chunks []chunker.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += i.cfg.BatchSize {
		end := min(start+i.cfg.BatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}

		batch, err := i.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, domain.Wrap(domain.ErrProvider, nil, "embedder returned %d vectors for %d chunks", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// uniquePath picks an unused <8 hex><ext> name in dir.
func uniquePath(dir, ext string) (string, string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		path := filepath.Join(dir, id+ext)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return id, path, nil
		}
	}
	return "", "", fmt.Errorf("failed to pick a free file name in %s", dir)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
