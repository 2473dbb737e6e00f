package providers

import (
	"context"
	"fmt"
	"net/http"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/philippgille/chromem-go"

	"docportal/internal/config"
	"docportal/internal/domain"
)

// Embedder maps texts to fixed-length vectors.
type Embedder interface {
	// EmbedBatch returns one vector per text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model name
	Model() string
}

// EinoEmbedder adapts an eino embedding component.
type EinoEmbedder struct {
	embedder einoEmbedding.Embedder
	model    string
}

func NewEinoEmbedder(embedder einoEmbedding.Embedder, model string) *EinoEmbedder {
	return &EinoEmbedder{embedder: embedder, model: model}
}

func (e *EinoEmbedder) Model() string { return e.model }

// EmbedBatch embeds texts in one call and converts the vectors to float32.
func (e *EinoEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, domain.Wrap(domain.ErrProvider, err, "embed %d texts with %s", len(texts), e.model)
	}
	if len(vectors) != len(texts) {
		return nil, domain.Wrap(domain.ErrProvider, nil, "embedding model %s returned %d vectors for %d texts", e.model, len(vectors), len(texts))
	}

	result := make([][]float32, len(vectors))
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, domain.Wrap(domain.ErrProvider, nil, "embedding model %s returned an empty vector", e.model)
		}
		result[i] = make([]float32, len(vec))
		for j, v := range vec {
			result[i][j] = float32(v)
		}
	}
	return result, nil
}

// FuncEmbedder adapts a chromem embedding function, which embeds one text per call.
type FuncEmbedder struct {
	fn    chromem.EmbeddingFunc
	model string
}

func NewFuncEmbedder(fn chromem.EmbeddingFunc, model string) *FuncEmbedder {
	return &FuncEmbedder{fn: fn, model: model}
}

func (e *FuncEmbedder) Model() string { return e.model }

func (e *FuncEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.fn(ctx, text)
		if err != nil {
			return nil, domain.Wrap(domain.ErrProvider, err, "embed text %d/%d with %s", i+1, len(texts), e.model)
		}
		result = append(result, vec)
	}
	return result, nil
}

// NewEmbedder builds the embedder selected by cfg.EmbeddingProvider.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	model := cfg.Models.EmbeddingModel(cfg.EmbeddingProvider)

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, domain.Wrap(domain.ErrProvider, nil, "OPENAI_API_KEY is required for openai embeddings")
		}
		emb, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   model,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, domain.Wrap(domain.ErrProvider, err, "create openai embedder")
		}
		return NewEinoEmbedder(emb, model), nil

	case config.ProviderOllama:
		if err := EnsureOllamaModels(ctx, &http.Client{Timeout: cfg.RequestTimeout}, cfg.OllamaURL, model); err != nil {
			return nil, err
		}
		fn := chromem.NewEmbeddingFuncOllama(model, cfg.OllamaURL+"/api")
		return NewFuncEmbedder(fn, model), nil

	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrValidation, cfg.EmbeddingProvider)
	}
}
