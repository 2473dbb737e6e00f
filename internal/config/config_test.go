package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MODELS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 300, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "text-embedding-3-small", cfg.Models.EmbeddingModel(ProviderOpenAI))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MODELS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("RETRIEVAL_K", "3")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := `
embedding_model:
  openai:
    model_name: text-embedding-3-large
llm:
  groq:
    provider: groq
    model_name: deepseek-r1-distill-llama-70b
    temperature: 0.3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-large", cat.EmbeddingModel(ProviderOpenAI))
	assert.Equal(t, "nomic-embed-text", cat.EmbeddingModel(ProviderOllama))

	groq := cat.LLM[ProviderGroq]
	assert.Equal(t, "deepseek-r1-distill-llama-70b", groq.ModelName)
	assert.InDelta(t, 0.3, groq.Temperature, 1e-6)
	assert.Equal(t, 2048, groq.MaxOutputTokens)
	assert.Contains(t, cat.LLM, ProviderOpenAI)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not, a, map"), 0o644))

	_, err := LoadCatalog(path)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func validConfig() *Config {
	return &Config{
		LLMProvider:       ProviderOpenAI,
		EmbeddingProvider: ProviderOpenAI,
		OpenAIAPIKey:      "sk-test",
		ChunkSize:         1000,
		ChunkOverlap:      300,
		TopK:              5,
		EmbedBatchSize:    64,
		Models:            *DefaultCatalog(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, domain.ErrValidation},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 1000 }, domain.ErrValidation},
		{"zero k", func(c *Config) { c.TopK = 0 }, domain.ErrValidation},
		{"unknown llm provider", func(c *Config) { c.LLMProvider = "acme" }, domain.ErrValidation},
		{"unknown embedding provider", func(c *Config) { c.EmbeddingProvider = "acme" }, domain.ErrValidation},
		{"missing openai key", func(c *Config) { c.OpenAIAPIKey = "" }, domain.ErrProvider},
		{"missing google key", func(c *Config) { c.LLMProvider = ProviderGoogle }, domain.ErrProvider},
		{"google with key", func(c *Config) {
			c.LLMProvider = ProviderGoogle
			c.GoogleAPIKey = "g-test"
		}, nil},
		{"ollama needs no key", func(c *Config) {
			c.OpenAIAPIKey = ""
			c.LLMProvider = ProviderOllama
			c.EmbeddingProvider = ProviderOllama
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
