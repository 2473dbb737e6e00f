package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"

	"docportal/internal/domain"
)

type Config struct {
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"./data/uploads"`
	IndexDir   string `env:"INDEX_DIR" envDefault:"./data/index"`
	CompareDir string `env:"COMPARE_DIR" envDefault:"./data/compare"`
	ModelsFile string `env:"MODELS_FILE" envDefault:"config/models.yaml"`

	LLMProvider       string `env:"LLM_PROVIDER" envDefault:"openai"`
	EmbeddingProvider string `env:"EMBEDDING_PROVIDER" envDefault:"openai"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`
	GroqAPIKey    string `env:"GROQ_API_KEY"`
	OllamaURL     string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`

	ChunkSize          int           `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap       int           `env:"CHUNK_OVERLAP" envDefault:"300"`
	TopK               int           `env:"RETRIEVAL_K" envDefault:"5"`
	HistoryTurns       int           `env:"HISTORY_TURNS" envDefault:"10"`
	EmbedBatchSize     int           `env:"EMBED_BATCH_SIZE" envDefault:"64"`
	EmbeddingDimension int           `env:"EMBEDDING_DIM" envDefault:"0"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Models Catalog `env:"-"`
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Load parses the environment into a Config and attaches the model catalog
// read from ModelsFile.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := Init(cfg); err != nil {
		return nil, domain.Wrap(domain.ErrValidation, err, "parse environment")
	}

	catalog, err := LoadCatalog(cfg.ModelsFile)
	if err != nil {
		return nil, err
	}
	cfg.Models = *catalog

	return cfg, nil
}

// LLM returns the catalog block selected by LLMProvider.
func (c *Config) LLM() (LLMConfig, error) {
	llm, ok := c.Models.LLM[c.LLMProvider]
	if !ok {
		return LLMConfig{}, domain.Wrap(domain.ErrValidation, nil, "LLM provider %q not found in %s", c.LLMProvider, c.ModelsFile)
	}
	if llm.Provider == "" {
		llm.Provider = c.LLMProvider
	}
	return llm, nil
}

// Validate checks parameters and required credentials. A missing credential
// is reported as a provider error so startup can fail on it.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return domain.Wrap(domain.ErrValidation, nil, "CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return domain.Wrap(domain.ErrValidation, nil, "CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return domain.Wrap(domain.ErrValidation, nil, "RETRIEVAL_K must be positive, got %d", c.TopK)
	}
	if c.EmbedBatchSize <= 0 {
		return domain.Wrap(domain.ErrValidation, nil, "EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize)
	}
	if c.EmbeddingDimension < 0 {
		return domain.Wrap(domain.ErrValidation, nil, "EMBEDDING_DIM must not be negative, got %d", c.EmbeddingDimension)
	}

	llm, err := c.LLM()
	if err != nil {
		return err
	}
	if err := c.requireKey(llm.Provider); err != nil {
		return err
	}

	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return domain.Wrap(domain.ErrValidation, nil, "unknown embedding provider %q", c.EmbeddingProvider)
	}
	return c.requireKey(c.EmbeddingProvider)
}

func (c *Config) requireKey(provider string) error {
	var key, name string
	switch provider {
	case ProviderOpenAI:
		key, name = c.OpenAIAPIKey, "OPENAI_API_KEY"
	case ProviderGoogle:
		key, name = c.GoogleAPIKey, "GOOGLE_API_KEY"
	case ProviderGroq:
		key, name = c.GroqAPIKey, "GROQ_API_KEY"
	case ProviderOllama:
		return nil
	default:
		return domain.Wrap(domain.ErrValidation, nil, "unknown provider %q", provider)
	}
	if key == "" {
		return domain.Wrap(domain.ErrProvider, nil, "missing environment variable %s for provider %s", name, provider)
	}
	return nil
}

// AbsDirs resolves the data directories to absolute paths.
func (c *Config) AbsDirs() error {
	for _, dir := range []*string{&c.UploadDir, &c.IndexDir, &c.CompareDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("failed to get absolute dir for %s: %w", *dir, err)
		}
		*dir = abs
	}
	return nil
}
