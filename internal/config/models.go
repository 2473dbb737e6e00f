package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"docportal/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// EmbeddingConfig names the embedding model.
type EmbeddingConfig struct {
	ModelName string `yaml:"model_name"`
}

// LLMConfig describes one language model block.
type LLMConfig struct {
	Provider        string  `yaml:"provider"`
	ModelName       string  `yaml:"model_name"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// Catalog is the model configuration file: embedding models per provider and
// LLM blocks keyed by the LLM_PROVIDER value that selects them.
type Catalog struct {
	Embeddings map[string]EmbeddingConfig `yaml:"embedding_model"`
	LLM        map[string]LLMConfig       `yaml:"llm"`
}

// EmbeddingModel returns the model name configured for provider.
func (c Catalog) EmbeddingModel(provider string) string {
	return c.Embeddings[provider].ModelName
}

// LoadCatalog reads the catalog from path. A missing file yields defaults,
// blocks absent from the file are filled from defaults.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultCatalog(), nil
		}
		return nil, domain.Wrap(domain.ErrValidation, err, "read model catalog %s", path)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, domain.Wrap(domain.ErrValidation, err, "parse model catalog %s", path)
	}
	applyCatalogDefaults(&cat)
	return &cat, nil
}

// DefaultCatalog returns the built-in model catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Embeddings: map[string]EmbeddingConfig{
			ProviderOpenAI: {ModelName: "text-embedding-3-small"},
			ProviderOllama: {ModelName: "nomic-embed-text"},
		},
		LLM: map[string]LLMConfig{
			ProviderOpenAI: {Provider: ProviderOpenAI, ModelName: "gpt-4o-mini", Temperature: 0, MaxOutputTokens: 2048},
			ProviderGoogle: {Provider: ProviderGoogle, ModelName: "gemini-2.0-flash", Temperature: 0, MaxOutputTokens: 2048},
			ProviderGroq:   {Provider: ProviderGroq, ModelName: "llama-3.3-70b-versatile", Temperature: 0, MaxOutputTokens: 2048},
			ProviderOllama: {Provider: ProviderOllama, ModelName: "gemma2:2b", Temperature: 0, MaxOutputTokens: 2048},
		},
	}
}

func applyCatalogDefaults(cat *Catalog) {
	def := DefaultCatalog()
	if cat.Embeddings == nil {
		cat.Embeddings = make(map[string]EmbeddingConfig)
	}
	for k, v := range def.Embeddings {
		if cur, ok := cat.Embeddings[k]; !ok || cur.ModelName == "" {
			cat.Embeddings[k] = v
		}
	}
	if cat.LLM == nil {
		cat.LLM = make(map[string]LLMConfig)
	}
	for k, v := range def.LLM {
		if _, ok := cat.LLM[k]; !ok {
			cat.LLM[k] = v
		}
	}
	for k, v := range cat.LLM {
		if v.MaxOutputTokens == 0 {
			v.MaxOutputTokens = 2048
			cat.LLM[k] = v
		}
	}
}
