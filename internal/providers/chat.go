package providers

import (
	"context"
	"net/http"
	"strings"

	geminiModel "github.com/cloudwego/eino-ext/components/model/gemini"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"docportal/internal/config"
	"docportal/internal/domain"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// ChatModel is the part of an eino chat model docportal calls.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

var _ ChatModel = (model.BaseChatModel)(nil)

// NewChatModel builds the chat model selected by cfg.LLMProvider.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	llm, err := cfg.LLM()
	if err != nil {
		return nil, err
	}

	temperature := llm.Temperature
	maxTokens := llm.MaxOutputTokens

	switch llm.Provider {
	case config.ProviderOpenAI, config.ProviderGroq, config.ProviderOllama:
		apiKey, baseURL := cfg.OpenAIAPIKey, cfg.OpenAIBaseURL
		switch llm.Provider {
		case config.ProviderGroq:
			apiKey, baseURL = cfg.GroqAPIKey, groqBaseURL
		case config.ProviderOllama:
			// ollama ignores the key but the client requires one
			apiKey, baseURL = "ollama", strings.TrimRight(cfg.OllamaURL, "/")+"/v1"
			if err := EnsureOllamaModels(ctx, &http.Client{Timeout: cfg.RequestTimeout}, cfg.OllamaURL, llm.ModelName); err != nil {
				return nil, err
			}
		}
		if apiKey == "" {
			return nil, domain.Wrap(domain.ErrProvider, nil, "API key is required for provider %s", llm.Provider)
		}

		cm, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:      apiKey,
			BaseURL:     baseURL,
			Model:       llm.ModelName,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
			Timeout:     cfg.RequestTimeout,
		})
		if err != nil {
			return nil, domain.Wrap(domain.ErrProvider, err, "create %s chat model", llm.Provider)
		}
		return cm, nil

	case config.ProviderGoogle:
		if cfg.GoogleAPIKey == "" {
			return nil, domain.Wrap(domain.ErrProvider, nil, "GOOGLE_API_KEY is required for provider google")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     cfg.GoogleAPIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		})
		if err != nil {
			return nil, domain.Wrap(domain.ErrProvider, err, "create genai client")
		}

		cm, err := geminiModel.NewChatModel(ctx, &geminiModel.Config{
			Client:      client,
			Model:       llm.ModelName,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			return nil, domain.Wrap(domain.ErrProvider, err, "create gemini chat model")
		}
		return cm, nil

	default:
		return nil, domain.Wrap(domain.ErrValidation, nil, "unknown LLM provider %q", llm.Provider)
	}
}
