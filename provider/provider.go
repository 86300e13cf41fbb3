package provider

import (
	"context"
	"errors"
	"os"

	"github.com/rkeerthivasan/estateline/config"
	gemini_provider "github.com/rkeerthivasan/estateline/provider/gemini"
	openai_provider "github.com/rkeerthivasan/estateline/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Gemini    Client = "gemini"
	Anthropic Client = "anthropic"
)

// Provider is the interface that all LLM implementations must satisfy.
// Generate is the opaque prompt-to-text call; CreateEmbedding maps texts to
// fixed-dimension vectors. Both respect ctx cancellation and deadlines.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	apiKey := cfg.APIKey
	switch Client(cfg.Provider) {
	case OpenAI:
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewOpenAIClient(
			apiKey,
			orDefault(cfg.CompletionModel, "gpt-4o-mini"),
			orDefault(cfg.EmbeddingModel, "text-embedding-3-small"),
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case Gemini:
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("GOOGLE_API_KEY not set")
		}
		return gemini_provider.NewGeminiClient(
			apiKey,
			orDefault(cfg.CompletionModel, "gemini-2.5-flash"),
			orDefault(cfg.EmbeddingModel, "embedding-001"),
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
