package llm

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"google.golang.org/genai"

	"github.com/quillhive/agentcore/pkg/agenterr"
)

// Config carries the model-endpoint settings spec §6 groups under
// LLM_MODEL_ID / LLM_API_KEY / LLM_BASE_URL plus the resolved provider
// name — the output of config loading and Autodetect, not a replacement
// for either.
type Config struct {
	Provider Name
	ModelID  string
	APIKey   string
	BaseURL  string
}

// New constructs the concrete Provider for cfg.Provider. It is the single
// place that turns an autodetected/explicit Name into a live client.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(
			WithOpenAIClient(cfg.APIKey, cfg.BaseURL),
			WithOpenAIModel(cfg.ModelID),
		), nil

	case ProviderAnthropic:
		return NewAnthropicProvider(
			WithAnthropicClient(cfg.APIKey, cfg.BaseURL),
			WithAnthropicModel(cfg.ModelID),
		), nil

	case ProviderDeepSeek:
		return NewDeepSeekProvider(
			WithDeepSeekClient(cfg.APIKey),
			WithDeepSeekModel(cfg.ModelID),
		), nil

	case ProviderCohere:
		return NewCohereProvider(
			WithCohereClient(cfg.APIKey),
			WithCohereModel(cfg.ModelID),
		), nil

	case ProviderOllama:
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, agenterr.Wrap(agenterr.KindConfig, "failed to build ollama client from environment", err)
		}
		return NewOllamaProvider(WithOllamaClient(client), WithOllamaModel(cfg.ModelID)), nil

	case ProviderGoogle:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, agenterr.Wrap(agenterr.KindConfig, "failed to build google genai client", err)
		}
		return NewGoogleProvider(WithGoogleClient(client), WithGoogleModel(cfg.ModelID)), nil

	default:
		return nil, agenterr.New(agenterr.KindConfig, fmt.Sprintf("unknown provider: %s", cfg.Provider))
	}
}
