package embedding

import "github.com/quillhive/agentcore/pkg/agenterr"

// BackendType enumerates EMBED_MODEL_TYPE values.
type BackendType string

const (
	BackendOpenAI    BackendType = "openai"
	BackendDashScope BackendType = "dashscope"
	BackendSimple    BackendType = "simple"
)

// Config carries the EMBED_* settings spec §6 lists.
type Config struct {
	Type       BackendType
	ModelName  string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// dashscopeBaseURL is DashScope's OpenAI-compatible endpoint, used when no
// explicit BaseURL override is configured.
const dashscopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// New constructs the configured Embedder.
func New(cfg Config) (Embedder, error) {
	switch cfg.Type {
	case BackendOpenAI:
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.ModelName, cfg.Dimensions), nil
	case BackendDashScope:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = dashscopeBaseURL
		}
		return NewOpenAIEmbedder(cfg.APIKey, baseURL, cfg.ModelName, cfg.Dimensions), nil
	case BackendSimple:
		return NewSimpleEmbedder(cfg.Dimensions), nil
	default:
		return nil, agenterr.New(agenterr.KindConfig, "unknown embedding backend: "+string(cfg.Type))
	}
}
