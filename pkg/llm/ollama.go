package llm

import (
	"context"

	"github.com/ollama/ollama/api"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
)

var ollamaRoleMap = map[chat.Role]string{
	chat.RoleSystem:    "system",
	chat.RoleUser:      "user",
	chat.RoleAssistant: "assistant",
}

// OllamaProvider is the local/offline text-mode backend: it talks to a
// locally running ollama daemon over its HTTP API, so it needs neither an
// API key nor network access beyond localhost.
type OllamaProvider struct {
	client *api.Client
	model  string
}

type OllamaProviderOption func(*OllamaProvider)

func NewOllamaProvider(options ...OllamaProviderOption) *OllamaProvider {
	p := &OllamaProvider{}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func WithOllamaClient(client *api.Client) OllamaProviderOption {
	return func(p *OllamaProvider) { p.client = client }
}

func WithOllamaModel(model string) OllamaProviderOption {
	return func(p *OllamaProvider) { p.model = model }
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) SupportsNativeToolCalling() bool { return false }

func (p *OllamaProvider) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error) {
	messages := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role, ok := ollamaRoleMap[m.Role]
		if !ok {
			continue
		}
		messages = append(messages, api.Message{Role: role, Content: m.Content})
	}

	stream := false
	var content string
	err := p.client.Chat(ctx, &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   &stream,
	}, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return CompleteResponse{}, agenterr.Wrap(agenterr.KindModelCall, "ollama completion failed", err)
	}

	return CompleteResponse{Content: content}, nil
}
