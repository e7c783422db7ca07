package llm

import (
	"context"

	deepseek "github.com/cohesion-org/deepseek-go"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
)

var deepseekRoleMap = map[chat.Role]string{
	chat.RoleSystem:    deepseek.ChatMessageRoleSystem,
	chat.RoleUser:      deepseek.ChatMessageRoleUser,
	chat.RoleAssistant: deepseek.ChatMessageRoleAssistant,
}

// DeepSeekProvider is a dedicated text-mode backend for the DeepSeek SDK,
// kept distinct from OpenAIProvider (which can also reach DeepSeek's
// OpenAI-compatible endpoint) so DEEPSEEK_API_KEY autodetection has a home
// that exercises the vendor's own client rather than only a base-URL
// override.
type DeepSeekProvider struct {
	client *deepseek.Client
	model  string
}

type DeepSeekProviderOption func(*DeepSeekProvider)

func NewDeepSeekProvider(options ...DeepSeekProviderOption) *DeepSeekProvider {
	p := &DeepSeekProvider{model: deepseek.DeepSeekChat}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func WithDeepSeekClient(apiKey string) DeepSeekProviderOption {
	return func(p *DeepSeekProvider) {
		p.client = deepseek.NewClient(apiKey)
	}
}

func WithDeepSeekModel(model string) DeepSeekProviderOption {
	return func(p *DeepSeekProvider) { p.model = model }
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) SupportsNativeToolCalling() bool { return false }

func (p *DeepSeekProvider) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error) {
	messages := make([]deepseek.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role, ok := deepseekRoleMap[m.Role]
		if !ok {
			continue
		}
		messages = append(messages, deepseek.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	})
	if err != nil {
		return CompleteResponse{}, agenterr.Wrap(agenterr.KindModelCall, "deepseek completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return CompleteResponse{}, agenterr.New(agenterr.KindModelCall, "deepseek completion returned no choices")
	}

	return CompleteResponse{Content: resp.Choices[0].Message.Content}, nil
}
