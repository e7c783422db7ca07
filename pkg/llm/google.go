package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
)

var googleRoleMap = map[chat.Role]string{
	chat.RoleUser:      "user",
	chat.RoleAssistant: "model",
}

// GoogleProvider rounds out the provider-autodetection matrix with a
// text-mode-only backend for Gemini models. genai.Content has no "system"
// role, so system messages are joined into the per-request
// GenerateContentConfig's SystemInstruction instead of the content list.
type GoogleProvider struct {
	client *genai.Client
	model  string
}

type GoogleProviderOption func(*GoogleProvider)

func NewGoogleProvider(options ...GoogleProviderOption) *GoogleProvider {
	p := &GoogleProvider{}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func WithGoogleClient(client *genai.Client) GoogleProviderOption {
	return func(p *GoogleProvider) { p.client = client }
}

func WithGoogleModel(model string) GoogleProviderOption {
	return func(p *GoogleProvider) { p.model = model }
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) SupportsNativeToolCalling() bool { return false }

func (p *GoogleProvider) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(req.Messages))

	for _, m := range req.Messages {
		if m.Role == chat.RoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		role, ok := googleRoleMap[m.Role]
		if !ok {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}

	var config *genai.GenerateContentConfig
	if len(systemParts) > 0 {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n")}}},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return CompleteResponse{}, agenterr.Wrap(agenterr.KindModelCall, "google completion failed", err)
	}

	return CompleteResponse{Content: resp.Text()}, nil
}
