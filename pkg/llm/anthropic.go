package llm

import (
	"context"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
	"github.com/quillhive/agentcore/pkg/tools"
)

// AnthropicProvider is the other native tool-calling backend. Anthropic
// splits the system prompt out of the message list and returns tool calls
// as content blocks rather than a dedicated field, so conversion is the
// bulk of this file.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

type AnthropicProviderOption func(*AnthropicProvider)

func NewAnthropicProvider(options ...AnthropicProviderOption) *AnthropicProvider {
	p := &AnthropicProvider{maxTokens: 4096}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func WithAnthropicClient(apiKey, baseURL string) AnthropicProviderOption {
	return func(p *AnthropicProvider) {
		reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if baseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
		}
		client := anthropic.NewClient(reqOpts...)
		p.client = &client
	}
}

func WithAnthropicModel(model string) AnthropicProviderOption {
	return func(p *AnthropicProvider) { p.model = model }
}

func WithAnthropicMaxTokens(n int64) AnthropicProviderOption {
	return func(p *AnthropicProvider) { p.maxTokens = n }
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) SupportsNativeToolCalling() bool { return true }

func (p *AnthropicProvider) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error) {
	var system []anthropic.TextBlockParam
	var rest []chat.Message
	for _, m := range req.Messages {
		if m.Role == chat.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
			continue
		}
		rest = append(rest, m)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		System:    system,
		Messages:  convertMessagesAnthropic(rest),
		MaxTokens: p.maxTokens,
	}
	if len(req.Tools) > 0 {
		params.Tools = convertToolsAnthropic(req.Tools)
		if req.ToolChoice == ToolChoiceNone {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		} else {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return CompleteResponse{}, agenterr.Wrap(agenterr.KindModelCall, "anthropic completion failed", err)
	}

	var text string
	var calls []chat.ToolCall
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			calls = append(calls, chat.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(b.Input),
			})
		}
	}

	return CompleteResponse{Content: text, ToolCalls: calls}, nil
}

func convertMessagesAnthropic(messages []chat.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chat.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case chat.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case chat.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		}
	}
	return out
}

func convertToolsAnthropic(schemas []tools.FunctionSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		properties := make(map[string]any, len(s.Function.Parameters.Properties))
		for name, prop := range s.Function.Parameters.Properties {
			entry := map[string]any{"type": prop.Type, "description": prop.Description}
			if prop.Items != nil {
				entry["items"] = map[string]any{"type": prop.Items.Type}
			}
			properties[name] = entry
		}

		toolParam := anthropic.ToolParam{
			Name:        s.Function.Name,
			Description: anthropic.String(s.Function.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   s.Function.Parameters.Required,
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}
