package llm

import (
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
	"github.com/quillhive/agentcore/pkg/tools"

	"context"
)

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint;
// the base URL given to the underlying client selects which one. Autodetected
// DeepSeek and DashScope configurations are served by DeepSeekProvider, not
// by this type.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	p := &OpenAIProvider{}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// WithOpenAIClient configures the underlying SDK client. baseURL may be
// empty to use OpenAI's own endpoint, or set to point the same client at a
// compatible third-party API.
func WithOpenAIClient(apiKey, baseURL string) OpenAIProviderOption {
	return func(p *OpenAIProvider) {
		reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if baseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
		}
		client := openai.NewClient(reqOpts...)
		p.client = &client
	}
}

func WithOpenAIModel(model string) OpenAIProviderOption {
	return func(p *OpenAIProvider) { p.model = model }
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) SupportsNativeToolCalling() bool { return true }

func (p *OpenAIProvider) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertMessagesOpenAI(req.Messages),
	}

	if len(req.Tools) > 0 {
		params.Tools = convertToolsOpenAI(req.Tools)
		choice := "auto"
		if req.ToolChoice == ToolChoiceNone {
			choice = "none"
		}
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(choice),
		}
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return CompleteResponse{}, agenterr.Wrap(agenterr.KindModelCall, "openai completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return CompleteResponse{}, agenterr.New(agenterr.KindModelCall, "openai completion returned no choices")
	}

	msg := completion.Choices[0].Message
	calls := make([]chat.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, chat.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return CompleteResponse{Content: msg.Content, ToolCalls: calls}, nil
}

func convertMessagesOpenAI(messages []chat.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case chat.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case chat.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case chat.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)},
					ToolCalls: toolCalls,
				},
			})
		}
	}
	return out
}

func convertToolsOpenAI(schemas []tools.FunctionSchema) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(schemas))
	for _, s := range schemas {
		properties := make(map[string]any, len(s.Function.Parameters.Properties))
		for name, prop := range s.Function.Parameters.Properties {
			entry := map[string]any{"type": prop.Type, "description": prop.Description}
			if prop.Items != nil {
				entry["items"] = map[string]any{"type": prop.Items.Type}
			}
			properties[name] = entry
		}

		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        s.Function.Name,
				Description: openai.String(s.Function.Description),
				Parameters: openai.FunctionParameters{
					"type":       s.Function.Parameters.Type,
					"properties": properties,
					"required":   s.Function.Parameters.Required,
				},
			},
		})
	}
	return out
}
