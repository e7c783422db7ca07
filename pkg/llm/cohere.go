package llm

import (
	"context"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	coreoption "github.com/cohere-ai/cohere-go/v2/option"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
)

// cohereRoleMap maps chat roles to Cohere's role tags for
// cohereHistoryMessage. Cohere's chat
// API takes one current message plus a chat_history list rather than a flat
// transcript, but a flattened history entry still needs a role tag.
var cohereRoleMap = map[chat.Role]string{
	chat.RoleSystem:    "SYSTEM",
	chat.RoleUser:      "USER",
	chat.RoleAssistant: "CHATBOT",
}

// CohereProvider is a text-mode-only backend: Cohere's v2 chat API has no
// structured tool_calls wire format compatible with this module's
// native-mode contract, so tool descriptions are expected to already be
// embedded in the prompt by the caller.
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

type CohereProviderOption func(*CohereProvider)

func NewCohereProvider(options ...CohereProviderOption) *CohereProvider {
	p := &CohereProvider{}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func WithCohereClient(apiKey string) CohereProviderOption {
	return func(p *CohereProvider) {
		p.client = cohereclient.NewClient(coreoption.WithToken(apiKey))
	}
}

func WithCohereModel(model string) CohereProviderOption {
	return func(p *CohereProvider) { p.model = model }
}

func (p *CohereProvider) Name() string { return "cohere" }

func (p *CohereProvider) SupportsNativeToolCalling() bool { return false }

func (p *CohereProvider) Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error) {
	if len(req.Messages) == 0 {
		return CompleteResponse{}, agenterr.New(agenterr.KindModelCall, "cohere completion requires at least one message")
	}

	history, current := splitLastUserTurn(req.Messages)

	chatReq := &cohere.ChatRequest{
		Model:       &p.model,
		Message:     current,
		ChatHistory: history,
	}

	resp, err := p.client.Chat(ctx, chatReq)
	if err != nil {
		return CompleteResponse{}, agenterr.Wrap(agenterr.KindModelCall, "cohere completion failed", err)
	}

	return CompleteResponse{Content: resp.Text}, nil
}

// splitLastUserTurn flattens every message but the last into Cohere's
// chat_history shape, treating the final message's content as the current
// turn Cohere's API expects as a separate field.
func splitLastUserTurn(messages []chat.Message) ([]*cohere.Message, string) {
	history := make([]*cohere.Message, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role, ok := cohereRoleMap[m.Role]
		if !ok {
			continue
		}
		history = append(history, cohereHistoryMessage(role, m.Content))
	}

	last := messages[len(messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return history, " "
	}
	return history, last.Content
}

// cohereHistoryMessage builds a role-tagged chat_history entry. Message is a
// union type: the Role field selects which of Chatbot/System/User holds the
// content.
func cohereHistoryMessage(role, content string) *cohere.Message {
	chatMsg := &cohere.ChatMessage{Message: content}
	msg := &cohere.Message{Role: role}
	switch role {
	case cohereRoleMap[chat.RoleSystem]:
		msg.System = chatMsg
	case cohereRoleMap[chat.RoleUser]:
		msg.User = chatMsg
	case cohereRoleMap[chat.RoleAssistant]:
		msg.Chatbot = chatMsg
	}
	return msg
}
