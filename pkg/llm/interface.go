// Package llm abstracts over chat-completion backends behind a single
// Provider interface, conformant to the OpenAI-compatible chat-completions
// contract: messages {role, content, name?, tool_call_id?}, native tool
// calls as {id, type:"function", function:{name, arguments}}, tool_choice
// in {"auto","none"}.
package llm

import (
	"context"

	"github.com/quillhive/agentcore/pkg/chat"
	"github.com/quillhive/agentcore/pkg/tools"
)

// ToolChoice mirrors the wire values a native-mode request may carry.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// CompleteRequest is one model invocation. Tools is empty for a plain
// completion; when non-empty, native providers attach it to the request
// verbatim and honor ToolChoice, while text-mode providers ignore both and
// rely on the caller to have embedded tool descriptions in the prompt.
type CompleteRequest struct {
	Messages   []chat.Message
	Tools      []tools.FunctionSchema
	ToolChoice ToolChoice
}

// CompleteResponse carries the model's text and, for native-mode providers,
// any structured tool calls extracted from the response.
type CompleteResponse struct {
	Content   string
	ToolCalls []chat.ToolCall
}

// Provider is the uniform backend the tool-calling loop and the agent speak
// to, regardless of which vendor SDK sits behind it.
type Provider interface {
	// Name identifies the backend for logs and provider-selection tests.
	Name() string

	// SupportsNativeToolCalling reports whether Complete honors Tools and
	// ToolChoice via a structured wire format. Providers that answer false
	// are driven in text mode: the caller embeds tool descriptions in the
	// prompt and parses intents from CompleteResponse.Content.
	SupportsNativeToolCalling() bool

	// Complete invokes the model once. Errors are agenterr.KindModelCall.
	Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error)
}
