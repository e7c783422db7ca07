package tools

import (
	"context"

	"github.com/quillhive/agentcore/pkg/chat"
)

// Tool is a named, side-effecting capability exposed to the model. Description
// and Parameters are used to render both the natural-language registry
// summary and the native function-calling schema; Run performs the call.
type Tool interface {
	Name() string
	Description() string
	Parameters() []chat.ToolParameter
	Run(ctx context.Context, args map[string]any) (string, error)
}

// ExpandableTool publishes a flat list of child Tools at registration time
// instead of being invocable itself — it is a factory, not a callable. The
// registry never dispatches to an ExpandableTool directly; it registers each
// of SubTools() under its own name.
type ExpandableTool interface {
	Name() string
	SubTools() []Tool
}

// Func is the function-valued second variant a Registry accepts: equivalent
// to a Tool with a single required "input" string parameter.
type Func func(ctx context.Context, input string) (string, error)

// funcParameters is the fixed parameter list every registered Func is
// described with.
func funcParameters() []chat.ToolParameter {
	return []chat.ToolParameter{
		{Name: "input", Type: chat.ParamString, Description: "free-form input", Required: true},
	}
}
