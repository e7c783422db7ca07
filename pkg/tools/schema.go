package tools

import (
	"fmt"

	"github.com/quillhive/agentcore/pkg/chat"
)

// FunctionSchema is the native function-calling schema shape used by
// OpenAI-compatible and Anthropic-compatible chat APIs, per spec §6:
// {type:"function", function:{name, description, parameters:{...}}}.
type FunctionSchema struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec is the inner "function" object of a FunctionSchema.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ParametersSpec `json:"parameters"`
}

// ParametersSpec is a JSON-Schema-shaped object describing a tool's
// arguments.
type ParametersSpec struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySpec   `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySpec describes one parameter within ParametersSpec.Properties.
type PropertySpec struct {
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Items       *ItemsSpec   `json:"items,omitempty"`
}

// ItemsSpec describes the element type of an array parameter. buildSchema
// always sets Items.Type to "string" for array parameters; ToolParameter has
// no field for choosing another element type.
type ItemsSpec struct {
	Type string `json:"type"`
}

// buildSchema renders a FunctionSchema from a tool's name/description and
// its ToolParameter list.
func buildSchema(name, description string, params []chat.ToolParameter) FunctionSchema {
	props := make(map[string]PropertySpec, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		desc := p.Description
		if p.Default != nil {
			desc = fmt.Sprintf("%s (default: %v)", desc, p.Default)
		}

		prop := PropertySpec{
			Type:        string(p.Type),
			Description: desc,
		}
		if p.Type == chat.ParamArray {
			prop.Items = &ItemsSpec{Type: "string"}
		}
		props[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	return FunctionSchema{
		Type: "function",
		Function: FunctionSpec{
			Name:        name,
			Description: description,
			Parameters: ParametersSpec{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
		},
	}
}
