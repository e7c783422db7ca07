package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhive/agentcore/pkg/chat"
)

func TestRegistry_RegisterToolAndExecute(t *testing.T) {
	r := NewRegistry()
	r.RegisterTool(NewCalculatorTool())

	assert.Equal(t, []string{"calculator"}, r.List())

	out, err := r.Execute(context.Background(), "calculator", map[string]any{"expression": "1 + 1"})
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestRegistry_RegisterFunc(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("echo", "echoes its input", func(_ context.Context, input string) (string, error) {
		return input, nil
	})

	out, err := r.Execute(context.Background(), "echo", map[string]any{"input": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRegistry_UnknownToolReturnsErrUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistry_DuplicateRegistrationOverwrites(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc("thing", "first", func(_ context.Context, _ string) (string, error) { return "first", nil })
	r.RegisterFunc("thing", "second", func(_ context.Context, _ string) (string, error) { return "second", nil })

	out, err := r.Execute(context.Background(), "thing", map[string]any{"input": ""})
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.RegisterTool(NewCalculatorTool())

	assert.True(t, r.Unregister("calculator"))
	assert.False(t, r.Unregister("calculator"))
	assert.Empty(t, r.List())
}

type panicTool struct{}

func (panicTool) Name() string                   { return "boom" }
func (panicTool) Description() string            { return "always panics" }
func (panicTool) Parameters() []chat.ToolParameter { return nil }
func (panicTool) Run(context.Context, map[string]any) (string, error) {
	panic("kaboom")
}

func TestRegistry_ExecuteRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.RegisterTool(panicTool{})

	_, err := r.Execute(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRegistry_Schemas(t *testing.T) {
	r := NewRegistry()
	r.RegisterTool(NewCalculatorTool())

	schemas := r.Schemas()
	require.Len(t, schemas, 1)
	assert.Equal(t, "function", schemas[0].Type)
	assert.Equal(t, "calculator", schemas[0].Function.Name)
	assert.Contains(t, schemas[0].Function.Parameters.Required, "input")
}
