package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhive/agentcore/pkg/chat"
)

func newTestExecutor() *Executor {
	r := NewRegistry()
	r.RegisterTool(NewCalculatorTool())
	return NewExecutor(r)
}

func TestExecutor_ParseTextIntents_JSONBlock(t *testing.T) {
	e := newTestExecutor()
	text := `here you go [[TOOL_CALL]]{"name":"calculator","arguments":{"expression":"1+1"}}[[/TOOL_CALL]] thanks`

	reqs := e.ParseTextIntents(text)
	require.Len(t, reqs, 1)
	assert.Equal(t, "calculator", reqs[0].Name)
	assert.Equal(t, "1+1", reqs[0].Arguments["expression"])
	assert.NotEmpty(t, reqs[0].ID)
}

func TestExecutor_ParseTextIntents_MalformedJSONYieldsZeroCalls(t *testing.T) {
	e := newTestExecutor()
	text := `[[TOOL_CALL]]{not valid json[[/TOOL_CALL]]`

	reqs := e.ParseTextIntents(text)
	assert.Empty(t, reqs, "malformed JSON block must never throw, and must yield zero calls")
}

func TestExecutor_ParseTextIntents_LegacyKeyValue(t *testing.T) {
	e := newTestExecutor()
	text := `[TOOL_CALL:calculator:a=1,b=true,c=hi]`

	reqs := e.ParseTextIntents(text)
	require.Len(t, reqs, 1)
	assert.Equal(t, "calculator", reqs[0].Name)
	assert.Equal(t, float64(1), reqs[0].Arguments["a"])
	assert.Equal(t, true, reqs[0].Arguments["b"])
	assert.Equal(t, "hi", reqs[0].Arguments["c"])
}

func TestExecutor_ParseTextIntents_LegacyFreeString(t *testing.T) {
	e := newTestExecutor()
	text := `[TOOL_CALL:search:what is the weather]`

	reqs := e.ParseTextIntents(text)
	require.Len(t, reqs, 1)
	assert.Equal(t, "what is the weather", reqs[0].Arguments["input"])
	assert.Equal(t, "what is the weather", reqs[0].Arguments["query"])
	assert.Equal(t, "what is the weather", reqs[0].Arguments["expression"])
}

func TestExecutor_ParseTextIntents_JSONTakesPrecedenceOverLegacy(t *testing.T) {
	e := newTestExecutor()
	text := `[[TOOL_CALL]]{"name":"calculator","arguments":{"expression":"2+2"}}[[/TOOL_CALL]] [TOOL_CALL:search:ignored]`

	reqs := e.ParseTextIntents(text)
	require.Len(t, reqs, 1)
	assert.Equal(t, "calculator", reqs[0].Name)
}

func TestExecutor_ParseNativeIntents(t *testing.T) {
	e := newTestExecutor()
	calls := []chat.ToolCall{
		{ID: "call_1", Name: "calculator", Arguments: `{"expression":"3*3"}`},
	}

	reqs := e.ParseNativeIntents(calls)
	require.Len(t, reqs, 1)
	assert.Equal(t, "call_1", reqs[0].ID)
	assert.Equal(t, "9", mustEval(t, e, reqs[0]))
}

func mustEval(t *testing.T, e *Executor, req chat.ToolCallRequest) string {
	t.Helper()
	res := e.Execute(context.Background(), req)
	require.True(t, res.Success, res.Error)
	return res.Output
}

func TestExecutor_ExecuteAllPreservesOrder(t *testing.T) {
	e := newTestExecutor()
	reqs := []chat.ToolCallRequest{
		{ID: "1", Name: "calculator", Arguments: map[string]any{"expression": "1+1"}},
		{ID: "2", Name: "calculator", Arguments: map[string]any{"expression": "2+2"}},
	}

	results := e.ExecuteAll(context.Background(), reqs)
	require.Len(t, results, 2)
	assert.Equal(t, "2", results[0].Output)
	assert.Equal(t, "4", results[1].Output)
}

func TestExecutor_ExecuteUnknownToolIsNotSuccess(t *testing.T) {
	e := newTestExecutor()
	res := e.Execute(context.Background(), chat.ToolCallRequest{ID: "1", Name: "nonexistent"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestFormatNativeResult(t *testing.T) {
	msg := FormatNativeResult(chat.ToolCallResult{ID: "1", Name: "calculator", Output: "4", Success: true})
	assert.Equal(t, chat.RoleTool, msg.Role)
	assert.Equal(t, "4", msg.Content)
	assert.Equal(t, "1", msg.ToolCallID)
}
