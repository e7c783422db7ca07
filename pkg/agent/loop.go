package agent

import (
	"context"
	"time"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/chat"
	"github.com/quillhive/agentcore/pkg/llm"
	"github.com/quillhive/agentcore/pkg/tools"
)

const defaultMaxSteps = 5

// Step is one iteration of the tool-calling loop's trace (spec §3/§8,
// invariant 1): the model's text for that step plus the calls it requested
// and the results returned, in matching order.
type Step struct {
	Index     int
	Content   string
	ToolCalls []chat.ToolCallRequest
	Results   []chat.ToolCallResult
}

// RunResult is what ToolCallingLoop.Run returns (spec §4.3).
type RunResult struct {
	FinalText       string
	Trace           []Step
	StepsUsed       int
	ReachedMaxSteps bool
}

// ToolCallingLoop drives the model↔tool dialogue to a fixed point or a step
// cap (spec §4.3).
type ToolCallingLoop struct {
	Base

	Provider  llm.Provider
	Executor  *tools.Executor
	Tools     []tools.FunctionSchema
	MaxSteps  int
	NativeMode bool
}

// NewToolCallingLoop constructs a loop. Native-mode is decided by the
// provider's own capability unless the caller overrides it.
func NewToolCallingLoop(provider llm.Provider, executor *tools.Executor, toolSchemas []tools.FunctionSchema, maxSteps int) *ToolCallingLoop {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	return &ToolCallingLoop{
		Base:       NewBase(defaultMaxHistoryLength),
		Provider:   provider,
		Executor:   executor,
		Tools:      toolSchemas,
		MaxSteps:   maxSteps,
		NativeMode: provider.SupportsNativeToolCalling(),
	}
}

// Run executes the fixed-point algorithm over the given working message
// list (spec §4.3). It works on its own copy and does not mutate messages;
// RunResult.Trace records each step's content, tool calls and results.
func (l *ToolCallingLoop) Run(ctx context.Context, messages []chat.Message) (RunResult, error) {
	working := append([]chat.Message(nil), messages...)
	var trace []Step

	for step := 1; step <= l.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return RunResult{Trace: trace, StepsUsed: len(trace)}, agenterr.Wrap(agenterr.KindCancelled, "tool-calling loop cancelled between steps", err)
		}

		content, toolCalls, reqs, err := l.invoke(ctx, working, true)
		if err != nil {
			return RunResult{Trace: trace, StepsUsed: len(trace)}, agenterr.Wrap(agenterr.KindModelCall, "model invocation failed", err)
		}

		if len(reqs) == 0 {
			trace = append(trace, Step{Index: step, Content: content})
			return RunResult{FinalText: content, Trace: trace, StepsUsed: step, ReachedMaxSteps: false}, nil
		}

		if err := ctx.Err(); err != nil {
			return RunResult{Trace: trace, StepsUsed: len(trace)}, agenterr.Wrap(agenterr.KindCancelled, "tool-calling loop cancelled before tool execution", err)
		}

		assistantMsg := chat.Message{Role: chat.RoleAssistant, Content: content, Timestamp: time.Now()}
		if l.NativeMode {
			assistantMsg.ToolCalls = toolCalls
		}
		working = append(working, assistantMsg)

		results := l.Executor.ExecuteAll(ctx, reqs)

		if l.NativeMode {
			for _, r := range results {
				working = append(working, tools.FormatNativeResult(r))
			}
		} else {
			var formatted string
			for _, r := range results {
				formatted += tools.FormatTextResult(r) + "\n"
			}
			formatted += "Continue the conversation using the tool results above."
			working = append(working, chat.NewMessage(chat.RoleUser, formatted))
		}

		trace = append(trace, Step{Index: step, Content: content, ToolCalls: reqs, Results: results})
	}

	finalText, err := l.forceFinalAnswer(ctx, working)
	if err != nil {
		return RunResult{Trace: trace, StepsUsed: len(trace)}, agenterr.Wrap(agenterr.KindModelCall, "forced final completion failed", err)
	}
	return RunResult{FinalText: finalText, Trace: trace, StepsUsed: l.MaxSteps, ReachedMaxSteps: true}, nil
}

// invoke calls the model once and extracts (text, native tool calls,
// parsed ToolCallRequests). withTools controls whether tool schemas/auto
// choice are attached in native mode.
func (l *ToolCallingLoop) invoke(ctx context.Context, messages []chat.Message, withTools bool) (string, []chat.ToolCall, []chat.ToolCallRequest, error) {
	req := llm.CompleteRequest{Messages: messages}
	if l.NativeMode && withTools {
		req.Tools = l.Tools
		req.ToolChoice = llm.ToolChoiceAuto
	}

	resp, err := l.Provider.Complete(ctx, req)
	if err != nil {
		return "", nil, nil, err
	}

	if l.NativeMode {
		return resp.Content, resp.ToolCalls, l.Executor.ParseNativeIntents(resp.ToolCalls), nil
	}
	return resp.Content, nil, l.Executor.ParseTextIntents(resp.Content), nil
}

// forceFinalAnswer issues one last model call designed to produce plain
// text with no further tool calls: tool_choice="none" in native mode, a
// plain completion (no tools attached) in text mode.
func (l *ToolCallingLoop) forceFinalAnswer(ctx context.Context, messages []chat.Message) (string, error) {
	req := llm.CompleteRequest{Messages: messages}
	if l.NativeMode {
		req.Tools = l.Tools
		req.ToolChoice = llm.ToolChoiceNone
	}
	resp, err := l.Provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
