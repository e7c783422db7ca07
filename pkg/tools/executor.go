package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quillhive/agentcore/pkg/chat"
)

var (
	jsonBlockPattern = regexp.MustCompile(`(?s)\[\[TOOL_CALL\]\]\s*(.*?)\s*\[\[/TOOL_CALL\]\]`)
	legacyCallPattern = regexp.MustCompile(`\[TOOL_CALL:(\w+):([^\]]*)\]`)
)

// jsonBlockBody is the shape of the JSON payload inside a [[TOOL_CALL]] block.
type jsonBlockBody struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Executor wraps a Registry with a call counter and implements the
// protocol-parsing / dispatch / formatting responsibilities of spec §4.2.
type Executor struct {
	Registry *Registry
	counter  int64
}

// NewExecutor constructs an Executor bound to the given Registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{Registry: registry}
}

// nextCallID generates a call id unique within this process:
// call_<timestamp>_<counter>.
func (e *Executor) nextCallID() string {
	n := atomic.AddInt64(&e.counter, 1)
	return fmt.Sprintf("call_%d_%d", time.Now().UnixNano(), n)
}

// ParseTextIntents extracts zero or more ToolCallRequests from a model's
// free-text response, trying the JSON-block protocol first and falling back
// to the legacy text protocol only if the former produced no results.
// ParseTextIntents is a total function: it never panics and always returns
// a (possibly empty) slice.
func (e *Executor) ParseTextIntents(text string) []chat.ToolCallRequest {
	if reqs := e.parseJSONBlocks(text); len(reqs) > 0 {
		return reqs
	}
	return e.parseLegacyBlocks(text)
}

func (e *Executor) parseJSONBlocks(text string) []chat.ToolCallRequest {
	matches := jsonBlockPattern.FindAllStringSubmatch(text, -1)
	reqs := make([]chat.ToolCallRequest, 0, len(matches))

	for _, m := range matches {
		var body jsonBlockBody
		if err := json.Unmarshal([]byte(m[1]), &body); err != nil {
			log.Warn("tool call JSON block failed to parse, skipping", "error", err)
			continue
		}
		if body.Name == "" {
			log.Warn("tool call JSON block missing name, skipping")
			continue
		}
		if body.Arguments == nil {
			body.Arguments = map[string]any{}
		}
		reqs = append(reqs, chat.ToolCallRequest{
			ID:        e.nextCallID(),
			Name:      body.Name,
			Arguments: body.Arguments,
		})
	}
	return reqs
}

func (e *Executor) parseLegacyBlocks(text string) []chat.ToolCallRequest {
	matches := legacyCallPattern.FindAllStringSubmatch(text, -1)
	reqs := make([]chat.ToolCallRequest, 0, len(matches))

	for _, m := range matches {
		name := m[1]
		args := parseLegacyParams(m[2])
		reqs = append(reqs, chat.ToolCallRequest{
			ID:        e.nextCallID(),
			Name:      name,
			Arguments: args,
		})
	}
	return reqs
}

// parseLegacyParams decodes the <params> portion of a legacy
// [TOOL_CALL:name:params] block: JSON if it starts with '{', else
// comma-separated key=value pairs with primitive parsing, else a single
// free-form string bound to input/query/expression.
func parseLegacyParams(raw string) map[string]any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return map[string]any{}
	}

	if strings.HasPrefix(s, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
		log.Warn("legacy tool call params looked like JSON but failed to parse", "params", s)
		return map[string]any{}
	}

	if strings.Contains(s, "=") {
		pairs := strings.Split(s, ",")
		m := make(map[string]any, len(pairs))
		for _, pair := range pairs {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			m[key] = parsePrimitive(strings.TrimSpace(kv[1]))
		}
		return m
	}

	return map[string]any{"input": s, "query": s, "expression": s}
}

// parsePrimitive decodes a single legacy param value: an unquoted numeric
// literal becomes a number, true/false (case-insensitive) becomes a bool,
// otherwise it stays a string.
func parsePrimitive(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

// ParseNativeIntents maps provider-supplied tool_calls onto
// ToolCallRequests, preserving the provider-issued id and decoding the raw
// JSON arguments string.
func (e *Executor) ParseNativeIntents(calls []chat.ToolCall) []chat.ToolCallRequest {
	reqs := make([]chat.ToolCallRequest, 0, len(calls))
	for _, c := range calls {
		args := map[string]any{}
		if strings.TrimSpace(c.Arguments) != "" {
			if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
				log.Warn("native tool call arguments failed to parse", "tool", c.Name, "error", err)
			}
		}
		reqs = append(reqs, chat.ToolCallRequest{ID: c.ID, Name: c.Name, Arguments: args})
	}
	return reqs
}

// Execute runs one request. Failures never propagate across the boundary —
// they become a ToolCallResult with Success=false.
func (e *Executor) Execute(ctx context.Context, req chat.ToolCallRequest) chat.ToolCallResult {
	output, err := e.Registry.Execute(ctx, req.Name, req.Arguments)
	if err != nil {
		return chat.ToolCallResult{ID: req.ID, Name: req.Name, Error: err.Error(), Success: false}
	}
	return chat.ToolCallResult{ID: req.ID, Name: req.Name, Output: output, Success: true}
}

// ExecuteAll runs a batch sequentially, in the order given, and returns one
// result per request in the same order. Cancellation is checked between
// calls, not just once for the whole batch: a context cancelled mid-batch
// short-circuits every remaining request with a Success=false result instead
// of running them.
func (e *Executor) ExecuteAll(ctx context.Context, reqs []chat.ToolCallRequest) []chat.ToolCallResult {
	results := make([]chat.ToolCallResult, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			results[i] = chat.ToolCallResult{ID: req.ID, Name: req.Name, Error: err.Error(), Success: false}
			continue
		}
		results[i] = e.Execute(ctx, req)
	}
	return results
}

// FormatNativeResult turns a result into the role:"tool" message expected by
// native-mode providers.
func FormatNativeResult(r chat.ToolCallResult) chat.Message {
	content := r.Output
	if !r.Success {
		content = "错误: " + r.Error
	}
	return chat.Message{
		Role:       chat.RoleTool,
		Content:    content,
		ToolCallID: r.ID,
		Timestamp:  time.Now(),
	}
}

// FormatTextResult renders a result as the free-text fragment used by the
// text protocol.
func FormatTextResult(r chat.ToolCallResult) string {
	if r.Success {
		return fmt.Sprintf("[工具 %s 返回]: %s", r.Name, r.Output)
	}
	return fmt.Sprintf("[工具 %s 执行失败]: %s", r.Name, r.Error)
}
