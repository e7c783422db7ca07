package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// funcEntry wraps a registered Func with the description shown to the model.
type funcEntry struct {
	description string
	fn          Func
}

// Registry holds every Tool and Func the agent can dispatch by name. It is
// safe for concurrent use, per spec §5 (store clients are thread-safe; the
// registry holds no external resources of its own but callers may share one
// instance across goroutines).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	funcs map[string]funcEntry
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		funcs: make(map[string]funcEntry),
	}
}

// RegisterTool adds a Tool instance under its own Name(). A duplicate name
// overwrites the previous registration and emits a warning.
func (r *Registry) RegisterTool(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerToolLocked(t)
}

func (r *Registry) registerToolLocked(t Tool) {
	if r.exists(t.Name()) {
		log.Warn("tool registration overwrites existing entry", "name", t.Name())
	} else {
		log.Debug("tool registered", "name", t.Name())
	}
	r.tools[t.Name()] = t
}

// RegisterExpandable registers every sub-tool an ExpandableTool publishes.
// The expandable itself is never made invocable.
func (r *Registry) RegisterExpandable(et ExpandableTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range et.SubTools() {
		r.registerToolLocked(sub)
	}
}

// RegisterFunc registers a plain function as a single-parameter tool.
func (r *Registry) RegisterFunc(name, description string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exists(name) {
		log.Warn("tool registration overwrites existing entry", "name", name)
	} else {
		log.Debug("tool registered", "name", name)
	}
	r.funcs[name] = funcEntry{description: description, fn: fn}
}

// Unregister removes a tool or function by name. Reports whether anything
// was removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; ok {
		delete(r.tools, name)
		return true
	}
	if _, ok := r.funcs[name]; ok {
		delete(r.funcs, name)
		return true
	}
	return false
}

// exists reports whether name is already registered as either variant.
// Caller must hold r.mu.
func (r *Registry) exists(name string) bool {
	_, t := r.tools[name]
	_, f := r.funcs[name]
	return t || f
}

// Get returns the underlying Tool or Func registered under name.
func (r *Registry) Get(name string) (tool Tool, fn Func, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, exists := r.tools[name]; exists {
		return t, nil, true
	}
	if f, exists := r.funcs[name]; exists {
		return nil, f.fn, true
	}
	return nil, nil, false
}

// List returns the union of registered tool and function names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools)+len(r.funcs))
	for n := range r.tools {
		names = append(names, n)
	}
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe renders a multi-line natural-language summary of every
// registered tool, used to augment system prompts in text-protocol mode.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.tools) == 0 && len(r.funcs) == 0 {
		return "no tools available"
	}

	var lines []string
	for name, t := range r.tools {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, t.Description()))
	}
	for name, f := range r.funcs {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, f.description))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Schemas renders the native function-calling schema for every registered
// tool and function, in the format described by spec §6.
func (r *Registry) Schemas() []FunctionSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]FunctionSchema, 0, len(r.tools)+len(r.funcs))
	names := make([]string, 0, len(r.tools)+len(r.funcs))
	for n := range r.tools {
		names = append(names, n)
	}
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if t, ok := r.tools[n]; ok {
			schemas = append(schemas, buildSchema(n, t.Description(), t.Parameters()))
			continue
		}
		f := r.funcs[n]
		schemas = append(schemas, buildSchema(n, f.description, funcParameters()))
	}
	return schemas
}

// Execute dispatches a single call by name. An unknown name, an error from
// the underlying tool, or a panic in it (recovered here) comes back as the
// returned error; Executor.Execute turns that error into a failed
// ToolCallResult so the model can see and react to the failure (spec §4.1, §7).
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (output string, err error) {
	tool, fn, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool %q panicked: %v", name, rec)
		}
	}()

	if tool != nil {
		return tool.Run(ctx, args)
	}

	input, _ := args["input"].(string)
	return fn(ctx, input)
}
