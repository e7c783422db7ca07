package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillhive/agentcore/pkg/chat"
	"github.com/quillhive/agentcore/pkg/llm"
	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/memory/semantic"
	"github.com/quillhive/agentcore/pkg/tools"
)

// KeywordExtractor pulls a handful of search terms out of raw user input.
// The default is whitespace split with a stop-token filter; Chinese
// deployments inject a dictionary or statistical tokenizer (spec §4.10).
type KeywordExtractor func(text string) []string

var defaultStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "and": true, "or": true, "of": true, "to": true, "in": true,
	"on": true, "for": true, "it": true, "this": true, "that": true, "i": true,
	"you": true, "what": true, "how": true, "do": true, "does": true,
}

// DefaultKeywordExtractor splits on whitespace, lowercases, strips
// punctuation, drops stopwords and short tokens, and returns up to 3 terms.
func DefaultKeywordExtractor(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if len(f) < 3 || defaultStopwords[f] {
			continue
		}
		out = append(out, f)
		if len(out) == 3 {
			break
		}
	}
	return out
}

var knowledgeIndicatorPhrases = []string{
	"is defined as", "the definition of", "in general,", "as a rule,",
	"the concept of", "refers to",
}

var conversationImportanceKeywords = []string{
	"important", "critical", "remember", "note that", "keep in mind",
}

// MemoryAgentConfig bundles the tunables spec §4.10 names.
type MemoryAgentConfig struct {
	SystemPrompt                    string
	TopK                            int
	RagMinScore                     float64
	ConversationImportanceThreshold float64
	UserID                          string
	SessionID                       string
	EnableTools                     bool
	KeywordExtractor                KeywordExtractor
}

// MemoryAgent composes the memory manager with the tool-calling loop,
// following retrieve→augment→invoke→write-back each turn (spec §4.10).
type MemoryAgent struct {
	Base

	Manager      *memory.Manager
	SemanticTier *semantic.Tier // nil if entity search is unavailable

	Provider llm.Provider
	Executor *tools.Executor
	Registry *tools.Registry

	cfg  MemoryAgentConfig
	turn int
}

// NewMemoryAgent wires a Manager, an optional semantic tier handle for
// entity search, and an LLM provider/tool registry into one agent.
func NewMemoryAgent(manager *memory.Manager, semanticTier *semantic.Tier, provider llm.Provider, registry *tools.Registry, cfg MemoryAgentConfig) *MemoryAgent {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.KeywordExtractor == nil {
		cfg.KeywordExtractor = DefaultKeywordExtractor
	}
	return &MemoryAgent{
		Base:     NewBase(defaultMaxHistoryLength),
		Manager:  manager,
		SemanticTier: semanticTier,
		Provider: provider,
		Executor: tools.NewExecutor(registry),
		Registry: registry,
		cfg:      cfg,
	}
}

// Run executes one turn: retrieve, augment, invoke, write back.
func (a *MemoryAgent) Run(ctx context.Context, userInput string) (string, error) {
	a.turn++

	memories := a.Manager.Retrieve(ctx, userInput, a.cfg.TopK, memory.RetrieveFilter{
		UserID:        a.cfg.UserID,
		MinImportance: a.cfg.RagMinScore,
	})

	var entities []memory.Entity
	if a.SemanticTier != nil {
		for _, kw := range a.cfg.KeywordExtractor(userInput) {
			hits, err := a.SemanticTier.SearchEntities(ctx, kw, nil, 3)
			if err != nil {
				a.Logger.Error("memory-agent: entity search failed, continuing without it", "keyword", kw, "err", err)
				continue
			}
			entities = append(entities, hits...)
		}
	}

	systemPrompt := a.buildSystemPrompt(memories, entities)

	messages := make([]chat.Message, 0, len(a.History)+2)
	messages = append(messages, chat.NewMessage(chat.RoleSystem, systemPrompt))
	messages = append(messages, a.History...)
	messages = append(messages, chat.NewMessage(chat.RoleUser, userInput))

	finalText, err := a.invoke(ctx, messages)
	if err != nil {
		return "", err
	}

	a.writeBack(ctx, userInput, finalText)

	a.AppendHistory(chat.NewMessage(chat.RoleUser, userInput))
	a.AppendHistory(chat.NewMessage(chat.RoleAssistant, finalText))

	return finalText, nil
}

func (a *MemoryAgent) invoke(ctx context.Context, messages []chat.Message) (string, error) {
	if !a.cfg.EnableTools {
		resp, err := a.Provider.Complete(ctx, llm.CompleteRequest{Messages: messages})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}

	loop := NewToolCallingLoop(a.Provider, a.Executor, a.Registry.Schemas(), defaultMaxSteps)
	result, err := loop.Run(ctx, messages)
	if err != nil {
		return "", err
	}
	return result.FinalText, nil
}

// buildSystemPrompt assembles base + tool descriptions (text-protocol mode
// only — native mode relies on the wire-level tools field) + retrieved
// memories block + entities block (spec §4.10 step 2).
func (a *MemoryAgent) buildSystemPrompt(memories []memory.RetrievedItem, entities []memory.Entity) string {
	var b strings.Builder
	b.WriteString(a.cfg.SystemPrompt)

	if a.cfg.EnableTools && a.Registry != nil && !a.Provider.SupportsNativeToolCalling() {
		b.WriteString("\n\nAvailable tools:\n")
		b.WriteString(a.Registry.Describe())
		b.WriteString("\n\nTo call a tool, emit [[TOOL_CALL]]{\"name\":...,\"arguments\":{...}}[[/TOOL_CALL]].")
	}

	if len(memories) > 0 {
		b.WriteString("\n\nRelevant memories:\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- [%s, relevance=%.2f] %s\n", m.Tier, m.Score, m.Content)
		}
	}

	if len(entities) > 0 {
		b.WriteString("\nKnown entities:\n")
		for _, e := range entities {
			if desc, ok := e.Properties["description"].(string); ok && desc != "" {
				fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Type, desc)
			} else {
				fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.Type)
			}
		}
	}

	return b.String()
}

// conversationImportance scores a turn the same shape as
// memory.ScoreImportance, driven by length, question-mark presence, and
// importance keywords (spec §4.10 step 4).
func conversationImportance(userInput string) float64 {
	score := 0.5
	if len(userInput) > 50 {
		score += 0.1
	}
	if strings.Contains(userInput, "?") {
		score += 0.1
	}
	lower := strings.ToLower(userInput)
	for _, kw := range conversationImportanceKeywords {
		if strings.Contains(lower, kw) {
			score += 0.4
			break
		}
	}
	return memory.ClampImportance(score)
}

func containsKnowledgeIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range knowledgeIndicatorPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// writeBack stores the user input as episodic and, if warranted, the
// assistant response as semantic (spec §4.10 step 4). Failures are logged,
// not propagated — a failed write-back must not fail the turn.
func (a *MemoryAgent) writeBack(ctx context.Context, userInput, assistantText string) {
	importance := conversationImportance(userInput)
	if importance < a.cfg.ConversationImportanceThreshold {
		return
	}

	_, err := a.Manager.Add(ctx, userInput, memory.AddOptions{
		Type:       memory.TypeEpisodic,
		UserID:     a.cfg.UserID,
		SessionID:  a.cfg.SessionID,
		Importance: &importance,
		Metadata:   map[string]any{"turn": a.turn},
	})
	if err != nil {
		a.Logger.Error("memory-agent: episodic write-back failed", "err", err)
	}

	if containsKnowledgeIndicator(assistantText) {
		semanticImportance := memory.ClampImportance(importance * 0.8)
		_, err := a.Manager.Add(ctx, assistantText, memory.AddOptions{
			Type:       memory.TypeSemantic,
			UserID:     a.cfg.UserID,
			Importance: &semanticImportance,
			Metadata:   map[string]any{"turn": a.turn},
		})
		if err != nil {
			a.Logger.Error("memory-agent: semantic write-back failed", "err", err)
		}
	}
}
