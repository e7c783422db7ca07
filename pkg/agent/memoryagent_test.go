package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhive/agentcore/pkg/chat"
	"github.com/quillhive/agentcore/pkg/llm"
	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/memory/episodic"
	"github.com/quillhive/agentcore/pkg/memory/semantic"
	"github.com/quillhive/agentcore/pkg/memory/working"
	"github.com/quillhive/agentcore/pkg/tools"
)

func newTestMemoryAgent(t *testing.T, responses []llm.CompleteResponse, threshold float64) (*MemoryAgent, *memory.Manager) {
	t.Helper()
	w := working.New(100, time.Hour)
	e := episodic.New(nil, nil, 100, "")
	s := semantic.New(nil, nil, nil, 100)
	mgr := memory.NewManager(w, e, s)

	provider := &scriptedProvider{name: "mock", native: false, responses: responses}
	registry := tools.NewRegistry()

	cfg := MemoryAgentConfig{
		SystemPrompt:                    "you are an assistant",
		UserID:                          "u1",
		SessionID:                       "s1",
		ConversationImportanceThreshold: threshold,
	}
	return NewMemoryAgent(mgr, s, provider, registry, cfg), mgr
}

// Scenario F — write-back threshold.
func TestRun_WriteBackThreshold_ShortUtteranceYieldsNoRecord(t *testing.T) {
	agent, mgr := newTestMemoryAgent(t, []llm.CompleteResponse{{Content: "hello"}}, 0.9)

	reply, err := agent.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)

	all := mgr.Retrieve(context.Background(), "hi", 10, memory.RetrieveFilter{})
	assert.Empty(t, all)
}

func TestRun_WriteBackThreshold_ImportantUtteranceYieldsEpisodicAndSemantic(t *testing.T) {
	agent, mgr := newTestMemoryAgent(t, []llm.CompleteResponse{
		{Content: "Gravity is defined as the force that attracts mass."},
	}, 0.9)

	_, err := agent.Run(context.Background(), "remember this: gravity pulls things down")
	require.NoError(t, err)

	hits := mgr.Retrieve(context.Background(), "gravity", 10, memory.RetrieveFilter{UserID: "u1"})
	require.NotEmpty(t, hits)

	var sawEpisodic, sawSemantic bool
	for _, h := range hits {
		switch h.Tier {
		case memory.TypeEpisodic:
			sawEpisodic = true
		case memory.TypeSemantic:
			sawSemantic = true
		}
	}
	assert.True(t, sawEpisodic)
	assert.True(t, sawSemantic)
}

func TestConversationImportance_ClampedToUnitInterval(t *testing.T) {
	score := conversationImportance("remember this critically important thing, is it urgent?")
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestDefaultKeywordExtractor_DropsStopwordsAndShortTokens(t *testing.T) {
	kws := DefaultKeywordExtractor("What is the capital of France?")
	assert.Contains(t, kws, "capital")
	assert.Contains(t, kws, "france")
	assert.NotContains(t, kws, "the")
}

func TestAppendHistory_AfterRun(t *testing.T) {
	agent, _ := newTestMemoryAgent(t, []llm.CompleteResponse{{Content: "hello"}}, 0.9)

	_, err := agent.Run(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, agent.History, 2)
	assert.Equal(t, chat.RoleUser, agent.History[0].Role)
	assert.Equal(t, chat.RoleAssistant, agent.History[1].Role)
}
