package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/memory/episodic"
	"github.com/quillhive/agentcore/pkg/memory/semantic"
	"github.com/quillhive/agentcore/pkg/memory/working"
)

func newTestManager() (*memory.Manager, memory.Tier, memory.Tier, memory.Tier) {
	w := working.New(100, time.Hour)
	e := episodic.New(nil, nil, 100, "")
	s := semantic.New(nil, nil, nil, 100)
	return memory.NewManager(w, e, s), w, e, s
}

func TestClassifyType(t *testing.T) {
	assert.Equal(t, memory.TypeEpisodic, memory.ClassifyType("I remember what happened yesterday"))
	assert.Equal(t, memory.TypeSemantic, memory.ClassifyType("The definition of a rule is..."))
	assert.Equal(t, memory.TypeWorking, memory.ClassifyType("What's the weather like"))
}

func TestScoreImportance_ClampedToUnitInterval(t *testing.T) {
	score := memory.ScoreImportance("short", map[string]any{"priority": "high"})
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)

	score = memory.ScoreImportance("short", map[string]any{"priority": "low"})
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestAdd_AutoClassifiesAndClampsImportance(t *testing.T) {
	m, _, _, _ := newTestManager()
	ctx := context.Background()

	item, err := m.Add(ctx, "remember this: the meeting is tomorrow", memory.AddOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, memory.TypeEpisodic, item.Type)
	assert.GreaterOrEqual(t, item.Importance, 0.0)
	assert.LessOrEqual(t, item.Importance, 1.0)
}

func TestRetrieve_FansOutAcrossTiersAndSortsByImportance(t *testing.T) {
	m, _, _, _ := newTestManager()
	ctx := context.Background()

	imp := 0.9
	_, _ = m.Add(ctx, "urgent task item", memory.AddOptions{Type: memory.TypeWorking, UserID: "u1", Importance: &imp})
	low := 0.2
	_, _ = m.Add(ctx, "task follow-up episodic note", memory.AddOptions{Type: memory.TypeEpisodic, UserID: "u1", Importance: &low})

	hits := m.Retrieve(ctx, "task", 5, memory.RetrieveFilter{UserID: "u1"})
	require.NotEmpty(t, hits)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Importance, hits[i].Importance)
	}
}

func TestConsolidate_MovesAboveThresholdAndBoostsImportance(t *testing.T) {
	m, w, _, s := newTestManager()
	ctx := context.Background()

	imp := 0.8
	_, err := m.Add(ctx, "important working fact worth keeping", memory.AddOptions{Type: memory.TypeWorking, UserID: "u1", Importance: &imp})
	require.NoError(t, err)

	moved, err := m.Consolidate(ctx, memory.TypeWorking, memory.TypeSemantic, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 0.88, all[0].Importance, 0.001)
	assert.Equal(t, "working", all[0].Metadata["consolidatedFrom"])

	workingAll, err := w.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, workingAll)
}

func TestStats_ReportsCountsPerEnabledTier(t *testing.T) {
	m, _, _, _ := newTestManager()
	ctx := context.Background()

	_, err := m.Add(ctx, "a working fact", memory.AddOptions{Type: memory.TypeWorking, UserID: "u1"})
	require.NoError(t, err)

	stats := m.Stats(ctx)
	require.Contains(t, stats, memory.TypeWorking)
	require.Contains(t, stats, memory.TypeEpisodic)
	require.Contains(t, stats, memory.TypeSemantic)
	assert.Equal(t, 1, stats[memory.TypeWorking].Count)
}

func TestConsolidate_ZeroThresholdDefaultsToPointSeven(t *testing.T) {
	m, _, _, _ := newTestManager()
	ctx := context.Background()

	high, low := 0.8, 0.6
	_, err := m.Add(ctx, "clears the default threshold", memory.AddOptions{Type: memory.TypeWorking, UserID: "u1", Importance: &high})
	require.NoError(t, err)
	_, err = m.Add(ctx, "stays below the default threshold", memory.AddOptions{Type: memory.TypeWorking, UserID: "u1", Importance: &low})
	require.NoError(t, err)

	moved, err := m.Consolidate(ctx, memory.TypeWorking, memory.TypeSemantic, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
}
