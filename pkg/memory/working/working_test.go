package working

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhive/agentcore/pkg/memory"
)

func TestAdd_EvictsOldestOnOverflow(t *testing.T) {
	tier := New(2, time.Hour)
	ctx := context.Background()

	first, err := tier.Add(ctx, memory.NewItem("first", memory.TypeWorking, "u1", 0.5, nil))
	require.NoError(t, err)
	_, err = tier.Add(ctx, memory.NewItem("second", memory.TypeWorking, "u1", 0.5, nil))
	require.NoError(t, err)
	_, err = tier.Add(ctx, memory.NewItem("third", memory.TypeWorking, "u1", 0.5, nil))
	require.NoError(t, err)

	all, err := tier.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, item := range all {
		assert.NotEqual(t, first.ID, item.ID)
	}
}

func TestRetrieve_FiltersSortsAndTruncates(t *testing.T) {
	tier := New(100, time.Hour)
	ctx := context.Background()

	_, _ = tier.Add(ctx, memory.NewItem("alpha notes", memory.TypeWorking, "u1", 0.2, nil))
	_, _ = tier.Add(ctx, memory.NewItem("alpha report", memory.TypeWorking, "u1", 0.9, nil))
	_, _ = tier.Add(ctx, memory.NewItem("beta notes", memory.TypeWorking, "u2", 0.7, nil))

	hits, err := tier.Retrieve(ctx, "alpha", memory.RetrieveFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alpha report", hits[0].Content)
}

func TestRetrieve_HidesExpiredButStatsCountsTotal(t *testing.T) {
	tier := New(100, time.Millisecond)
	ctx := context.Background()

	_, err := tier.Add(ctx, memory.NewItem("soon gone", memory.TypeWorking, "u1", 0.5, nil))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	hits, err := tier.Retrieve(ctx, "", memory.RetrieveFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)

	stats, err := tier.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 1, stats.TotalCount)
}

func TestForget_ImportanceBased(t *testing.T) {
	tier := New(100, time.Hour)
	ctx := context.Background()

	_, _ = tier.Add(ctx, memory.NewItem("low", memory.TypeWorking, "u1", 0.1, nil))
	_, _ = tier.Add(ctx, memory.NewItem("high", memory.TypeWorking, "u1", 0.9, nil))

	removed, err := tier.Forget(ctx, memory.ForgetPolicy{Kind: memory.ForgetImportanceBased, Threshold: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	all, err := tier.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "high", all[0].Content)
}

func TestForget_CapacityBased(t *testing.T) {
	tier := New(100, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = tier.Add(ctx, memory.NewItem("item", memory.TypeWorking, "u1", float64(i)/10.0, nil))
	}

	removed, err := tier.Forget(ctx, memory.ForgetPolicy{Kind: memory.ForgetCapacityBased, CapacityTarget: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	stats, err := tier.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
}
