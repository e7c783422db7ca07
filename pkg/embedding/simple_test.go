package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleEmbedder_Deterministic(t *testing.T) {
	e := NewSimpleEmbedder(32)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestSimpleEmbedder_DifferentTextDiffersVector(t *testing.T) {
	e := NewSimpleEmbedder(32)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "the quick brown fox")
	b, _ := e.Embed(ctx, "a completely different sentence")

	assert.NotEqual(t, a, b)
}

func TestSimpleEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e := NewSimpleEmbedder(16)
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestSimpleEmbedder_EmbedBatchMatchesEmbed(t *testing.T) {
	e := NewSimpleEmbedder(16)
	ctx := context.Background()

	single, _ := e.Embed(ctx, "batch consistency check")
	batch, err := e.EmbedBatch(ctx, []string{"batch consistency check"})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, single, batch[0])
}

func TestSimpleEmbedder_DefaultsDimensionsWhenNonPositive(t *testing.T) {
	e := NewSimpleEmbedder(0)
	assert.Equal(t, 64, e.Dimensions())
}
