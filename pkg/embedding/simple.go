package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// SimpleEmbedder backs EMBED_MODEL_TYPE=simple: a deterministic, offline,
// hash-based bag-of-words vector. It has no network dependency and no
// semantic quality to speak of — it exists so the memory tiers and vector
// store adapter are exercisable in tests and offline demos without a live
// embeddings API.
type SimpleEmbedder struct {
	dimensions int
}

// NewSimpleEmbedder constructs a SimpleEmbedder producing vectors of the
// given dimensionality.
func NewSimpleEmbedder(dimensions int) *SimpleEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &SimpleEmbedder{dimensions: dimensions}
}

func (e *SimpleEmbedder) Dimensions() int { return e.dimensions }

func (e *SimpleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashEmbed(text, e.dimensions), nil
}

func (e *SimpleEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t, e.dimensions)
	}
	return out, nil
}

// hashEmbed buckets each word of text into one of n dimensions by FNV-1a
// hash and accumulates a signed weight, then L2-normalizes the result so
// cosine similarity search behaves sanely.
func hashEmbed(text string, n int) []float32 {
	vec := make([]float32, n)
	words := strings.Fields(strings.ToLower(text))

	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum32()

		bucket := int(sum % uint32(n))
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
