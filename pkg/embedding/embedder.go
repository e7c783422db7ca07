// Package embedding turns text into fixed-length vectors for the vector
// store adapter. EMBED_MODEL_TYPE selects the backend: "openai" or
// "dashscope" hit a real embeddings API, "simple" is an offline
// deterministic fallback with no network dependency.
package embedding

import "context"

// Embedder converts text to vectors. Dimensions must be constant for a
// given Embedder instance — the vector store's collection is created once
// with a fixed size.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
