package episodic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhive/agentcore/pkg/embedding"
	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/stores/vector"
)

func TestAdd_NoVectorStore_KeywordRetrieveWorks(t *testing.T) {
	tier := New(nil, nil, 10, "")
	ctx := context.Background()

	item, err := tier.Add(ctx, memory.NewItem("went to the park yesterday", memory.TypeEpisodic, "u1", 0.5, nil))
	require.NoError(t, err)
	assert.Equal(t, "default_session", item.SessionID)

	hits, err := tier.Retrieve(ctx, "park", memory.RetrieveFilter{Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "keyword", hits[0].Source)
}

func TestAdd_EvictsLowestImportanceOnOverflow(t *testing.T) {
	tier := New(nil, nil, 2, "")
	ctx := context.Background()

	_, _ = tier.Add(ctx, memory.NewItem("low", memory.TypeEpisodic, "u1", 0.1, nil))
	_, _ = tier.Add(ctx, memory.NewItem("high", memory.TypeEpisodic, "u1", 0.9, nil))
	_, _ = tier.Add(ctx, memory.NewItem("mid", memory.TypeEpisodic, "u1", 0.5, nil))

	all, err := tier.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, item := range all {
		assert.NotEqual(t, "low", item.Content)
	}
}

func TestRetrieve_VectorHitsHydrateFromPayloadWhenCacheDropped(t *testing.T) {
	var capturedID string
	var capturedPayload map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			var body struct {
				Points []struct {
					ID      string         `json:"id"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if len(body.Points) > 0 {
				capturedID = body.Points[0].ID
				capturedPayload = body.Points[0].Payload
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost:
			resp, _ := json.Marshal(map[string]any{
				"result": []map[string]any{
					{"id": capturedID, "score": 0.95, "payload": capturedPayload},
				},
			})
			_, _ = w.Write(resp)
		}
	}))
	defer ts.Close()

	vc := vector.New(ts.URL, "episodic", "", 0)
	embedder := embedding.NewSimpleEmbedder(8)
	tier := New(vc, embedder, 100, "s1")
	ctx := context.Background()

	item, err := tier.Add(ctx, memory.NewItem("Paris is the capital of France", memory.TypeEpisodic, "u1", 0.6, nil))
	require.NoError(t, err)

	// Simulate a process restart: drop the in-memory cache by using a
	// fresh tier pointed at the same vector collection.
	tier2 := New(vc, embedder, 100, "s1")
	hits, err := tier2.Retrieve(ctx, "capital of France", memory.RetrieveFilter{UserID: "u1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, item.ID, hits[0].ID)
	assert.Equal(t, "Paris is the capital of France", hits[0].Content)
	assert.Equal(t, "vector", hits[0].Source)
}
