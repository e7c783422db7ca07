package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCollection_CreatesWhenAbsent(t *testing.T) {
	var created bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created = true
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]any)
			assert.Equal(t, float64(8), vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer ts.Close()

	c := New(ts.URL, "mem", "", 0)
	err := c.EnsureCollection(context.Background(), 8, DistanceCosine)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestEnsureCollection_NoOpWhenPresent(t *testing.T) {
	var putCalled bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			putCalled = true
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(ts.URL, "mem", "", 0)
	err := c.EnsureCollection(context.Background(), 8, DistanceCosine)
	require.NoError(t, err)
	assert.False(t, putCalled)
}

func TestUpsertAndSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"result":[{"id":"a","score":0.9,"payload":{"content":"hello"}}]}`))
		}
	}))
	defer ts.Close()

	c := New(ts.URL, "mem", "", 0)
	err := c.Upsert(context.Background(), []Point{{ID: "a", Vector: []float32{0.1, 0.2}, Payload: map[string]any{"content": "hello"}}})
	require.NoError(t, err)

	hits, err := c.Search(context.Background(), []float32{0.1, 0.2}, 5, nil, &Filter{Equals: map[string]any{"memory_type": "episodic"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, 0.9, hits[0].Score)
	assert.Equal(t, "hello", hits[0].Payload["content"])
}

func TestDeleteByIdsEmptyIsNoRequest(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(ts.URL, "mem", "", 0)
	err := c.DeleteByIds(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDeleteByFilterUsesOrOfEqualities(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		filter := body["filter"].(map[string]any)
		should := filter["should"].([]any)
		require.Len(t, should, 1)
		clause := should[0].(map[string]any)
		assert.Equal(t, "memory_id", clause["key"])
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(ts.URL, "mem", "", 0)
	err := c.DeleteByFilter(context.Background(), "memory_id", []any{"id-1", "id-2"})
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := New(ts.URL, "mem", "", 0)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestHealthCheck_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "mem", "", 0)
	assert.Error(t, c.HealthCheck(context.Background()))
}
