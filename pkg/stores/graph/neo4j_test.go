package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertEntity_SendsMergeStatement(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"results":[{"columns":[],"data":[]}],"errors":[]}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "", "", "")
	err := c.UpsertEntity(context.Background(), Entity{ID: "e1", Name: "Alice", Type: "person"})
	require.NoError(t, err)

	statements := captured["statements"].([]any)
	require.Len(t, statements, 1)
	stmt := statements[0].(map[string]any)
	assert.Contains(t, stmt["statement"], "MERGE (e:Entity")
}

func TestUpsertRelation_RejectsInvalidType(t *testing.T) {
	c := New("http://unused", "", "", "")
	err := c.UpsertRelation(context.Background(), Relation{FromID: "a", ToID: "b", Type: "not a valid type!"})
	assert.Error(t, err)
}

func TestUpsertRelation_SanitizesAndSendsType(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"results":[{"columns":[],"data":[]}],"errors":[]}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "", "", "")
	err := c.UpsertRelation(context.Background(), Relation{FromID: "a", ToID: "b", Type: "knows"})
	require.NoError(t, err)

	statements := captured["statements"].([]any)
	stmt := statements[0].(map[string]any)
	assert.Contains(t, stmt["statement"], "KNOWS")
}

func TestFindRelatedEntities_ParsesRows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [{
				"columns": ["other", "dist", "relTypes"],
				"data": [{"row": [{"id":"e2","name":"Bob","type":"person"}, 2, ["KNOWS", "WORKS_WITH"]]}]
			}],
			"errors": []
		}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "", "", "")
	related, err := c.FindRelatedEntities(context.Background(), "e1", 3, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "e2", related[0].Entity.ID)
	assert.Equal(t, "Bob", related[0].Entity.Name)
	assert.Equal(t, 2, related[0].Distance)
	assert.Equal(t, []string{"KNOWS", "WORKS_WITH"}, related[0].RelationshipPath)
}

func TestSearchEntities_ParsesRows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [{
				"columns": ["e"],
				"data": [{"row": [{"id":"e3","name":"Carol","type":"person"}]}]
			}],
			"errors": []
		}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "", "", "")
	entities, err := c.SearchEntities(context.Background(), "car", []string{"person"}, 5)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Carol", entities[0].Name)
}

func TestExecCypher_SurfacesServerErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"errors":[{"code":"Neo.ClientError","message":"bad query"}]}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "", "", "")
	_, err := c.ExecCypher(context.Background(), "MATCH (n) RETURN n", nil)
	assert.Error(t, err)
}
