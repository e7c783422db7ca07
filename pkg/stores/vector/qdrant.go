// Package vector is the vector store adapter (spec §4.8): collection
// management, upsert with payload, filtered ANN search, delete-by-id and
// delete-by-filter, durability, and health checks, against Qdrant's REST
// API. No Qdrant client SDK appears anywhere in this module's reference
// corpus, so — following the teacher's own pkg/memory/qdrant.go and
// pkg/stores/qdrant/qdrant.go — this talks to the HTTP API directly with
// net/http and encoding/json rather than inventing a dependency that isn't
// there.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quillhive/agentcore/pkg/agenterr"
)

// Distance is the ANN distance metric a collection is created with.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// IndexKind is the payload-field index type Qdrant supports for the
// filterable fields this module relies on.
type IndexKind string

const (
	IndexKeyword IndexKind = "keyword"
	IndexInteger IndexKind = "integer"
)

// Point is one upsertable vector with its durable payload. Payload is the
// restart-safe projection of whatever the caller considers canonical —
// the memory tiers store a flattened MemoryItem here.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is one Search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Filter expresses AND-composed equality constraints across payload
// fields, used by Search.
type Filter struct {
	Equals map[string]any
}

// Client wraps a Qdrant REST endpoint bound to one collection.
type Client struct {
	endpoint   string
	collection string
	apiKey     string
	httpClient *http.Client
}

// New returns a Client with sane defaults, mirroring the teacher's
// qdrant.New constructor.
func New(endpoint, collection, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		collection: collection,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/collections/%s%s", c.endpoint, c.collection, path)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, agenterr.Wrap(agenterr.KindStore, "failed to marshal qdrant request", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "failed to build qdrant request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "qdrant request failed", err)
	}
	return resp, nil
}

// EnsureCollection creates the collection if absent with the given vector
// size and distance metric. A no-op if the collection already exists.
func (c *Client) EnsureCollection(ctx context.Context, dim int, distance Distance) error {
	resp, err := c.do(ctx, http.MethodGet, "", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	if distance == "" {
		distance = DistanceCosine
	}
	createResp, err := c.do(ctx, http.MethodPut, "", map[string]any{
		"vectors": map[string]any{"size": dim, "distance": string(distance)},
	})
	if err != nil {
		return err
	}
	defer createResp.Body.Close()
	if createResp.StatusCode >= 300 {
		return agenterr.New(agenterr.KindStore, fmt.Sprintf("failed to create collection, status %s", createResp.Status))
	}
	log.Debug("qdrant collection created", "collection", c.collection, "dim", dim, "distance", distance)
	return nil
}

// CreatePayloadIndex creates a filterable index on one payload field. Safe
// to call repeatedly; Qdrant treats re-indexing the same field as a no-op.
func (c *Client) CreatePayloadIndex(ctx context.Context, field string, kind IndexKind) error {
	resp, err := c.do(ctx, http.MethodPut, "/index", map[string]any{
		"field_name":   field,
		"field_schema": string(kind),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return agenterr.New(agenterr.KindStore, fmt.Sprintf("failed to index field %q, status %s", field, resp.Status))
	}
	return nil
}

// Upsert writes points with explicit ids (preserved, never regenerated)
// and waits for durability before returning.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	wire := make([]map[string]any, 0, len(points))
	for _, p := range points {
		wire = append(wire, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}

	resp, err := c.do(ctx, http.MethodPut, "/points?wait=true", map[string]any{"points": wire})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return agenterr.New(agenterr.KindStore, fmt.Sprintf("qdrant upsert failed, status %s", resp.Status))
	}
	return nil
}

// Search runs a filtered ANN query against the collection.
func (c *Client) Search(ctx context.Context, vec []float32, k int, scoreThreshold *float64, filter *Filter) ([]ScoredPoint, error) {
	body := map[string]any{
		"vector":       vec,
		"limit":        k,
		"with_payload": true,
	}
	if scoreThreshold != nil {
		body["score_threshold"] = *scoreThreshold
	}
	if filter != nil && len(filter.Equals) > 0 {
		must := make([]map[string]any, 0, len(filter.Equals))
		for field, value := range filter.Equals {
			must = append(must, map[string]any{"key": field, "match": map[string]any{"value": value}})
		}
		body["filter"] = map[string]any{"must": must}
	}

	resp, err := c.do(ctx, http.MethodPost, "/points/search", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, agenterr.New(agenterr.KindStore, fmt.Sprintf("qdrant search failed, status %s", resp.Status))
	}

	var out struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "failed to decode qdrant search response", err)
	}

	points := make([]ScoredPoint, 0, len(out.Result))
	for _, r := range out.Result {
		points = append(points, ScoredPoint{ID: r.ID, Score: r.Score, Payload: r.Payload})
	}
	return points, nil
}

// DeleteByIds removes points by explicit id.
func (c *Client) DeleteByIds(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/points/delete?wait=true", map[string]any{"points": ids})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return agenterr.New(agenterr.KindStore, fmt.Sprintf("qdrant delete-by-ids failed, status %s", resp.Status))
	}
	return nil
}

// DeleteByFilter removes every point whose field matches any value in
// anyOf (OR-of-equalities over the one field).
func (c *Client) DeleteByFilter(ctx context.Context, field string, anyOf []any) error {
	if len(anyOf) == 0 {
		return nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/points/delete?wait=true", map[string]any{
		"filter": map[string]any{
			"should": []map[string]any{{"key": field, "match": map[string]any{"any": anyOf}}},
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return agenterr.New(agenterr.KindStore, fmt.Sprintf("qdrant delete-by-filter failed, status %s", resp.Status))
	}
	return nil
}

// Clear removes every point in the collection by recreating it empty.
func (c *Client) Clear(ctx context.Context, dim int, distance Distance) error {
	resp, err := c.do(ctx, http.MethodDelete, "", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return c.EnsureCollection(ctx, dim, distance)
}

// Info reports the collection's point count and configuration, as surfaced
// by Qdrant's collection-info endpoint.
func (c *Client) Info(ctx context.Context) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, agenterr.New(agenterr.KindStore, fmt.Sprintf("qdrant info failed, status %s", resp.Status))
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "failed to decode qdrant info response", err)
	}
	return out, nil
}

// HealthCheck reports whether the Qdrant endpoint is reachable at all,
// independent of whether this client's collection exists yet.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/", nil)
	if err != nil {
		return agenterr.Wrap(agenterr.KindStore, "failed to build qdrant health check request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return agenterr.Wrap(agenterr.KindStore, "qdrant unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return agenterr.New(agenterr.KindStore, fmt.Sprintf("qdrant health check failed, status %s", resp.Status))
	}
	return nil
}
