// Package graph is the graph store adapter (spec §4.8/§4.7 graph
// operations): entity upsert, typed relationship upsert, bounded
// undirected traversal, and name search, against Neo4j's HTTP transaction
// endpoint. As with the vector adapter, no Neo4j driver SDK appears in
// this module's reference corpus, so this follows the teacher's own
// pkg/stores/neo4j/neo4j.go and talks Cypher over net/http directly.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/quillhive/agentcore/pkg/agenterr"
)

// Entity is a graph node: {id, name, type, created_at, updated_at,
// ...properties}.
type Entity struct {
	ID         string
	Name       string
	Type       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Properties map[string]any
}

// Relation is a typed, idempotent edge between two entities: (a, b, type)
// is unique; repeated adds merge Properties rather than duplicate the
// edge.
type Relation struct {
	FromID     string
	ToID       string
	Type       string
	Properties map[string]any
}

// RelatedEntity is one hit from FindRelatedEntities: the entity plus how it
// was reached.
type RelatedEntity struct {
	Entity           Entity
	Distance         int
	RelationshipPath []string
}

// Client wraps a Neo4j endpoint reachable via the HTTP transaction API.
type Client struct {
	endpoint   string
	username   string
	password   string
	database   string
	httpClient *http.Client
}

// New returns a Client with sane defaults.
func New(endpoint, username, password, database string) *Client {
	if database == "" {
		database = "neo4j"
	}
	return &Client{
		endpoint:   endpoint,
		username:   username,
		password:   password,
		database:   database,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// ExecCypher sends a single Cypher statement with parameters and returns
// the Neo4j HTTP transaction API's raw results/errors envelope.
func (c *Client) ExecCypher(ctx context.Context, cypher string, params map[string]any) (map[string]any, error) {
	payload := map[string]any{
		"statements": []map[string]any{{
			"statement":  cypher,
			"parameters": params,
		}},
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "failed to marshal cypher payload", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		fmt.Sprintf("%s/db/%s/tx/commit", c.endpoint, c.database),
		bytes.NewReader(b),
	)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "failed to build cypher request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "neo4j request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, agenterr.New(agenterr.KindStore, fmt.Sprintf("neo4j: status %s", resp.Status))
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, agenterr.Wrap(agenterr.KindStore, "failed to decode neo4j response", err)
	}
	if errs, ok := out["errors"].([]any); ok && len(errs) > 0 {
		return out, agenterr.New(agenterr.KindStore, fmt.Sprintf("neo4j reported errors: %v", errs))
	}
	return out, nil
}

// UpsertEntity creates the entity if absent, or merges Properties into the
// existing node on repeat calls.
func (c *Client) UpsertEntity(ctx context.Context, e Entity) error {
	_, err := c.ExecCypher(ctx, `
		MERGE (e:Entity {id: $id})
		ON CREATE SET e.created_at = timestamp()
		SET e.name = $name, e.type = $type, e.updated_at = timestamp(), e += $properties
	`, map[string]any{
		"id":         e.ID,
		"name":       e.Name,
		"type":       e.Type,
		"properties": e.Properties,
	})
	return err
}

// relTypePattern restricts dynamic relationship-type labels to what Cypher
// allows unquoted, since relationship types cannot be bound as query
// parameters.
var relTypePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func sanitizeRelType(t string) (string, error) {
	upper := strings.ToUpper(t)
	if !relTypePattern.MatchString(upper) {
		return "", agenterr.New(agenterr.KindStore, "invalid relationship type: "+t)
	}
	return upper, nil
}

// UpsertRelation idempotently merges a typed edge: (fromID, toID, type) is
// unique; repeated calls merge Properties.
func (c *Client) UpsertRelation(ctx context.Context, r Relation) error {
	relType, err := sanitizeRelType(r.Type)
	if err != nil {
		return err
	}

	cypher := fmt.Sprintf(`
		MATCH (a:Entity {id: $fromID}), (b:Entity {id: $toID})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET r.created_at = timestamp()
		SET r.updated_at = timestamp(), r += $properties
	`, relType)

	_, err = c.ExecCypher(ctx, cypher, map[string]any{
		"fromID":     r.FromID,
		"toID":       r.ToID,
		"properties": r.Properties,
	})
	return err
}

// FindRelatedEntities runs a bounded undirected traversal from id,
// excluding the start node, returning each hit's hop distance and the
// ordered relationship-type path used to reach it.
func (c *Client) FindRelatedEntities(ctx context.Context, id string, maxDepth, limit int) ([]RelatedEntity, error) {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if limit <= 0 {
		limit = 10
	}

	cypher := fmt.Sprintf(`
		MATCH path = (start:Entity {id: $id})-[*1..%d]-(other:Entity)
		WHERE other.id <> $id
		WITH other, path, length(path) AS dist
		ORDER BY dist ASC
		LIMIT $limit
		RETURN other, dist, [rel IN relationships(path) | type(rel)] AS relTypes
	`, maxDepth)

	result, err := c.ExecCypher(ctx, cypher, map[string]any{"id": id, "limit": limit})
	if err != nil {
		return nil, err
	}

	rows := extractRows(result)
	out := make([]RelatedEntity, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		entity := entityFromRow(row[0])
		dist, _ := row[1].(float64)
		relTypes := toStringSlice(row[2])
		out = append(out, RelatedEntity{Entity: entity, Distance: int(dist), RelationshipPath: relTypes})
	}
	return out, nil
}

// SearchEntities performs a case-insensitive substring match on entity
// name, optionally restricted to entityTypes.
func (c *Client) SearchEntities(ctx context.Context, namePattern string, entityTypes []string, limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = 10
	}

	cypher := `
		MATCH (e:Entity)
		WHERE toLower(e.name) CONTAINS toLower($pattern)
		  AND ($types IS NULL OR size($types) = 0 OR e.type IN $types)
		RETURN e
		LIMIT $limit
	`
	result, err := c.ExecCypher(ctx, cypher, map[string]any{
		"pattern": namePattern,
		"types":   entityTypes,
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}

	rows := extractRows(result)
	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		if len(row) < 1 {
			continue
		}
		out = append(out, entityFromRow(row[0]))
	}
	return out, nil
}

// extractRows pulls the flat list of result rows out of the HTTP
// transaction API's {results:[{data:[{row:[...]}]}]} envelope.
func extractRows(result map[string]any) [][]any {
	results, _ := result["results"].([]any)
	if len(results) == 0 {
		return nil
	}
	first, _ := results[0].(map[string]any)
	data, _ := first["data"].([]any)

	rows := make([][]any, 0, len(data))
	for _, d := range data {
		entry, _ := d.(map[string]any)
		row, _ := entry["row"].([]any)
		rows = append(rows, row)
	}
	return rows
}

func entityFromRow(raw any) Entity {
	node, _ := raw.(map[string]any)
	e := Entity{Properties: map[string]any{}}
	for k, v := range node {
		switch k {
		case "id":
			e.ID, _ = v.(string)
		case "name":
			e.Name, _ = v.(string)
		case "type":
			e.Type, _ = v.(string)
		default:
			e.Properties[k] = v
		}
	}
	return e
}

func toStringSlice(raw any) []string {
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
