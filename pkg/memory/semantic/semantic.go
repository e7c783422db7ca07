// Package semantic implements the semantic memory tier (spec §4.7): facts
// and concepts indexed by keyword, backed by a vector collection and a
// graph store for entities/relations.
package semantic

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/quillhive/agentcore/pkg/embedding"
	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/stores/graph"
	"github.com/quillhive/agentcore/pkg/stores/vector"
)

const collectionMemoryType = "semantic"

// minIndexWordLen is the spec's "words of length ≥ 3" rule for the concept
// index.
const minIndexWordLen = 3

// Tier is the semantic memory tier.
type Tier struct {
	mu          sync.Mutex
	items       map[string]memory.Item
	order       []string            // insertion order, oldest first
	conceptIdx  map[string]map[string]bool // word -> set of memoryIds

	vectorClient *vector.Client
	graphClient  *graph.Client
	embedder     embedding.Embedder
	maxCapacity  int
}

// New returns a Tier. vectorClient, graphClient, and embedder may each be
// nil, in which case the corresponding capability degrades gracefully
// (keyword-only retrieval, empty graph results).
func New(vectorClient *vector.Client, graphClient *graph.Client, embedder embedding.Embedder, maxCapacity int) *Tier {
	if maxCapacity <= 0 {
		maxCapacity = 1000
	}
	return &Tier{
		items:        make(map[string]memory.Item),
		conceptIdx:   make(map[string]map[string]bool),
		vectorClient: vectorClient,
		graphClient:  graphClient,
		embedder:     embedder,
		maxCapacity:  maxCapacity,
	}
}

func (t *Tier) Type() memory.Type { return memory.TypeSemantic }

func indexWords(content string) []string {
	fields := strings.Fields(strings.ToLower(content))
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		if len(w) >= minIndexWordLen {
			words = append(words, w)
		}
	}
	return words
}

func (t *Tier) indexLocked(id, content string) {
	for _, w := range indexWords(content) {
		bucket, ok := t.conceptIdx[w]
		if !ok {
			bucket = make(map[string]bool)
			t.conceptIdx[w] = bucket
		}
		bucket[id] = true
	}
}

func (t *Tier) deindexLocked(id, content string) {
	for _, w := range indexWords(content) {
		bucket, ok := t.conceptIdx[w]
		if !ok {
			continue
		}
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(t.conceptIdx, w)
		}
	}
}

// Add indexes the content's words, writes the vector point, and evicts the
// single lowest-importance item if size now exceeds maxCapacity.
func (t *Tier) Add(ctx context.Context, item memory.Item) (memory.Item, error) {
	item.Type = memory.TypeSemantic

	t.mu.Lock()
	t.items[item.ID] = item
	t.order = append(t.order, item.ID)
	t.indexLocked(item.ID, item.Content)
	t.mu.Unlock()

	if t.vectorClient != nil && t.embedder != nil {
		vec, err := t.embedder.Embed(ctx, item.Content)
		if err != nil {
			log.Error("semantic: failed to embed item, keeping in-memory only", "err", err)
		} else if err := t.vectorClient.Upsert(ctx, []vector.Point{{ID: item.ID, Vector: vec, Payload: memory.ItemToPayload(item)}}); err != nil {
			log.Error("semantic: vector upsert failed, in-memory copy still exists", "err", err)
		}
	}

	t.mu.Lock()
	over := len(t.order) > t.maxCapacity
	t.mu.Unlock()
	if over {
		t.evictLowestImportance(ctx)
	}
	return item, nil
}

func (t *Tier) evictLowestImportance(ctx context.Context) {
	t.mu.Lock()
	var victim string
	for _, id := range t.order {
		item, ok := t.items[id]
		if !ok {
			continue
		}
		if victim == "" {
			victim = id
			continue
		}
		current := t.items[victim]
		if item.Importance < current.Importance ||
			(item.Importance == current.Importance && item.Timestamp.Before(current.Timestamp)) {
			victim = id
		}
	}
	if victim != "" {
		t.removeLocked(victim)
	}
	t.mu.Unlock()

	if victim != "" && t.vectorClient != nil {
		if err := t.vectorClient.DeleteByIds(ctx, []string{victim}); err != nil {
			log.Error("semantic: vector delete on eviction failed", "err", err)
		}
	}
}

func (t *Tier) removeLocked(id string) {
	item, ok := t.items[id]
	if !ok {
		return
	}
	t.deindexLocked(id, item.Content)
	delete(t.items, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Retrieve runs the same hybrid pattern as episodic, pinned to
// memory_type=semantic.
func (t *Tier) Retrieve(ctx context.Context, query string, filter memory.RetrieveFilter) ([]memory.RetrievedItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	seen := make(map[string]bool)
	var hits []memory.RetrievedItem

	if t.vectorClient != nil && t.embedder != nil && query != "" {
		vecHits, err := t.vectorSearch(ctx, query, limit*2, filter)
		if err != nil {
			log.Error("semantic: vector search failed, falling back to keyword only", "err", err)
		} else {
			hits = append(hits, vecHits...)
			for _, h := range vecHits {
				seen[h.ID] = true
			}
		}
	}

	if len(hits) < limit {
		hits = append(hits, t.keywordFill(query, filter, limit-len(hits), seen)...)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Timestamp.After(hits[j].Timestamp) })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (t *Tier) vectorSearch(ctx context.Context, query string, k int, filter memory.RetrieveFilter) ([]memory.RetrievedItem, error) {
	vec, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	equals := map[string]any{"memory_type": collectionMemoryType}
	if filter.UserID != "" {
		equals["user_id"] = filter.UserID
	}

	scored, err := t.vectorClient.Search(ctx, vec, k, nil, &vector.Filter{Equals: equals})
	if err != nil {
		return nil, err
	}

	out := make([]memory.RetrievedItem, 0, len(scored))
	for _, s := range scored {
		item := t.hydrate(s.ID, s.Payload)
		out = append(out, memory.RetrievedItem{Item: item, Score: s.Score, Source: "vector", Tier: memory.TypeSemantic})
	}
	return out, nil
}

func (t *Tier) hydrate(id string, payload map[string]any) memory.Item {
	t.mu.Lock()
	defer t.mu.Unlock()

	if item, ok := t.items[id]; ok {
		return item
	}
	item := memory.ItemFromPayload(id, payload)
	t.items[id] = item
	t.order = append(t.order, id)
	t.indexLocked(id, item.Content)
	return item
}

func (t *Tier) keywordFill(query string, filter memory.RetrieveFilter, need int, seen map[string]bool) []memory.RetrievedItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	candidateIDs := t.order
	if query != "" {
		words := indexWords(query)
		matched := make(map[string]bool)
		for _, w := range words {
			for id := range t.conceptIdx[w] {
				matched[id] = true
			}
		}
		candidateIDs = make([]string, 0, len(matched))
		for id := range matched {
			candidateIDs = append(candidateIDs, id)
		}
	}

	var out []memory.RetrievedItem
	for _, id := range candidateIDs {
		if len(out) >= need {
			break
		}
		if seen[id] {
			continue
		}
		item, ok := t.items[id]
		if !ok {
			continue
		}
		if filter.UserID != "" && item.UserID != filter.UserID {
			continue
		}
		if item.Importance < filter.MinImportance {
			continue
		}
		out = append(out, memory.RetrievedItem{Item: item, Score: item.Importance, Source: "keyword", Tier: memory.TypeSemantic})
	}
	return out
}

// Update: content change re-indexes and rewrites the vector; an
// importance-only change touches only the in-memory record (spec §4.7,
// §9 resolves the source's inconsistency as "re-embed iff content
// changed").
func (t *Tier) Update(ctx context.Context, id string, upd memory.ItemUpdate) error {
	t.mu.Lock()
	item, ok := t.items[id]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	contentChanged := upd.Content != nil && *upd.Content != item.Content
	if contentChanged {
		t.deindexLocked(id, item.Content)
	}
	if upd.Content != nil {
		item.Content = *upd.Content
	}
	if upd.Importance != nil {
		item.Importance = memory.ClampImportance(*upd.Importance)
	}
	for k, v := range upd.Metadata {
		if item.Metadata == nil {
			item.Metadata = map[string]any{}
		}
		item.Metadata[k] = v
	}
	t.items[id] = item
	if contentChanged {
		t.indexLocked(id, item.Content)
	}
	t.mu.Unlock()

	if contentChanged && t.vectorClient != nil && t.embedder != nil {
		vec, err := t.embedder.Embed(ctx, item.Content)
		if err != nil {
			return err
		}
		return t.vectorClient.Upsert(ctx, []vector.Point{{ID: id, Vector: vec, Payload: memory.ItemToPayload(item)}})
	}
	return nil
}

func (t *Tier) Remove(ctx context.Context, id string) error {
	t.mu.Lock()
	t.removeLocked(id)
	t.mu.Unlock()
	if t.vectorClient != nil {
		return t.vectorClient.DeleteByIds(ctx, []string{id})
	}
	return nil
}

// Clear empties both tier maps and the concept index and deletes every
// semantic point from the vector collection, including points that were
// never loaded into memory; a collection holding only semantic points ends
// with a count of 0.
func (t *Tier) Clear(ctx context.Context) error {
	t.mu.Lock()
	t.items = make(map[string]memory.Item)
	t.order = nil
	t.conceptIdx = make(map[string]map[string]bool)
	t.mu.Unlock()

	if t.vectorClient != nil {
		return t.vectorClient.DeleteByFilter(ctx, "memory_type", []any{collectionMemoryType})
	}
	return nil
}

func (t *Tier) Stats(_ context.Context) (memory.Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return memory.Stats{Count: len(t.items), TotalCount: len(t.items)}, nil
}

func (t *Tier) GetAll(_ context.Context) ([]memory.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]memory.Item, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id])
	}
	return out, nil
}

func (t *Tier) Forget(ctx context.Context, policy memory.ForgetPolicy) (int, error) {
	t.mu.Lock()
	var toRemove []string
	switch policy.Kind {
	case memory.ForgetImportanceBased:
		for _, id := range t.order {
			if t.items[id].Importance < policy.Threshold {
				toRemove = append(toRemove, id)
			}
		}
	case memory.ForgetCapacityBased:
		target := policy.CapacityTarget
		if target > 0 && len(t.order) > target {
			ordered := append([]string(nil), t.order...)
			sort.Slice(ordered, func(i, j int) bool {
				return t.items[ordered[i]].Importance < t.items[ordered[j]].Importance
			})
			toRemove = ordered[:len(t.order)-target]
		}
	}
	for _, id := range toRemove {
		t.removeLocked(id)
	}
	t.mu.Unlock()

	if t.vectorClient != nil && len(toRemove) > 0 {
		if err := t.vectorClient.DeleteByIds(ctx, toRemove); err != nil {
			log.Error("semantic: vector delete during forget failed", "err", err)
		}
	}
	return len(toRemove), nil
}

// AddEntity upserts a graph node; repeated calls merge properties.
func (t *Tier) AddEntity(ctx context.Context, e memory.Entity) error {
	if t.graphClient == nil {
		return nil
	}
	return t.graphClient.UpsertEntity(ctx, graph.Entity{ID: e.ID, Name: e.Name, Type: e.Type, Properties: e.Properties})
}

// AddRelation idempotently upserts a typed edge.
func (t *Tier) AddRelation(ctx context.Context, r memory.Relation) error {
	if t.graphClient == nil {
		return nil
	}
	return t.graphClient.UpsertRelation(ctx, graph.Relation{FromID: r.FromEntity, ToID: r.ToEntity, Type: r.Type, Properties: r.Properties})
}

// RelatedEntity mirrors graph.RelatedEntity in memory-package terms.
type RelatedEntity struct {
	Entity           memory.Entity
	Distance         int
	RelationshipPath []string
}

// FindRelatedEntities runs a bounded undirected traversal; an absent graph
// client degrades to an empty result (spec §7: graph failures return empty
// results).
func (t *Tier) FindRelatedEntities(ctx context.Context, id string, maxDepth, limit int) ([]RelatedEntity, error) {
	if t.graphClient == nil {
		return nil, nil
	}
	related, err := t.graphClient.FindRelatedEntities(ctx, id, maxDepth, limit)
	if err != nil {
		log.Error("semantic: graph traversal failed, returning empty result", "err", err)
		return nil, nil
	}
	out := make([]RelatedEntity, 0, len(related))
	for _, r := range related {
		out = append(out, RelatedEntity{
			Entity:           memory.Entity{ID: r.Entity.ID, Name: r.Entity.Name, Type: r.Entity.Type, Properties: r.Entity.Properties},
			Distance:         r.Distance,
			RelationshipPath: r.RelationshipPath,
		})
	}
	return out, nil
}

// SearchEntities performs a case-insensitive substring match on entity
// name via the graph store.
func (t *Tier) SearchEntities(ctx context.Context, namePattern string, entityTypes []string, limit int) ([]memory.Entity, error) {
	if t.graphClient == nil {
		return nil, nil
	}
	entities, err := t.graphClient.SearchEntities(ctx, namePattern, entityTypes, limit)
	if err != nil {
		log.Error("semantic: graph search failed, returning empty result", "err", err)
		return nil, nil
	}
	out := make([]memory.Entity, 0, len(entities))
	for _, e := range entities {
		out = append(out, memory.Entity{ID: e.ID, Name: e.Name, Type: e.Type, Properties: e.Properties})
	}
	return out, nil
}
