// Package episodic implements the episodic memory tier (spec §4.6):
// session-grouped narrative memories with hybrid vector+keyword retrieval
// and a restart-safe vector-store projection.
package episodic

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quillhive/agentcore/pkg/embedding"
	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/stores/vector"
)

const collectionMemoryType = "episodic"

// Tier is the episodic memory tier. The in-memory map/lists are a cache;
// when a vector store is configured its payloads are the durable record.
type Tier struct {
	mu            sync.Mutex
	items         map[string]memory.Item
	episodes      []string            // insertion order, oldest first
	sessionIndex  map[string][]string // sessionId -> episodeIds

	vectorClient   *vector.Client
	embedder       embedding.Embedder
	capacity       int
	defaultSession string
}

// New returns a Tier. vectorClient/embedder may be nil, in which case the
// tier degrades to keyword-only retrieval with no durable store.
func New(vectorClient *vector.Client, embedder embedding.Embedder, capacity int, defaultSession string) *Tier {
	if capacity <= 0 {
		capacity = 500
	}
	if defaultSession == "" {
		defaultSession = "default_session"
	}
	return &Tier{
		items:          make(map[string]memory.Item),
		sessionIndex:   make(map[string][]string),
		vectorClient:   vectorClient,
		embedder:       embedder,
		capacity:       capacity,
		defaultSession: defaultSession,
	}
}

func (t *Tier) Type() memory.Type { return memory.TypeEpisodic }

// Add writes the in-memory map, the ordered episode list, the
// session→episodeId index, and — if vector storage is configured — a
// point in the episodic collection.
func (t *Tier) Add(ctx context.Context, item memory.Item) (memory.Item, error) {
	item.Type = memory.TypeEpisodic
	if item.SessionID == "" {
		item.SessionID = t.defaultSession
	}

	t.mu.Lock()
	t.items[item.ID] = item
	t.episodes = append(t.episodes, item.ID)
	t.sessionIndex[item.SessionID] = append(t.sessionIndex[item.SessionID], item.ID)
	t.mu.Unlock()

	if t.vectorClient != nil && t.embedder != nil {
		vec, err := t.embedder.Embed(ctx, item.Content)
		if err != nil {
			log.Error("episodic: failed to embed item, keeping in-memory only", "err", err)
		} else {
			payload := memory.ItemToPayload(item)
			if err := t.vectorClient.Upsert(ctx, []vector.Point{{ID: item.ID, Vector: vec, Payload: payload}}); err != nil {
				log.Error("episodic: vector upsert failed, in-memory copy still exists", "err", err)
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.episodes) > t.capacity {
		t.evictLowestImportanceLocked(ctx)
	}
	return item, nil
}

// evictLowestImportanceLocked removes the single lowest-importance item,
// ties broken by oldest timestamp. Caller holds t.mu.
func (t *Tier) evictLowestImportanceLocked(ctx context.Context) {
	var victim string
	for _, id := range t.episodes {
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
	if victim == "" {
		return
	}
	t.removeLocked(victim)
	if t.vectorClient != nil {
		if err := t.vectorClient.DeleteByIds(ctx, []string{victim}); err != nil {
			log.Error("episodic: vector delete on eviction failed", "err", err)
		}
	}
}

func (t *Tier) removeLocked(id string) {
	item, ok := t.items[id]
	if !ok {
		return
	}
	delete(t.items, id)
	for i, existing := range t.episodes {
		if existing == id {
			t.episodes = append(t.episodes[:i], t.episodes[i+1:]...)
			break
		}
	}
	bucket := t.sessionIndex[item.SessionID]
	for i, existing := range bucket {
		if existing == id {
			t.sessionIndex[item.SessionID] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
}

// Retrieve runs the hybrid pattern: vector ANN first (top k·2, filtered by
// memory_type/user_id/session_id), hydrated from the in-memory map or
// rebuilt from payload; a keyword pass fills any remainder. Final order is
// timestamp descending.
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
			log.Error("episodic: vector search failed, falling back to keyword only", "err", err)
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
	if filter.SessionID != "" {
		equals["session_id"] = filter.SessionID
	}

	scored, err := t.vectorClient.Search(ctx, vec, k, nil, &vector.Filter{Equals: equals})
	if err != nil {
		return nil, err
	}

	out := make([]memory.RetrievedItem, 0, len(scored))
	for _, s := range scored {
		item := t.hydrate(s.ID, s.Payload)
		out = append(out, memory.RetrievedItem{Item: item, Score: s.Score, Source: "vector", Tier: memory.TypeEpisodic})
	}
	return out, nil
}

// hydrate returns the cached item if present, otherwise rebuilds it from
// the vector payload and re-inserts it into the cache.
func (t *Tier) hydrate(id string, payload map[string]any) memory.Item {
	t.mu.Lock()
	defer t.mu.Unlock()

	if item, ok := t.items[id]; ok {
		return item
	}
	item := memory.ItemFromPayload(id, payload)
	t.items[id] = item
	t.episodes = append(t.episodes, id)
	t.sessionIndex[item.SessionID] = append(t.sessionIndex[item.SessionID], id)
	return item
}

func (t *Tier) keywordFill(query string, filter memory.RetrieveFilter, need int, seen map[string]bool) []memory.RetrievedItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	needle := strings.ToLower(query)
	var out []memory.RetrievedItem
	for _, id := range t.episodes {
		if len(out) >= need {
			break
		}
		if seen[id] {
			continue
		}
		item := t.items[id]
		if filter.UserID != "" && item.UserID != filter.UserID {
			continue
		}
		if filter.SessionID != "" && item.SessionID != filter.SessionID {
			continue
		}
		if item.Importance < filter.MinImportance {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Content), needle) {
			continue
		}
		out = append(out, memory.RetrievedItem{Item: item, Score: item.Importance, Source: "keyword", Tier: memory.TypeEpisodic})
	}
	return out
}

func (t *Tier) Update(ctx context.Context, id string, upd memory.ItemUpdate) error {
	t.mu.Lock()
	item, ok := t.items[id]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	contentChanged := upd.Content != nil && *upd.Content != item.Content
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
	t.mu.Unlock()

	// Re-embed iff content changed (spec §9 open question, resolved).
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

func (t *Tier) Clear(ctx context.Context) error {
	t.mu.Lock()
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	t.items = make(map[string]memory.Item)
	t.episodes = nil
	t.sessionIndex = make(map[string][]string)
	t.mu.Unlock()

	if t.vectorClient != nil && len(ids) > 0 {
		return t.vectorClient.DeleteByIds(ctx, ids)
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
	out := make([]memory.Item, 0, len(t.episodes))
	for _, id := range t.episodes {
		out = append(out, t.items[id])
	}
	return out, nil
}

// Forget applies importance_based, time_based, or capacity_based policies
// (spec §4.6).
func (t *Tier) Forget(ctx context.Context, policy memory.ForgetPolicy) (int, error) {
	t.mu.Lock()
	var toRemove []string
	switch policy.Kind {
	case memory.ForgetImportanceBased:
		for _, id := range t.episodes {
			if t.items[id].Importance < policy.Threshold {
				toRemove = append(toRemove, id)
			}
		}
	case memory.ForgetTimeBased:
		maxAge := time.Duration(policy.MaxAgeDays) * 24 * time.Hour
		for _, id := range t.episodes {
			if time.Since(t.items[id].Timestamp) > maxAge {
				toRemove = append(toRemove, id)
			}
		}
	case memory.ForgetCapacityBased:
		target := policy.CapacityTarget
		if target > 0 && len(t.episodes) > target {
			ordered := append([]string(nil), t.episodes...)
			sort.Slice(ordered, func(i, j int) bool {
				return t.items[ordered[i]].Importance < t.items[ordered[j]].Importance
			})
			toRemove = ordered[:len(t.episodes)-target]
		}
	}
	for _, id := range toRemove {
		t.removeLocked(id)
	}
	t.mu.Unlock()

	if t.vectorClient != nil && len(toRemove) > 0 {
		if err := t.vectorClient.DeleteByIds(ctx, toRemove); err != nil {
			log.Error("episodic: vector delete during forget failed", "err", err)
		}
	}
	return len(toRemove), nil
}
