// Package working implements the working memory tier (spec §4.5): a
// bounded, in-process, oldest-eviction cache with no external storage.
package working

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quillhive/agentcore/pkg/memory"
)

// Tier is the working memory tier. Items live only in process memory; items
// older than ttl are hidden from reads, and on overflow the oldest inserted
// item is evicted. There is no vector or graph backing.
type Tier struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]memory.Item
	order    []string // insertion order, oldest first
}

// New returns a Tier bounded to capacity items, each expiring after ttl.
func New(capacity int, ttl time.Duration) *Tier {
	if capacity <= 0 {
		capacity = 100
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tier{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]memory.Item),
	}
}

func (t *Tier) Type() memory.Type { return memory.TypeWorking }

// Add is O(1): append then evict the oldest entry if over capacity.
func (t *Tier) Add(_ context.Context, item memory.Item) (memory.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	item.Type = memory.TypeWorking
	t.items[item.ID] = item
	t.order = append(t.order, item.ID)

	if len(t.order) > t.capacity {
		oldestID := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldestID)
	}
	return item, nil
}

func (t *Tier) isExpired(item memory.Item) bool {
	return time.Since(item.Timestamp) > t.ttl
}

// Retrieve is a linear scan over live (non-expired) items: case-insensitive
// substring match on content, optional userId/minImportance filter, sorted
// by importance descending, truncated to filter.Limit.
func (t *Tier) Retrieve(_ context.Context, query string, filter memory.RetrieveFilter) ([]memory.RetrievedItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	needle := strings.ToLower(query)
	var hits []memory.RetrievedItem
	for _, item := range t.items {
		if t.isExpired(item) {
			continue
		}
		if filter.UserID != "" && item.UserID != filter.UserID {
			continue
		}
		if item.Importance < filter.MinImportance {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Content), needle) {
			continue
		}
		hits = append(hits, memory.RetrievedItem{Item: item, Score: item.Importance, Source: "keyword", Tier: memory.TypeWorking})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Importance > hits[j].Importance })

	limit := filter.Limit
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (t *Tier) Update(_ context.Context, id string, upd memory.ItemUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	item, ok := t.items[id]
	if !ok {
		return nil
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
	return nil
}

func (t *Tier) Remove(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, id)
	for i, orderedID := range t.order {
		if orderedID == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *Tier) Clear(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[string]memory.Item)
	t.order = nil
	return nil
}

// Stats distinguishes live (non-expired) count from the raw underlying map
// size, which still holds expired-but-not-yet-evicted entries.
func (t *Tier) Stats(_ context.Context) (memory.Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := 0
	for _, item := range t.items {
		if !t.isExpired(item) {
			live++
		}
	}
	return memory.Stats{Count: live, TotalCount: len(t.items)}, nil
}

// GetAll returns every live item, oldest first.
func (t *Tier) GetAll(_ context.Context) ([]memory.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]memory.Item, 0, len(t.order))
	for _, id := range t.order {
		item := t.items[id]
		if !t.isExpired(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Forget applies a forgetting policy over every item the tier holds,
// expired ones included.
func (t *Tier) Forget(_ context.Context, policy memory.ForgetPolicy) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	kept := t.order[:0:0]
	for _, id := range t.order {
		item, ok := t.items[id]
		if !ok {
			continue
		}
		drop := false
		switch policy.Kind {
		case memory.ForgetImportanceBased:
			drop = item.Importance < policy.Threshold
		case memory.ForgetTimeBased:
			drop = time.Since(item.Timestamp) > time.Duration(policy.MaxAgeDays)*24*time.Hour
		case memory.ForgetCapacityBased:
			// handled after the loop, as a bulk trim.
		}
		if drop {
			delete(t.items, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept

	if policy.Kind == memory.ForgetCapacityBased && policy.CapacityTarget > 0 {
		for len(t.order) > policy.CapacityTarget {
			oldestID := t.order[0]
			t.order = t.order[1:]
			delete(t.items, oldestID)
			removed++
		}
	}
	return removed, nil
}
