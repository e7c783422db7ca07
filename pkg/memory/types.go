// Package memory implements the layered memory manager (spec §4.5-4.9):
// working, episodic, and semantic tiers coordinated by a façade that
// auto-classifies, scores importance, fans out retrieval, and consolidates
// across tiers.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the three memory tiers.
type Type string

const (
	TypeWorking  Type = "working"
	TypeEpisodic Type = "episodic"
	TypeSemantic Type = "semantic"
)

// Item is a MemoryItem (spec §3): id is unique within a tier, importance
// is always clamped to [0,1], and timestamp is immutable after creation.
// Tier transitions happen only via Manager.Consolidate, which creates a new
// Item in the target tier rather than mutating this one in place.
type Item struct {
	ID         string
	Content    string
	Type       Type
	UserID     string
	SessionID  string // episodic only; "" elsewhere
	Context    string // episodic only: free-form situational context
	Timestamp  time.Time
	Importance float64
	Metadata   map[string]any
}

// NewItem stamps a fresh id and timestamp and clamps importance.
func NewItem(content string, typ Type, userID string, importance float64, metadata map[string]any) Item {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Item{
		ID:         uuid.NewString(),
		Content:    content,
		Type:       typ,
		UserID:     userID,
		Timestamp:  time.Now(),
		Importance: ClampImportance(importance),
		Metadata:   metadata,
	}
}

// ClampImportance restricts a score to the valid [0,1] range.
func ClampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RetrievedItem wraps an Item with the retrieval metadata spec §4.6
// requires: which tier/source found it and how relevant it was scored.
type RetrievedItem struct {
	Item
	Score  float64
	Source string // "vector" | "keyword"
	Tier   Type
}

// Entity is a graph node value object (spec §3): entityId is unique;
// (name, entityType) is conventional but not enforced.
type Entity struct {
	ID         string
	Name       string
	Type       string
	Properties map[string]any
}

// Relation is a directed, typed edge (spec §3): (from, to, type) is
// upserted — repeated adds merge Properties rather than duplicate edges.
type Relation struct {
	FromEntity string
	ToEntity   string
	Type       string
	Properties map[string]any
}

// VectorPoint is the canonical restart-safe projection of an Item (spec
// §3): Payload always carries at least memory_id, user_id, memory_type,
// content, importance, timestamp, so the point alone is sufficient to
// rebuild the Item after a process restart.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ItemToPayload flattens an Item into the durable projection stored alongside
// its vector.
func ItemToPayload(it Item) map[string]any {
	payload := map[string]any{
		"memory_id":   it.ID,
		"user_id":     it.UserID,
		"memory_type": string(it.Type),
		"content":     it.Content,
		"importance":  it.Importance,
		"timestamp":   it.Timestamp.Format(time.RFC3339Nano),
	}
	if it.SessionID != "" {
		payload["session_id"] = it.SessionID
	}
	if it.Context != "" {
		payload["context"] = it.Context
	}
	for k, v := range it.Metadata {
		if _, reserved := payload[k]; reserved {
			continue
		}
		payload[k] = v
	}
	return payload
}

// ItemFromPayload rebuilds an Item from a VectorPoint's payload — the
// restart path used when the in-memory cache has no entry for a vector hit.
func ItemFromPayload(id string, payload map[string]any) Item {
	it := Item{ID: id, Metadata: map[string]any{}}

	if v, ok := payload["content"].(string); ok {
		it.Content = v
	}
	if v, ok := payload["memory_type"].(string); ok {
		it.Type = Type(v)
	}
	if v, ok := payload["user_id"].(string); ok {
		it.UserID = v
	}
	if v, ok := payload["session_id"].(string); ok {
		it.SessionID = v
	}
	if v, ok := payload["context"].(string); ok {
		it.Context = v
	}
	if v, ok := payload["importance"].(float64); ok {
		it.Importance = ClampImportance(v)
	}
	if v, ok := payload["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			it.Timestamp = ts
		}
	}
	reserved := map[string]bool{
		"memory_id": true, "user_id": true, "memory_type": true, "content": true,
		"importance": true, "timestamp": true, "session_id": true, "context": true,
	}
	for k, v := range payload {
		if !reserved[k] {
			it.Metadata[k] = v
		}
	}
	return it
}

// ForgetPolicyKind enumerates the forgetting strategies spec §4.6 names.
type ForgetPolicyKind string

const (
	ForgetImportanceBased ForgetPolicyKind = "importance_based"
	ForgetTimeBased       ForgetPolicyKind = "time_based"
	ForgetCapacityBased   ForgetPolicyKind = "capacity_based"
)

// ForgetPolicy configures one forgetting pass. Only the field relevant to
// Kind is read.
type ForgetPolicy struct {
	Kind           ForgetPolicyKind
	Threshold      float64 // importance_based
	MaxAgeDays     int     // time_based
	CapacityTarget int     // capacity_based
}

// Config bundles the tunables the Manager and its tiers read from
// configuration (spec §6).
type Config struct {
	WorkingCapacity          int
	WorkingTTLMinutes        int
	EpisodicDefaultSessionID string
	EpisodicMaxCapacity      int
	SemanticMaxCapacity      int
	VectorEnabled            bool
	GraphEnabled             bool
}

// RetrieveFilter narrows a tier's Retrieve call.
type RetrieveFilter struct {
	UserID        string
	SessionID     string
	MinImportance float64
	Limit         int
}

// Stats distinguishes live items from everything still held underneath
// (working memory's TTL-expired-but-not-yet-evicted entries, for example).
type Stats struct {
	Count      int
	TotalCount int
}

// ItemUpdate carries the fields Update is allowed to change. A nil pointer
// means "leave unchanged".
type ItemUpdate struct {
	Content    *string
	Importance *float64
	Metadata   map[string]any
}

// Tier is the capability set every memory tier implements (spec §9):
// add, retrieve, update, remove, clear, stats, getAll. Tiers are dispatched
// by the Manager via their Type tag, not by interface embedding/inheritance.
type Tier interface {
	Type() Type
	Add(ctx context.Context, item Item) (Item, error)
	Retrieve(ctx context.Context, query string, filter RetrieveFilter) ([]RetrievedItem, error)
	Update(ctx context.Context, id string, upd ItemUpdate) error
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	GetAll(ctx context.Context) ([]Item, error)
	Forget(ctx context.Context, policy ForgetPolicy) (int, error)
}

// DefaultConfig mirrors the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		WorkingCapacity:          100,
		WorkingTTLMinutes:        60,
		EpisodicDefaultSessionID: "default_session",
		EpisodicMaxCapacity:      500,
		SemanticMaxCapacity:      1000,
		VectorEnabled:            false,
		GraphEnabled:             false,
	}
}
