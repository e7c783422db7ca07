package memory

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

var episodicTriggers = []string{"yesterday", "today", "remember", "happened", "earlier", "last time", "ago"}
var semanticTriggers = []string{"definition", "concept", "rule", "principle", "means", "defined as"}
var importanceKeywords = []string{"important", "critical", "urgent", "remember", "must", "always", "never"}

// Manager is the memory-system façade (spec §4.9): it owns one instance of
// each tier, routes by memory type, and coordinates cross-tier operations.
type Manager struct {
	working  Tier
	episodic Tier
	semantic Tier
}

// NewManager wires three already-constructed tiers into a façade.
func NewManager(working, episodic, semantic Tier) *Manager {
	return &Manager{working: working, episodic: episodic, semantic: semantic}
}

func (m *Manager) tiers() map[Type]Tier {
	out := map[Type]Tier{}
	if m.working != nil {
		out[TypeWorking] = m.working
	}
	if m.episodic != nil {
		out[TypeEpisodic] = m.episodic
	}
	if m.semantic != nil {
		out[TypeSemantic] = m.semantic
	}
	return out
}

func (m *Manager) tier(t Type) Tier {
	switch t {
	case TypeWorking:
		return m.working
	case TypeEpisodic:
		return m.episodic
	case TypeSemantic:
		return m.semantic
	default:
		return nil
	}
}

// ClassifyType picks a tier for content with no explicit memoryType, by
// matching against the episodic/semantic trigger-word lists; unmatched
// content defaults to working.
func ClassifyType(content string) Type {
	lower := strings.ToLower(content)
	for _, w := range episodicTriggers {
		if strings.Contains(lower, w) {
			return TypeEpisodic
		}
	}
	for _, w := range semanticTriggers {
		if strings.Contains(lower, w) {
			return TypeSemantic
		}
	}
	return TypeWorking
}

// ScoreImportance implements the spec §4.9 heuristic: base 0.5, +0.1 for
// length>100, +0.2 for an importance keyword, ±0.2/0.3 from
// metadata["priority"], clamped to [0,1].
func ScoreImportance(content string, metadata map[string]any) float64 {
	score := 0.5
	if len(content) > 100 {
		score += 0.1
	}
	lower := strings.ToLower(content)
	for _, w := range importanceKeywords {
		if strings.Contains(lower, w) {
			score += 0.2
			break
		}
	}
	if metadata != nil {
		switch metadata["priority"] {
		case "low":
			score -= 0.2
		case "high":
			score += 0.3
		}
	}
	return ClampImportance(score)
}

// AddOptions configures Manager.Add.
type AddOptions struct {
	Type       Type // "" triggers auto-classification
	UserID     string
	SessionID  string
	Context    string
	Importance *float64 // nil triggers the importance heuristic
	Metadata   map[string]any
}

// Add classifies (if needed), scores importance (if needed), and writes the
// item into the chosen tier.
func (m *Manager) Add(ctx context.Context, content string, opts AddOptions) (Item, error) {
	typ := opts.Type
	if typ == "" {
		if t, ok := opts.Metadata["type"].(string); ok && t != "" {
			typ = Type(t)
		} else {
			typ = ClassifyType(content)
		}
	}

	importance := 0.0
	if opts.Importance != nil {
		importance = *opts.Importance
	} else {
		importance = ScoreImportance(content, opts.Metadata)
	}

	item := NewItem(content, typ, opts.UserID, importance, opts.Metadata)
	item.SessionID = opts.SessionID
	item.Context = opts.Context

	tier := m.tier(typ)
	if tier == nil {
		return Item{}, ErrTierDisabled(typ)
	}
	return tier.Add(ctx, item)
}

// Retrieve fans out over every enabled tier with perTypeLimit =
// ceil(limit/|tiers|), unions the results, sorts by importance descending,
// and truncates to limit. A failing tier is logged, not fatal.
func (m *Manager) Retrieve(ctx context.Context, query string, limit int, filter RetrieveFilter) []RetrievedItem {
	tiers := m.tiers()
	if len(tiers) == 0 || limit <= 0 {
		return nil
	}

	perTypeLimit := int(math.Ceil(float64(limit) / float64(len(tiers))))
	perTypeFilter := filter
	perTypeFilter.Limit = perTypeLimit

	var all []RetrievedItem
	for typ, tier := range tiers {
		hits, err := tier.Retrieve(ctx, query, perTypeFilter)
		if err != nil {
			log.Error("memory: tier retrieve failed, skipping", "tier", typ, "err", err)
			continue
		}
		all = append(all, hits...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Importance > all[j].Importance })
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// defaultConsolidateThreshold is applied when Consolidate is called with a
// zero threshold, preserving the original working→episodic migration
// default while letting callers override it (spec.md §4.9 generalization).
const defaultConsolidateThreshold = 0.7

// Consolidate promotes items with importance >= threshold from fromTier
// into toTier: remove from source, create in target with importance*1.1
// (capped at 1) and metadata.consolidatedFrom = fromTier.
func (m *Manager) Consolidate(ctx context.Context, fromTier, toTier Type, threshold float64) (int, error) {
	if threshold == 0 {
		threshold = defaultConsolidateThreshold
	}

	src := m.tier(fromTier)
	dst := m.tier(toTier)
	if src == nil {
		return 0, ErrTierDisabled(fromTier)
	}
	if dst == nil {
		return 0, ErrTierDisabled(toTier)
	}

	items, err := src.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, item := range items {
		if item.Importance < threshold {
			continue
		}
		if err := src.Remove(ctx, item.ID); err != nil {
			log.Error("memory: consolidate failed to remove source item", "id", item.ID, "err", err)
			continue
		}
		metadata := map[string]any{}
		for k, v := range item.Metadata {
			metadata[k] = v
		}
		metadata["consolidatedFrom"] = string(fromTier)

		newImportance := ClampImportance(item.Importance * 1.1)
		newItem := NewItem(item.Content, toTier, item.UserID, newImportance, metadata)
		newItem.SessionID = item.SessionID
		newItem.Context = item.Context
		if _, err := dst.Add(ctx, newItem); err != nil {
			log.Error("memory: consolidate failed to add target item", "id", item.ID, "err", err)
			continue
		}
		moved++
	}
	return moved, nil
}

// Forget delegates to the named tier's own forget policy.
func (m *Manager) Forget(ctx context.Context, typ Type, policy ForgetPolicy) (int, error) {
	tier := m.tier(typ)
	if tier == nil {
		return 0, ErrTierDisabled(typ)
	}
	return tier.Forget(ctx, policy)
}

// Stats reports per-tier counters for every enabled tier, for inspection
// tooling (cmd/agentctl's memory subcommand) rather than any operation
// spec.md itself names. A failing tier is logged and omitted, not fatal.
func (m *Manager) Stats(ctx context.Context) map[Type]Stats {
	out := map[Type]Stats{}
	for typ, tier := range m.tiers() {
		s, err := tier.Stats(ctx)
		if err != nil {
			log.Error("memory: tier stats failed, skipping", "tier", typ, "err", err)
			continue
		}
		out[typ] = s
	}
	return out
}

// Close is a no-op: every adapter behind the tiers (vector.Client,
// graph.Client, the embedding backends) is a stateless net/http wrapper with
// no connection pool or driver handle to release. It exists so callers can
// follow spec §5's "close() cascaded from the agent" lifecycle uniformly
// even though this implementation has nothing to tear down.
func (m *Manager) Close() error {
	return nil
}

// ErrTierDisabled reports an operation against a tier the Manager was not
// constructed with.
type ErrTierDisabled Type

func (e ErrTierDisabled) Error() string {
	return "memory: tier disabled: " + string(e)
}
