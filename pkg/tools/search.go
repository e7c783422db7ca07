package tools

import (
	"context"
	"strings"

	"github.com/quillhive/agentcore/pkg/chat"
)

// SearchFunc is the injectable (query) -> text[] hook a production
// deployment wires a real search backend through.
type SearchFunc func(ctx context.Context, query string) ([]string, error)

// SearchTool is an explicitly mock async search tool: absent an injected
// SearchFunc, it returns canned placeholder strings keyed on keyword
// detection in the query. It exists so the tool-calling loop and its tests
// have something to call without a live network dependency; production
// deployments inject their own SearchFunc.
type SearchTool struct {
	fn SearchFunc
}

// NewSearchTool constructs a SearchTool. Pass nil to use the canned mock
// behavior.
func NewSearchTool(fn SearchFunc) *SearchTool {
	return &SearchTool{fn: fn}
}

func (t *SearchTool) Name() string { return "search" }

func (t *SearchTool) Description() string {
	return "searches for information relevant to a query (mock unless a backend is configured)"
}

func (t *SearchTool) Parameters() []chat.ToolParameter {
	return []chat.ToolParameter{
		{Name: "input", Type: chat.ParamString, Description: "the search query", Required: true},
		{Name: "query", Type: chat.ParamString, Description: "alias for input", Required: false},
	}
}

func (t *SearchTool) Run(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["input"].(string)
	if query == "" {
		query, _ = args["query"].(string)
	}

	var (
		results []string
		err     error
	)
	if t.fn != nil {
		results, err = t.fn(ctx, query)
	} else {
		results, err = mockSearch(ctx, query)
	}
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "no results found", nil
	}
	return strings.Join(results, "\n"), nil
}

// canned placeholder results, keyed on a keyword found in the query.
var mockSearchCatalog = map[string]string{
	"weather":  "it is sunny with a light breeze",
	"news":     "no major headlines at this time",
	"time":     "the current time depends on your timezone",
	"location": "location services are not available in this mock",
}

func mockSearch(_ context.Context, query string) ([]string, error) {
	lower := strings.ToLower(query)
	for keyword, result := range mockSearchCatalog {
		if strings.Contains(lower, keyword) {
			return []string{result}, nil
		}
	}
	return []string{"no specific information found for: " + query}, nil
}
