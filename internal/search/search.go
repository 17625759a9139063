// Package search provides a pluggable web search interface for the agent.
//
// Each search provider implements the [Provider] interface and is
// registered by name. The [Manager] selects a provider based on
// configuration and exposes a single [Manager.Search] method that
// the tool layer calls.
package search

import (
	"context"
	"fmt"
	"strings"
)

// Result is a single search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Options are optional parameters for a search query.
type Options struct {
	// Count is the maximum number of results to return.
	// Providers may return fewer. Zero means provider default.
	Count int `json:"count,omitempty"`

	// Location biases results toward a geographic area (e.g., "Austin,
	// Texas"). Providers that don't support it ignore it.
	Location string `json:"location,omitempty"`
}

// Provider is the interface that search backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "serpapi").
	Name() string

	// Search executes a query and returns ranked results.
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// Manager holds configured providers and routes searches.
type Manager struct {
	providers map[string]Provider
	primary   string
}

// NewManager creates a search manager. The primary provider name
// determines which backend is used by default.
func NewManager(primary string) *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		primary:   primary,
	}
}

// Register adds a provider to the manager.
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Search runs a query against the primary provider.
func (m *Manager) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	p, ok := m.providers[m.primary]
	if !ok {
		return nil, fmt.Errorf("search provider %q not configured", m.primary)
	}
	return p.Search(ctx, query, opts)
}

// Configured reports whether at least one provider is registered.
func (m *Manager) Configured() bool {
	return len(m.providers) > 0
}

// maxSnippet bounds snippet length in formatted output.
const maxSnippet = 200

// FormatResults renders up to n results as numbered lines with title,
// truncated snippet, and link.
func FormatResults(results []Result, n int) string {
	if len(results) == 0 {
		return "No results found."
	}
	if n <= 0 || n > len(results) {
		n = len(results)
	}

	var b strings.Builder
	for i, r := range results[:n] {
		snippet := r.Snippet
		if len(snippet) > maxSnippet {
			snippet = snippet[:maxSnippet-3] + "..."
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
		fmt.Fprintf(&b, "   %s\n", r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
