package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ewhitley/campusmate/internal/fetch"
)

// Tuning for the page-summary batch. Fetches run in a bounded pool; a
// slow or dead URL costs one placeholder line, never the batch.
const (
	// summarizeTop is how many top results get their pages fetched.
	summarizeTop = 3

	// poolSize caps concurrent page fetches.
	poolSize = 3

	// perFetchTimeout bounds one page download.
	perFetchTimeout = 8 * time.Second

	// batchTimeout bounds the whole summary batch.
	batchTimeout = 20 * time.Second

	// summaryChars is the extracted-text budget per page.
	summaryChars = 1200
)

// Output is the two-tier result of a web search: Rich goes to the model,
// Condensed is safe to persist to memory without scraped-page bloat.
type Output struct {
	Rich      string
	Condensed string
}

// WebTool runs search queries and enriches the top results with fetched
// page summaries.
type WebTool struct {
	mgr     *Manager
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewWebTool creates the search_web tool implementation.
func NewWebTool(mgr *Manager, fetcher *fetch.Fetcher, logger *slog.Logger) *WebTool {
	return &WebTool{
		mgr:     mgr,
		fetcher: fetcher,
		logger:  logger.With("component", "websearch"),
	}
}

// Run executes the query and builds both output tiers.
func (t *WebTool) Run(ctx context.Context, query, location string) (*Output, error) {
	if !t.mgr.Configured() {
		return &Output{
			Rich:      "Web search is not configured. Set SERPAPI_KEY.",
			Condensed: "",
		}, nil
	}

	results, err := t.mgr.Search(ctx, query, Options{Location: location})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Output{
			Rich:      fmt.Sprintf("No web results found for %q.", query),
			Condensed: "",
		}, nil
	}

	var rich strings.Builder
	fmt.Fprintf(&rich, "Web results for %q:\n", query)
	rich.WriteString(FormatResults(results, len(results)))

	summaries := t.summarizePages(ctx, results)
	if len(summaries) > 0 {
		rich.WriteString("\n\nPage summaries:\n")
		rich.WriteString(strings.Join(summaries, "\n"))
	}

	return &Output{
		Rich:      rich.String(),
		Condensed: condense(query, results),
	}, nil
}

// summarizePages fetches the top results concurrently and returns one
// line (or block) per URL, in rank order. Every requested URL produces
// an entry: failures become placeholder lines.
func (t *WebTool) summarizePages(ctx context.Context, results []Result) []string {
	n := summarizeTop
	if n > len(results) {
		n = len(results)
	}
	if n == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	summaries := make([]string, n)
	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int, r Result) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetchCtx, fetchCancel := context.WithTimeout(ctx, perFetchTimeout)
			defer fetchCancel()

			page, err := t.fetcher.Fetch(fetchCtx, r.URL, summaryChars)
			if err != nil {
				t.logger.Debug("page fetch failed", "url", r.URL, "error", err)
				summaries[i] = fmt.Sprintf("[%d] %s — could not fetch page (%s)", i+1, r.URL, shortError(err))
				return
			}

			title := page.Title
			if title == "" {
				title = r.Title
			}
			summaries[i] = fmt.Sprintf("[%d] %s (%s)\n%s", i+1, title, r.URL, page.Content)
		}(i, results[i])
	}

	wg.Wait()
	return summaries
}

// condense builds the bounded form stored in conversation memory:
// query, titles, and links only — no scraped page text.
func condense(query string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Web search: %q\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, r.Title, r.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// shortError bounds error text destined for model-visible content.
func shortError(err error) string {
	msg := err.Error()
	if len(msg) > 120 {
		msg = msg[:117] + "..."
	}
	return msg
}
