package search

import (
	"context"
	"strings"
	"testing"
)

type stubProvider struct {
	name    string
	results []Result
	err     error
	queries []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func TestManagerRoutesToPrimary(t *testing.T) {
	primary := &stubProvider{name: "primary", results: []Result{{Title: "hit"}}}
	other := &stubProvider{name: "other"}

	mgr := NewManager("primary")
	mgr.Register(other)
	mgr.Register(primary)

	got, err := mgr.Search(context.Background(), "query", Options{})
	if err != nil {
		t.Fatalf("Search(): %v", err)
	}
	if len(got) != 1 || got[0].Title != "hit" {
		t.Errorf("Search() = %+v", got)
	}
	if len(primary.queries) != 1 || len(other.queries) != 0 {
		t.Error("query should only reach the primary provider")
	}
}

func TestManagerUnconfigured(t *testing.T) {
	mgr := NewManager("serpapi")
	if mgr.Configured() {
		t.Error("Configured() = true with no providers")
	}
	if _, err := mgr.Search(context.Background(), "q", Options{}); err == nil {
		t.Fatal("Search() with no providers should error")
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		{Title: "First", URL: "https://a.example", Snippet: "short snippet"},
		{Title: "Second", URL: "https://b.example"},
	}

	got := FormatResults(results, 0)
	if !strings.Contains(got, "1. First") || !strings.Contains(got, "2. Second") {
		t.Errorf("missing numbered titles: %q", got)
	}
	if !strings.Contains(got, "short snippet") || !strings.Contains(got, "https://b.example") {
		t.Errorf("missing snippet or link: %q", got)
	}

	if got := FormatResults(results, 1); strings.Contains(got, "Second") {
		t.Errorf("limit 1 should drop the second result: %q", got)
	}

	if got := FormatResults(nil, 5); got != "No results found." {
		t.Errorf("empty FormatResults() = %q", got)
	}
}

func TestFormatResultsSnippetTruncation(t *testing.T) {
	long := strings.Repeat("s", 400)
	got := FormatResults([]Result{{Title: "T", URL: "https://x.example", Snippet: long}}, 0)
	if strings.Contains(got, long) {
		t.Error("long snippet should be truncated")
	}
	if !strings.Contains(got, "...") {
		t.Errorf("truncated snippet should end with ellipsis: %q", got)
	}
}
