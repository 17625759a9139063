package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ewhitley/campusmate/internal/llm"
	"github.com/ewhitley/campusmate/internal/memory"
)

// fakeClient returns canned responses and records the calls it received.
type fakeClient struct {
	reply string
	err   error
	calls []llm.Message
}

func (f *fakeClient) Chat(ctx context.Context, model string, messages []llm.Message, tools []map[string]any) (*llm.ChatResponse, error) {
	f.calls = append(f.calls, messages...)
	if f.err != nil {
		return nil, f.err
	}
	resp := &llm.ChatResponse{}
	resp.Message.Role = "assistant"
	resp.Message.Content = f.reply
	return resp, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func testStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewStore(filepath.Join(t.TempDir(), "summary_test.db"))
	if err != nil {
		t.Fatalf("NewStore(): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShouldUpdate(t *testing.T) {
	tests := []struct {
		name    string
		project *memory.Project
		count   int
		want    bool
	}{
		{"nil project", nil, 100, false},
		{"empty conversation", &memory.Project{}, 0, false},
		{"no summary, below threshold", &memory.Project{}, 9, false},
		{"no summary, at threshold", &memory.Project{}, 10, true},
		{"no summary, past threshold", &memory.Project{}, 40, true},
		{"fresh summary", &memory.Project{Summary: "- notes", LastSummaryCount: 12}, 20, false},
		{"stale summary", &memory.Project{Summary: "- notes", LastSummaryCount: 12}, 37, true},
		{"just under refresh delta", &memory.Project{Summary: "- notes", LastSummaryCount: 12}, 36, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldUpdate(tt.project, tt.count); got != tt.want {
				t.Errorf("ShouldUpdate(%+v, %d) = %v, want %v", tt.project, tt.count, got, tt.want)
			}
		})
	}
}

func TestGenerateStoresSummary(t *testing.T) {
	store := testStore(t)
	client := &fakeClient{reply: "- discussed the lab report\n- next step: draft intro"}
	policy := NewPolicy(store, client, "test-model", discard())

	for _, content := range []string{"I need to finish the lab report", "Start with the intro section"} {
		if err := store.AddMessage("user", content, 0); err != nil {
			t.Fatal(err)
		}
	}

	got, err := policy.Generate(context.Background(), store.DefaultProjectID())
	if err != nil {
		t.Fatalf("Generate(): %v", err)
	}
	if got != client.reply {
		t.Errorf("Generate() = %q, want the model reply", got)
	}

	stored, err := store.Summary(store.DefaultProjectID())
	if err != nil {
		t.Fatal(err)
	}
	if stored != client.reply {
		t.Errorf("stored summary = %q", stored)
	}

	// The prompt is a system instruction plus one transcript message.
	if len(client.calls) != 2 {
		t.Fatalf("model saw %d messages, want 2", len(client.calls))
	}
	if client.calls[0].Role != "system" || client.calls[1].Role != "user" {
		t.Errorf("prompt roles = %q, %q", client.calls[0].Role, client.calls[1].Role)
	}
}

func TestGenerateEmptyHistory(t *testing.T) {
	store := testStore(t)
	client := &fakeClient{reply: "should not be called"}
	policy := NewPolicy(store, client, "test-model", discard())

	got, err := policy.Generate(context.Background(), store.DefaultProjectID())
	if err != nil {
		t.Fatalf("Generate() on empty history: %v", err)
	}
	if got != "" {
		t.Errorf("Generate() = %q, want empty for no history", got)
	}
	if len(client.calls) != 0 {
		t.Error("model should not be invoked with no history")
	}
}

func TestGenerateModelFailure(t *testing.T) {
	store := testStore(t)
	client := &fakeClient{err: errors.New("connection refused")}
	policy := NewPolicy(store, client, "test-model", discard())

	if err := store.AddMessage("user", "hello", 0); err != nil {
		t.Fatal(err)
	}

	if _, err := policy.Generate(context.Background(), store.DefaultProjectID()); err == nil {
		t.Fatal("Generate() should propagate model failure")
	}

	stored, err := store.Summary(store.DefaultProjectID())
	if err != nil {
		t.Fatal(err)
	}
	if stored != "" {
		t.Errorf("summary should stay empty after model failure, got %q", stored)
	}
}
