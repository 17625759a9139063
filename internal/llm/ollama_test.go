package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatDecodesResponse(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"model": "test-model", "message": {"role": "assistant", "content": "hi"}, "done": true}`)
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL)
	resp, err := client.Chat(context.Background(), "test-model",
		[]Message{{Role: "user", Content: "hello"}}, nil)
	if err != nil {
		t.Fatalf("Chat(): %v", err)
	}

	if resp.Message.Content != "hi" || resp.Message.Role != "assistant" {
		t.Errorf("response message = %+v", resp.Message)
	}
	if gotReq.Stream {
		t.Error("requests must be non-streaming")
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 1 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestChatNativeToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"role": "assistant", "content": "",
			"tool_calls": [{"function": {"name": "get_courses", "arguments": {}}}]}, "done": true}`)
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL)
	resp, err := client.Chat(context.Background(), "m", nil, []map[string]any{{"type": "function"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Message.ToolCalls) != 1 || resp.Message.ToolCalls[0].Function.Name != "get_courses" {
		t.Errorf("ToolCalls = %+v", resp.Message.ToolCalls)
	}
}

func TestChatRecoversTextToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": {"role": "assistant",
			"content": "{\"name\": \"search_memory\", \"arguments\": {\"term\": \"exam\"}}"}, "done": true}`)
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL)

	// With tools offered, JSON-shaped content is recovered as a call.
	resp, err := client.Chat(context.Background(), "m", nil, []map[string]any{{"type": "function"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Message.ToolCalls) != 1 || resp.Message.ToolCalls[0].Function.Name != "search_memory" {
		t.Fatalf("ToolCalls = %+v", resp.Message.ToolCalls)
	}
	if resp.Message.Content != "" {
		t.Errorf("content should be cleared after recovery, got %q", resp.Message.Content)
	}

	// Without tools, the same content is a plain answer.
	resp, err = client.Chat(context.Background(), "m", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Message.ToolCalls) != 0 {
		t.Errorf("no-tools call should not synthesize tool calls: %+v", resp.Message.ToolCalls)
	}
}

func TestChatHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL)
	if _, err := client.Chat(context.Background(), "missing", nil, nil); err == nil {
		t.Fatal("expected an error for HTTP 404")
	}
}

func TestParseTextToolCalls(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string // tool names, nil means no calls
	}{
		{"empty", "", nil},
		{"plain text", "The answer is 42.", nil},
		{"json without name", `{"answer": 42}`, nil},
		{"single object", `{"name": "get_courses", "arguments": {}}`, []string{"get_courses"}},
		{"array", `[{"name": "a", "arguments": {}}, {"name": "b", "arguments": {}}]`, []string{"a", "b"}},
		{"tagged", `<tool_call>{"name": "get_assignments", "arguments": {"status": "overdue"}}</tool_call>`, []string{"get_assignments"}},
		{"unclosed tag", `<tool_call>{"name": "get_courses", "arguments": {}}`, []string{"get_courses"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTextToolCalls(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d calls, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Function.Name != name {
					t.Errorf("call %d name = %q, want %q", i, got[i].Function.Name, name)
				}
			}
		})
	}
}

func TestParseTextToolCallsArguments(t *testing.T) {
	got := parseTextToolCalls(`{"name": "search_memory", "arguments": {"term": "midterm"}}`)
	if len(got) != 1 {
		t.Fatalf("got %d calls, want 1", len(got))
	}
	if term, _ := got[0].Function.Arguments["term"].(string); term != "midterm" {
		t.Errorf("arguments = %v", got[0].Function.Arguments)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models": []}`)
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping(): %v", err)
	}
}
