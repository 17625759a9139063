// Package summary decides when a project's rolling summary is stale and
// regenerates it with a single model call. The rolling summary is an
// LLM-generated digest injected into future turns to bound prompt
// growth; it is distinct from the memory store's statistical digest.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ewhitley/campusmate/internal/llm"
	"github.com/ewhitley/campusmate/internal/memory"
)

// Thresholds for summary freshness. A project gets its first summary
// once it has firstAfter messages; after that, a refresh is due every
// refreshEvery messages since the last regeneration.
const (
	firstAfter   = 10
	refreshEvery = 25
)

// historyLimit is how many recent messages seed the summarization prompt.
const historyLimit = 50

// instruction is the fixed summarization prompt.
const instruction = "Summarize this conversation in 3-5 bullet points. " +
	"Cover: the topics discussed, any decisions made, the current status, " +
	"and agreed next steps. Be concise and specific."

// Policy evaluates and regenerates project summaries.
type Policy struct {
	store  *memory.Store
	client llm.Client
	model  string
	logger *slog.Logger
}

// NewPolicy creates a summarization policy.
func NewPolicy(store *memory.Store, client llm.Client, model string, logger *slog.Logger) *Policy {
	return &Policy{
		store:  store,
		client: client,
		model:  model,
		logger: logger.With("component", "summary"),
	}
}

// ShouldUpdate reports whether the project's summary is due for
// regeneration given its live message count. The delta against
// LastSummaryCount keeps a crossed threshold from re-triggering on
// every subsequent turn.
func ShouldUpdate(p *memory.Project, messageCount int) bool {
	if p == nil || messageCount == 0 {
		return false
	}
	if p.Summary == "" {
		return messageCount >= firstAfter
	}
	return messageCount-p.LastSummaryCount >= refreshEvery
}

// Generate builds the summarization prompt from the project's recent
// history, invokes the model once, and stores the result. Returns ""
// without error when there is no history to summarize; model failures
// are returned to the caller (who logs and moves on — a stale summary
// is never fatal to a turn).
func (p *Policy) Generate(ctx context.Context, projectID int64) (string, error) {
	history, err := p.store.Recent(historyLimit, projectID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		p.logger.Debug("no history to summarize", "project", projectID)
		return "", nil
	}

	var transcript strings.Builder
	for _, m := range history {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	messages := []llm.Message{
		{Role: "system", Content: instruction},
		{Role: "user", Content: transcript.String()},
	}

	resp, err := p.client.Chat(ctx, p.model, messages, nil)
	if err != nil {
		return "", fmt.Errorf("summary model call: %w", err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return "", fmt.Errorf("summary model returned empty content")
	}

	if _, err := p.store.SetSummary(projectID, text); err != nil {
		return "", fmt.Errorf("store summary: %w", err)
	}

	p.logger.Info("project summary regenerated",
		"project", projectID,
		"messages", len(history),
		"length", len(text),
	)
	return text, nil
}
