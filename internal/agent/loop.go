// Package agent implements the core orchestration loop: one user
// message in, one final assistant reply out.
//
// Each turn follows a fixed path. The user message is persisted before
// anything else, so a crash never loses input. The summarization policy
// then gets a chance to refresh the project's rolling summary, the
// recall heuristic gets a chance to short-circuit the turn without a
// model call, and otherwise the model is invoked with the tool catalog.
// A turn allows at most one round of tool calls: tool results are folded
// back into the context and the model is invoked a second time, with no
// tools offered, to produce the final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ewhitley/campusmate/internal/llm"
	"github.com/ewhitley/campusmate/internal/memory"
	"github.com/ewhitley/campusmate/internal/recall"
	"github.com/ewhitley/campusmate/internal/summary"
	"github.com/ewhitley/campusmate/internal/tools"
)

// recallLimit bounds results for heuristic-triggered memory searches.
const recallLimit = 5

// defaultSystemPrompt is used when the project has no prompt of its own.
const defaultSystemPrompt = "You are an AI assistant with access to Canvas LMS tools, web search, and conversation memory."

// systemDirective is appended to every system prompt.
const systemDirective = "When users ask about assignments, homework, announcements, calendar events, " +
	"or courses, use the appropriate Canvas tools to get real data. When users refer to past " +
	"conversations or context from earlier discussions would help, use the search_memory tool. " +
	"For current information from the internet, use the search_web tool. Be helpful and " +
	"conversational, and search memory proactively when it would provide valuable context."

// Loop is the orchestration core. It owns no state of its own; all
// durable state lives in the memory store.
type Loop struct {
	store        *memory.Store
	registry     *tools.Registry
	client       llm.Client
	policy       *summary.Policy
	model        string
	historyLimit int
	logger       *slog.Logger
}

// NewLoop creates an orchestration loop. historyLimit is the number of
// persisted messages included in the model context each turn.
func NewLoop(store *memory.Store, registry *tools.Registry, client llm.Client, policy *summary.Policy, model string, historyLimit int, logger *slog.Logger) *Loop {
	if historyLimit <= 0 {
		historyLimit = 6
	}
	return &Loop{
		store:        store,
		registry:     registry,
		client:       client,
		policy:       policy,
		model:        model,
		historyLimit: historyLimit,
		logger:       logger.With("component", "agent"),
	}
}

// HandleTurn processes one user message through to one final assistant
// reply. projectID 0 resolves to the default project. Tool failures are
// folded into the turn as error content; a model invocation failure
// propagates to the caller with the user message already persisted.
func (l *Loop) HandleTurn(ctx context.Context, message string, projectID int64) (string, error) {
	if projectID == 0 {
		projectID = l.store.DefaultProjectID()
	}
	ctx = tools.WithProjectID(ctx, projectID)

	l.logger.Info("turn started", "project", projectID, "chars", len(message))

	// Durability first: the user's input survives anything after this.
	if err := l.store.AddMessage("user", message, projectID); err != nil {
		return "", fmt.Errorf("log user message: %w", err)
	}

	l.maybeRefreshSummary(ctx, projectID)

	// Deterministic recall path: no model call at all.
	if term, ok := recall.Detect(message); ok {
		return l.recallReply(projectID, term)
	}

	messages, err := l.buildContext(projectID)
	if err != nil {
		return "", err
	}

	resp, err := l.client.Chat(ctx, l.model, messages, l.registry.Catalog())
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}

	if len(resp.Message.ToolCalls) == 0 {
		return l.finishTurn(projectID, resp.Message.Content)
	}

	// One round of tool calls, then a final no-tools completion.
	messages = append(messages, llm.Message{
		Role:      "assistant",
		ToolCalls: resp.Message.ToolCalls,
	})
	messages = append(messages, l.dispatchTools(ctx, resp.Message.ToolCalls)...)

	final, err := l.client.Chat(ctx, l.model, messages, nil)
	if err != nil {
		return "", fmt.Errorf("final model call: %w", err)
	}

	return l.finishTurn(projectID, final.Message.Content)
}

// maybeRefreshSummary consults the summarization policy and, when due,
// regenerates the rolling summary synchronously. Regeneration is
// infrequent enough that blocking the turn is acceptable; failure only
// costs a stale summary.
func (l *Loop) maybeRefreshSummary(ctx context.Context, projectID int64) {
	project, err := l.store.GetProject(projectID)
	if err != nil {
		l.logger.Warn("summary check: project lookup failed", "project", projectID, "error", err)
		return
	}
	count, err := l.store.CountMessages(projectID)
	if err != nil {
		l.logger.Warn("summary check: count failed", "project", projectID, "error", err)
		return
	}

	if !summary.ShouldUpdate(project, count) {
		return
	}

	l.logger.Info("refreshing project summary", "project", projectID, "messages", count)
	if _, err := l.policy.Generate(ctx, projectID); err != nil {
		l.logger.Warn("summary regeneration failed", "project", projectID, "error", err)
	}
}

// recallReply answers a detected memory query directly from the store.
func (l *Loop) recallReply(projectID int64, term string) (string, error) {
	results, err := l.store.Search(term, recallLimit, projectID)
	if err != nil {
		return "", fmt.Errorf("memory search: %w", err)
	}

	reply := recall.FormatResults(results, term)
	l.logger.Info("recall short-circuit", "project", projectID, "term", term, "hits", len(results))
	return l.finishTurn(projectID, reply)
}

// buildContext assembles the model context in fixed order: system
// prompt, optional project summary, bounded recent history. The current
// user message is already persisted, so it arrives as the newest entry
// of the history window rather than being appended separately.
func (l *Loop) buildContext(projectID int64) ([]llm.Message, error) {
	project, err := l.store.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	prompt := project.SystemPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultSystemPrompt
	}

	messages := []llm.Message{{
		Role: "system",
		Content: fmt.Sprintf("%s The current date is %s. %s",
			prompt, time.Now().Format("January 2, 2006"), systemDirective),
	}}

	if project.Summary != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "Project summary: " + project.Summary,
		})
	}

	history, err := l.store.Recent(l.historyLimit, projectID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	return messages, nil
}

// dispatchTools executes each requested call against the registry and
// returns the tool-role messages to fold back into the context. Every
// failure mode becomes content: unknown names get a literal "Unknown
// tool" result and handler errors become error text. The turn proceeds
// regardless — tools are untrusted I/O, the model call is the spine.
func (l *Loop) dispatchTools(ctx context.Context, calls []llm.ToolCall) []llm.Message {
	results := make([]llm.Message, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name
		started := time.Now()

		content, err := l.registry.Execute(ctx, name, call.Function.Arguments)
		switch {
		case err == nil:
			l.logger.Info("tool executed", "tool", name, "duration", time.Since(started))
		default:
			var unavailable *tools.ErrToolUnavailable
			if errors.As(err, &unavailable) {
				content = "Unknown tool: " + name
			} else {
				content = "Error: " + err.Error()
			}
			l.logger.Warn("tool failed", "tool", name, "error", err)
		}

		results = append(results, llm.Message{
			Role:    "tool",
			Name:    name,
			Content: content,
		})
	}
	return results
}

// finishTurn persists the assistant reply and returns it.
func (l *Loop) finishTurn(projectID int64, reply string) (string, error) {
	if err := l.store.AddMessage("assistant", reply, projectID); err != nil {
		return "", fmt.Errorf("log assistant message: %w", err)
	}
	l.logger.Info("turn completed", "project", projectID, "chars", len(reply))
	return reply, nil
}
