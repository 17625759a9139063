package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ewhitley/campusmate/internal/canvas"
	"github.com/ewhitley/campusmate/internal/memory"
	"github.com/ewhitley/campusmate/internal/recall"
	"github.com/ewhitley/campusmate/internal/search"
)

// memorySearchLimit bounds results handed back to the model.
const memorySearchLimit = 5

// Deps are the collaborators the built-in tools dispatch to.
type Deps struct {
	Canvas *canvas.Client
	Web    *search.WebTool
	Store  *memory.Store
	Logger *slog.Logger
}

// RegisterBuiltins populates the registry with the standard tool set:
// the four Canvas course tools, search_memory, and search_web.
func RegisterBuiltins(r *Registry, deps Deps) {
	r.Register(&Tool{
		Name:        "get_assignments",
		Description: "Get Canvas assignments and homework. Can filter by due date and status.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"due_date": map[string]any{
					"type":        "string",
					"description": "Filter by due date: 'today', 'tomorrow', 'this_week', or an explicit YYYY-MM-DD date.",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "Filter by status: 'overdue' (due before today) or 'upcoming' (due today or later).",
				},
			},
		},
		Handler: canvas.AssignmentsHandler(deps.Canvas),
	})

	r.Register(&Tool{
		Name:        "get_announcements",
		Description: "Get Canvas announcements and news from courses.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"unread_only": map[string]any{
					"type":        "boolean",
					"description": "Only return unread announcements.",
				},
				"course_id": map[string]any{
					"type":        "string",
					"description": "Limit to one course by its Canvas id.",
				},
			},
		},
		Handler: canvas.AnnouncementsHandler(deps.Canvas),
	})

	r.Register(&Tool{
		Name:        "get_calendar_events",
		Description: "Get Canvas calendar events and scheduled activities.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{
					"type":        "string",
					"description": "Range start: 'today', 'tomorrow', 'this_week', or YYYY-MM-DD.",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Range end, same formats. Defaults to the start date.",
				},
			},
		},
		Handler: canvas.EventsHandler(deps.Canvas),
	})

	r.Register(&Tool{
		Name:        "get_courses",
		Description: "Get the list of current active Canvas courses.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: canvas.CoursesHandler(deps.Canvas),
	})

	r.Register(&Tool{
		Name: "search_memory",
		Description: "Search through past conversation history for relevant information. " +
			"Use this when the user refers to previous discussions, asks about past topics, " +
			"or when context from earlier conversations would be helpful to answer their question.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"term": map[string]any{
					"type":        "string",
					"description": "The search term or keyword to look for in past conversations.",
				},
			},
			"required": []string{"term"},
		},
		Handler: memorySearchHandler(deps.Store),
	})

	r.Register(&Tool{
		Name: "search_web",
		Description: "Search the web for current information and summaries of the top result pages. " +
			"Use for questions about anything outside Canvas and conversation memory.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query string.",
				},
				"location": map[string]any{
					"type":        "string",
					"description": "Optional location to bias results (e.g., 'Austin, Texas').",
				},
			},
			"required": []string{"query"},
		},
		Handler: webSearchHandler(deps.Web, deps.Store, deps.Logger),
	})
}

// memorySearchHandler delegates to the memory store, scoped to the
// active project, and formats matches for model consumption.
func memorySearchHandler(store *memory.Store) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		term, _ := args["term"].(string)
		if term == "" {
			return "", fmt.Errorf("search_memory: term is required")
		}

		results, err := store.Search(term, memorySearchLimit, ProjectIDFromContext(ctx))
		if err != nil {
			return "", err
		}
		return recall.FormatForModel(results), nil
	}
}

// webSearchHandler runs the web search and hands the rich output to the
// model. The condensed output is persisted as a tool message so recall
// can find it later without storing scraped page text.
func webSearchHandler(web *search.WebTool, store *memory.Store, logger *slog.Logger) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		query, _ := args["query"].(string)
		if query == "" {
			return "", fmt.Errorf("search_web: query is required")
		}
		location, _ := args["location"].(string)

		out, err := web.Run(ctx, query, location)
		if err != nil {
			return "", err
		}

		if out.Condensed != "" {
			if err := store.AddMessage("tool", out.Condensed, ProjectIDFromContext(ctx)); err != nil {
				logger.Warn("failed to persist condensed web results", "error", err)
			}
		}

		return out.Rich, nil
	}
}
