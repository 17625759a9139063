package tools

import "context"

type contextKey string

const projectIDKey contextKey = "project_id"

// WithProjectID adds the active project scope to the context so tool
// handlers (memory search, web search persistence) operate on the same
// project as the turn that invoked them.
func WithProjectID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, projectIDKey, id)
}

// ProjectIDFromContext extracts the project scope from the context.
// Returns 0 (the default-project sentinel) if not set.
func ProjectIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(projectIDKey).(int64); ok {
		return id
	}
	return 0
}
