// Package memory provides the durable, project-scoped conversation log
// and per-project rolling summaries.
//
// All state lives in a single SQLite database with two tables: projects
// and messages. Messages are append-only and never mutated after
// insertion; summaries are rewritten in place by the summarization
// policy. A project id of 0 in any call resolves to the default project,
// which is created once at first startup and can never be deleted.
package memory

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by the store. Callers translate these into
// user-facing messages at the boundary.
var (
	// ErrDuplicateName is returned when creating a project whose name
	// is already taken.
	ErrDuplicateName = errors.New("project name already exists")

	// ErrNotFound is returned when a project id is unknown.
	ErrNotFound = errors.New("project not found")

	// ErrDefaultProject is returned when attempting to delete the
	// default project.
	ErrDefaultProject = errors.New("the default project cannot be deleted")
)

// Message is one entry in a project's conversation log.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // system, user, assistant, tool
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ProjectID int64     `json:"project_id"`
}

// Project is an isolated conversation scope with its own history,
// system prompt, and rolling summary.
type Project struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SystemPrompt string    `json:"system_prompt"`
	Summary      string    `json:"summary"` // empty = no summary yet
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// LastSummaryCount is the message count recorded when the summary
	// was last regenerated. The summarization policy compares it
	// against the live count to decide when a refresh is due.
	LastSummaryCount int `json:"last_summary_count"`

	// MessageCount is derived; populated by ListProjects only.
	MessageCount int `json:"message_count,omitempty"`
}

// ProjectUpdate names the mutable project fields. Nil pointers leave
// the stored value untouched.
type ProjectUpdate struct {
	Name         *string
	Description  *string
	SystemPrompt *string
}
