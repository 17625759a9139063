package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateProject inserts a new project and returns its id. The name must
// be unique; collisions return ErrDuplicateName. An empty systemPrompt
// gets a generated template referencing the name and description.
func (s *Store) CreateProject(name, description, systemPrompt string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("project name must not be empty")
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt(name, description)
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO projects (name, description, system_prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, description, systemPrompt, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateName
		}
		return 0, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("project id: %w", err)
	}
	return id, nil
}

// defaultSystemPrompt builds the template prompt for projects created
// without an explicit one.
func defaultSystemPrompt(name, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI assistant working on the %q project.", name)
	if description != "" {
		fmt.Fprintf(&b, " Project context: %s", description)
	}
	b.WriteString(" You have access to Canvas LMS tools, web search, and conversation memory.")
	return b.String()
}

// GetProject fetches a project by id. Returns ErrNotFound for unknown ids.
func (s *Store) GetProject(id int64) (*Project, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, system_prompt, summary, last_summary_count, created_at, updated_at
		FROM projects WHERE id = ?
	`, s.resolve(id))

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// UpdateProject applies the non-nil fields of upd. Returns false when
// the id is unknown, ErrDuplicateName when renaming onto a taken name.
func (s *Store) UpdateProject(id int64, upd ProjectUpdate) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*upd.Name))
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.SystemPrompt != nil {
		sets = append(sets, "system_prompt = ?")
		args = append(args, *upd.SystemPrompt)
	}

	args = append(args, id)
	res, err := s.db.Exec(`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicateName
		}
		return false, fmt.Errorf("update project: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteProject removes a project and, via the foreign key cascade, all
// of its messages. Deleting the default project is refused with
// ErrDefaultProject. Returns false for unknown ids.
func (s *Store) DeleteProject(id int64) (bool, error) {
	if id == s.defaultID || id == 0 {
		return false, ErrDefaultProject
	}

	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListProjects returns all projects ordered by most-recently-updated
// first, each with its derived message count.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.description, p.system_prompt, p.summary,
		       p.last_summary_count, p.created_at, p.updated_at,
		       COUNT(m.id)
		FROM projects p
		LEFT JOIN messages m ON m.project_id = p.id
		GROUP BY p.id
		ORDER BY p.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var summary sql.NullString
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SystemPrompt, &summary,
			&p.LastSummaryCount, &p.CreatedAt, &p.UpdatedAt, &p.MessageCount)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Summary = summary.String
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SetSummary stores a regenerated rolling summary and records the
// message count at regeneration time so the policy can track the delta.
// Returns false for unknown ids.
func (s *Store) SetSummary(projectID int64, text string) (bool, error) {
	pid := s.resolve(projectID)
	count, err := s.CountMessages(pid)
	if err != nil {
		return false, err
	}

	res, err := s.db.Exec(`
		UPDATE projects SET summary = ?, last_summary_count = ?, updated_at = ?
		WHERE id = ?
	`, text, count, time.Now().UTC(), pid)
	if err != nil {
		return false, fmt.Errorf("set summary: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Summary returns the project's rolling summary, or "" when none has
// been generated yet.
func (s *Store) Summary(projectID int64) (string, error) {
	var summary sql.NullString
	err := s.db.QueryRow(`SELECT summary FROM projects WHERE id = ?`, s.resolve(projectID)).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get summary: %w", err)
	}
	return summary.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var summary sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SystemPrompt, &summary,
		&p.LastSummaryCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Summary = summary.String
	return &p, nil
}
