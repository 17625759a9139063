package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// DefaultProjectName is the name of the auto-created default project.
const DefaultProjectName = "General"

// Store is the SQLite-backed memory store. All public methods are safe
// for concurrent use (SQLite serializes writes; WAL mode keeps readers
// from blocking on writers).
type Store struct {
	db        *sql.DB
	defaultID int64
}

// NewStore opens (or creates) the database at dbPath, runs migrations,
// and ensures the default project exists. The default project id is
// resolved once here, not re-derived per call.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := s.ensureDefaultProject(); err != nil {
		db.Close()
		return nil, fmt.Errorf("default project: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		name               TEXT NOT NULL UNIQUE,
		description        TEXT NOT NULL DEFAULT '',
		system_prompt      TEXT NOT NULL DEFAULT '',
		summary            TEXT,
		last_summary_count INTEGER NOT NULL DEFAULT 0,
		created_at         TIMESTAMP NOT NULL,
		updated_at         TIMESTAMP NOT NULL
	);

	-- project_id is nullable: rows written before projects existed are
	-- attributed to the default project at query time.
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		timestamp  TIMESTAMP NOT NULL,
		project_id INTEGER REFERENCES projects(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_project ON messages(project_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ensureDefaultProject creates the default project on first startup and
// caches its id for the lifetime of the store.
func (s *Store) ensureDefaultProject() error {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM projects ORDER BY id ASC LIMIT 1`).Scan(&id)
	switch {
	case err == nil:
		s.defaultID = id
		return nil
	case errors.Is(err, sql.ErrNoRows):
		id, err := s.CreateProject(DefaultProjectName, "General conversations that don't belong to a specific project.", "")
		if err != nil {
			return err
		}
		s.defaultID = id
		return nil
	default:
		return err
	}
}

// DefaultProjectID returns the id of the default project.
func (s *Store) DefaultProjectID() int64 {
	return s.defaultID
}

// resolve maps the 0 sentinel to the default project id.
func (s *Store) resolve(projectID int64) int64 {
	if projectID == 0 {
		return s.defaultID
	}
	return projectID
}

// scopeClause returns a WHERE fragment and args matching messages in the
// given project. The default project additionally owns legacy rows with
// a NULL project_id.
func (s *Store) scopeClause(projectID int64) (string, []any) {
	id := s.resolve(projectID)
	if id == s.defaultID {
		return "(project_id = ? OR project_id IS NULL)", []any{id}
	}
	return "project_id = ?", []any{id}
}

// AddMessage appends a message to a project's log. Empty content is
// permitted; validation of user input happens at the boundary.
func (s *Store) AddMessage(role, content string, projectID int64) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("message id: %w", err)
	}
	now := time.Now().UTC()
	pid := s.resolve(projectID)

	_, err = s.db.Exec(`
		INSERT INTO messages (id, role, content, timestamp, project_id)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), role, content, now, pid)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = s.db.Exec(`UPDATE projects SET updated_at = ? WHERE id = ?`, now, pid)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}

	return nil
}

// Recent returns the last limit messages for the scope in chronological
// order (oldest first). The query fetches newest-first for an efficient
// bound, then reverses.
func (s *Store) Recent(limit int, projectID int64) ([]Message, error) {
	where, args := s.scopeClause(projectID)
	args = append(args, limit)

	rows, err := s.db.Query(`
		SELECT id, role, content, timestamp, COALESCE(project_id, ?)
		FROM messages
		WHERE `+where+`
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, append([]any{s.defaultID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Search returns messages whose content contains term, newest first.
// Matching is case-insensitive for ASCII (SQLite LIKE semantics).
func (s *Store) Search(term string, limit int, projectID int64) ([]Message, error) {
	if limit <= 0 {
		limit = 5
	}
	where, args := s.scopeClause(projectID)
	args = append(args, "%"+term+"%", limit)

	rows, err := s.db.Query(`
		SELECT id, role, content, timestamp, COALESCE(project_id, ?)
		FROM messages
		WHERE `+where+` AND content LIKE ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, append([]any{s.defaultID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query search: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CountMessages returns the number of messages in the scope.
func (s *Store) CountMessages(projectID int64) (int, error) {
	where, args := s.scopeClause(projectID)

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// ClearMessages deletes all messages in the scope. The project row
// itself is untouched.
func (s *Store) ClearMessages(projectID int64) error {
	where, args := s.scopeClause(projectID)

	_, err := s.db.Exec(`DELETE FROM messages WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

// Digest returns a lightweight statistical digest of the trailing
// window: total and user-authored message counts. This is not the
// LLM-generated project summary. Returns "" when the window is empty.
func (s *Store) Digest(days int, projectID int64) (string, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	where, args := s.scopeClause(projectID)
	args = append(args, cutoff)

	var total, user int
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN role = 'user' THEN 1 ELSE 0 END), 0)
		FROM messages
		WHERE `+where+` AND timestamp >= ?
	`, args...).Scan(&total, &user)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}

	if total == 0 {
		return "", nil
	}
	return fmt.Sprintf("Last %d days: %d messages (%d from user)", days, total, user), nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp, &m.ProjectID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}
