package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Import SQLite driver
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/fernhill/todosync/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS parent_tasks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	template_id  TEXT NOT NULL,
	token_values TEXT NOT NULL DEFAULT '{}',
	external_id  TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id   INTEGER NOT NULL REFERENCES parent_tasks(id),
	external_id TEXT NOT NULL,
	title       TEXT NOT NULL,
	labels      TEXT NOT NULL DEFAULT '[]',
	section_id  TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_external_id ON tasks(external_id);
CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id);
`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite-backed ledger at path.
// Pass ":memory:" for an in-process database.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// For :memory: databases, use shared cache so multiple connections see
	// the same data; WAL does not work there, so keep journal_mode DELETE.
	var connStr string
	isInMemory := path == ":memory:"
	if isInMemory {
		connStr = "file:ledger?mode=memory&cache=shared&_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)"
	} else if strings.HasPrefix(path, "file:") {
		connStr = path
		if !strings.Contains(path, "_pragma=foreign_keys") {
			connStr += "&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)"
		}
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite in-memory databases are isolated per connection by default;
	// force a single connection so all queries share the same data.
	if isInMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateRun inserts a new materialization run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, rec *types.ParentTaskRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	tokens, err := json.Marshal(rec.TokenValues)
	if err != nil {
		return fmt.Errorf("marshal token values: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO parent_tasks (template_id, token_values, external_id, created_at) VALUES (?, ?, ?, ?)`,
		rec.TemplateID, string(tokens), rec.ExternalID, rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	return nil
}

// SetRunExternalID records the external id of the run's root task.
func (s *SQLiteStore) SetRunExternalID(ctx context.Context, runID int64, externalID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE parent_tasks SET external_id = ? WHERE id = ? AND external_id = ''`,
		externalID, runID)
	if err != nil {
		return fmt.Errorf("set run external id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set run external id: %w", err)
	}
	if n == 0 {
		// Either the run does not exist or its external id is already set.
		rec, gerr := s.GetRun(ctx, runID)
		if gerr != nil {
			return gerr
		}
		if rec.ExternalID != "" {
			return fmt.Errorf("run %d: %w", runID, ErrExternalIDSet)
		}
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun fetches a run by local id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID int64) (*types.ParentTaskRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, template_id, token_values, external_id, created_at FROM parent_tasks WHERE id = ?`, runID)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*types.ParentTaskRecord, error) {
	var rec types.ParentTaskRecord
	var tokens, createdAt string
	if err := row.Scan(&rec.ID, &rec.TemplateID, &tokens, &rec.ExternalID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(tokens), &rec.TokenValues); err != nil {
		return nil, fmt.Errorf("parse token values: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

// RecordTask inserts a record for one created external task.
func (s *SQLiteStore) RecordTask(ctx context.Context, rec *types.ChildTaskRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	labels, err := json.Marshal(rec.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (parent_id, external_id, title, labels, section_id, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ParentID, rec.ExternalID, rec.Title, string(labels), rec.SectionID,
		boolToInt(rec.Completed), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	return nil
}

// GetTaskByExternalID fetches a task record by external id.
func (s *SQLiteStore) GetTaskByExternalID(ctx context.Context, externalID string) (*types.ChildTaskRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, parent_id, external_id, title, labels, section_id, completed, created_at
		 FROM tasks WHERE external_id = ?`, externalID)
	rec, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListTasksForRun returns the task records of one run in creation order.
func (s *SQLiteStore) ListTasksForRun(ctx context.Context, runID int64) ([]*types.ChildTaskRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, external_id, title, labels, section_id, completed, created_at
		 FROM tasks WHERE parent_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.ChildTaskRecord
	for rows.Next() {
		rec, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanTask(scan func(...any) error) (*types.ChildTaskRecord, error) {
	var rec types.ChildTaskRecord
	var labels, createdAt string
	var completed int
	if err := scan(&rec.ID, &rec.ParentID, &rec.ExternalID, &rec.Title, &labels,
		&rec.SectionID, &completed, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if err := json.Unmarshal([]byte(labels), &rec.Labels); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	rec.Completed = completed != 0
	return &rec, nil
}

// MarkCompleted transitions a task to completed. Monotonic: the WHERE
// clause makes marking an already completed task a no-op.
func (s *SQLiteStore) MarkCompleted(ctx context.Context, externalID, sectionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, section_id = ? WHERE external_id = ? AND completed = 0`,
		sectionID, externalID)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
