package persistence

import (
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"strings"
	"time"

	"github.com/abeauvois/ingestflow/pkg/api"
)

func init() {
	gob.Register(api.TaskResult{})
}

// SQLiteStore is a TaskStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements TaskStore.
var _ TaskStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS ingest_tasks (
			id TEXT PRIMARY KEY,
			preset TEXT NOT NULL,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL,
			message TEXT NOT NULL,
			current_step TEXT,
			item_current INTEGER,
			item_total INTEGER,
			result BLOB,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func taskRow(t *api.Task) (currentStep sql.NullString, itemCurrent, itemTotal sql.NullInt64, result []byte, err error) {
	if t.CurrentStep != nil {
		currentStep = sql.NullString{String: *t.CurrentStep, Valid: true}
	}
	if t.ItemProgress != nil {
		itemCurrent = sql.NullInt64{Int64: int64(t.ItemProgress.Current), Valid: true}
		itemTotal = sql.NullInt64{Int64: int64(t.ItemProgress.Total), Valid: true}
	}
	if t.Result != nil {
		result, err = EncodeValue(*t.Result)
	}
	return currentStep, itemCurrent, itemTotal, result, err
}

func (s *SQLiteStore) CreateTask(ctx context.Context, t *api.Task) error {
	currentStep, itemCurrent, itemTotal, result, err := taskRow(t)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ingest_tasks (id, preset, status, progress, message, current_step, item_current, item_total, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Preset,
		string(t.Status),
		t.Progress,
		t.Message,
		currentStep,
		itemCurrent,
		itemTotal,
		result,
		t.CreatedAt.UnixNano(),
		t.UpdatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, t *api.Task) error {
	currentStep, itemCurrent, itemTotal, result, err := taskRow(t)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE ingest_tasks
		SET preset = ?, status = ?, progress = ?, message = ?, current_step = ?, item_current = ?, item_total = ?, result = ?, updated_at = ?
		WHERE id = ?`,
		t.Preset,
		string(t.Status),
		t.Progress,
		t.Message,
		currentStep,
		itemCurrent,
		itemTotal,
		result,
		t.UpdatedAt.UnixNano(),
		t.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

const taskColumns = `id, preset, status, progress, message, current_step, item_current, item_total, result, created_at, updated_at`

func scanTask(scan func(dest ...any) error) (*api.Task, error) {
	var (
		t           api.Task
		statusStr   string
		currentStep sql.NullString
		itemCurrent sql.NullInt64
		itemTotal   sql.NullInt64
		result      []byte
		createdAt   int64
		updatedAt   int64
	)

	if err := scan(&t.ID, &t.Preset, &statusStr, &t.Progress, &t.Message, &currentStep, &itemCurrent, &itemTotal, &result, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	t.Status = api.Status(statusStr)
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	t.UpdatedAt = time.Unix(0, updatedAt).UTC()

	if currentStep.Valid {
		step := currentStep.String
		t.CurrentStep = &step
	}
	if itemCurrent.Valid {
		t.ItemProgress = &api.ItemCounter{
			Current: int(itemCurrent.Int64),
			Total:   int(itemTotal.Int64),
		}
	}
	if len(result) > 0 {
		r, err := DecodeValue[api.TaskResult](result)
		if err != nil {
			return nil, err
		}
		t.Result = &r
	}

	return &t, nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*api.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM ingest_tasks
		WHERE id = ?`,
		id,
	)

	t, err := scanTask(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*api.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM ingest_tasks`
	var args []any
	var clauses []string

	if filter.Preset != "" {
		clauses = append(clauses, "preset = ?")
		args = append(args, filter.Preset)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*api.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}
