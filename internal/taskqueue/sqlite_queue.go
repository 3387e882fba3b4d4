package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abeauvois/ingestflow/internal/persistence"
)

// SQLiteQueue is a persistent job queue backed by SQLite.
// It is safe for concurrent use for our purposes, using simple FIFO
// semantics based on an auto-incrementing id. A claimed row is deleted in
// the same transaction that reads it, so a job is handed to exactly one
// worker.
type SQLiteQueue struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewSQLiteQueue initializes the jobs table in the given DB and returns a new queue.
func NewSQLiteQueue(db *sql.DB) (*SQLiteQueue, error) {
	q := &SQLiteQueue{
		db:           db,
		pollInterval: 20 * time.Millisecond,
	}
	if err := q.initSchema(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *SQLiteQueue) initSchema() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS ingest_jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			preset TEXT NOT NULL,
			options BLOB,
			enqueued_at INTEGER NOT NULL,
			not_before INTEGER NOT NULL,
			attempts INTEGER NOT NULL
		);
	`)
	return err
}

// Ensure SQLiteQueue implements Queue.
var _ Queue = (*SQLiteQueue)(nil)

func (q *SQLiteQueue) Enqueue(ctx context.Context, j Job) error {
	options, err := persistence.EncodeValue(j.Options)
	if err != nil {
		return err
	}

	now := time.Now()
	enqueuedAt := now.UnixNano()
	if !j.EnqueuedAt.IsZero() {
		enqueuedAt = j.EnqueuedAt.UnixNano()
	}

	var notBefore int64
	if j.NotBefore.IsZero() {
		notBefore = enqueuedAt
	} else {
		notBefore = j.NotBefore.UnixNano()
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO ingest_jobs (task_id, preset, options, enqueued_at, not_before, attempts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.TaskID,
		j.Preset,
		options,
		enqueuedAt,
		notBefore,
		j.Attempts,
	)
	return err
}

func (q *SQLiteQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		now := time.Now().UnixNano()

		tx, err := q.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}

		var (
			id          int64
			taskID      string
			preset      string
			options     []byte
			enqueuedInt int64
			notBefore   int64
			attempts    int
		)

		row := tx.QueryRowContext(ctx, `
			SELECT id, task_id, preset, options, enqueued_at, not_before, attempts
			FROM ingest_jobs
			WHERE not_before <= ?
			ORDER BY not_before, id
			LIMIT 1`, now)
		err = row.Scan(&id, &taskID, &preset, &options, &enqueuedInt, &notBefore, &attempts)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				_ = tx.Rollback()
				// Nothing available: sleep a bit and retry.
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(q.pollInterval):
					continue
				}
			}
			_ = tx.Rollback()
			return nil, err
		}

		// Delete the row we just claimed.
		if _, err := tx.ExecContext(ctx, `DELETE FROM ingest_jobs WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, err
		}

		decoded, err := persistence.DecodeValue[map[string]any](options)
		if err != nil {
			return nil, err
		}

		job := &Job{
			TaskID:     taskID,
			Preset:     preset,
			Options:    decoded,
			EnqueuedAt: time.Unix(0, enqueuedInt),
			NotBefore:  time.Unix(0, notBefore),
			Attempts:   attempts,
		}

		return job, nil
	}
}

func (q *SQLiteQueue) Len() int {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM ingest_jobs`).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}
