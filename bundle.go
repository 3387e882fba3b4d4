package ingestflow

import (
	"database/sql"

	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/internal/taskqueue"
	workerpkg "github.com/abeauvois/ingestflow/pkg/worker"
)

// WorkerBundle wires together an Engine, a durable job queue, and a
// Worker that consumes jobs from that queue.
//
// For now, only a SQLite-backed bundle is provided.
type WorkerBundle struct {
	Engine *engine.Coordinator
	Worker *workerpkg.Worker

	// queue is kept unexported; it is primarily useful for internal
	// inspection and tests. The public API focuses on Engine and Worker.
	queue taskqueue.Queue
}

// NewSQLiteBundle constructs a durable Engine + Queue + Worker combo
// sharing the same SQLite database. Tasks and queued jobs survive process
// restarts; call RecoverStuckTasks on startup before starting workers.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:ingestflow.db?_journal=WAL")
//	bundle, err := ingestflow.NewSQLiteBundle(db, reg)
//	// submit via bundle.Engine, process via bundle.Worker
func NewSQLiteBundle(db *sql.DB, reg *Registry) (*WorkerBundle, error) {
	eng, err := engine.NewSQLite(db, reg)
	if err != nil {
		return nil, err
	}

	w := workerpkg.New(eng, eng.Queue())

	return &WorkerBundle{
		Engine: eng,
		Worker: w,
		queue:  eng.Queue(),
	}, nil
}
