package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	_ "modernc.org/sqlite"

	"github.com/abeauvois/ingestflow"
	"github.com/abeauvois/ingestflow/internal/config"
	"github.com/abeauvois/ingestflow/internal/engine"
	"github.com/abeauvois/ingestflow/internal/httpapi"
	"github.com/abeauvois/ingestflow/pkg/log"
	"github.com/abeauvois/ingestflow/pkg/worker"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr string
	dbPath     string
	workers    int
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Run the ingestflow HTTP server and workers.")
	c.Cmd.Flag("listen", "HTTP listen address (overrides config).").StringVar(&c.listenAddr)
	c.Cmd.Flag("db-path", "SQLite database file (overrides config; empty means in-memory).").StringVar(&c.dbPath)
	c.Cmd.Flag("workers", "Number of job workers (overrides config).").IntVar(&c.workers)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cfg := config.Default()
	if c.rootCmd.ConfigPath != "" {
		var err error
		cfg, err = config.Load(c.rootCmd.ConfigPath)
		if err != nil {
			return err
		}
	}
	if c.listenAddr != "" {
		cfg.ListenAddr = c.listenAddr
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.workers > 0 {
		cfg.Workers = c.workers
	}

	reg := ingestflow.NewRegistry()
	ingestflow.RegisterBuiltinPresets(reg, ingestflow.PresetDeps{})

	eng, err := c.buildEngine(cfg, reg, logger)
	if err != nil {
		return err
	}

	recovered, err := eng.RecoverStuckTasks(ctx)
	if err != nil {
		return fmt.Errorf("could not recover stuck tasks: %w", err)
	}
	if recovered > 0 {
		logger.Warningf("marked %d interrupted tasks as failed", recovered)
	}

	var g run.Group

	// Job workers.
	for i := 0; i < cfg.Workers; i++ {
		workerLogger := logger.WithValues(log.Kv{"worker": i})
		w := worker.NewWithLogger(eng, eng.Queue(), workerLogger)

		workerCtx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				workerLogger.Debugf("worker started")
				err := w.Run(workerCtx)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// HTTP server.
	{
		server := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           httpapi.New(eng, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Add(
			func() error {
				logger.Infof("listening on %s", cfg.ListenAddr)
				err := server.ListenAndServe()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			},
			func(_ error) {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			},
		)
	}

	// Context cancellation (signals are handled by the caller). A
	// cancelled context is a clean shutdown, not an error.
	{
		cancelCtx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-cancelCtx.Done()
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func (c ServeCommand) buildEngine(cfg config.Config, reg *ingestflow.Registry, logger log.Logger) (*engine.Coordinator, error) {
	if cfg.DBPath == "" {
		logger.Warningf("no db_path configured, task state is in-memory only")
		return ingestflow.NewInMemoryEngine(reg), nil
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_journal=WAL", cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", cfg.DBPath, err)
	}

	eng, err := ingestflow.NewSQLiteEngine(db, reg)
	if err != nil {
		return nil, fmt.Errorf("could not create engine: %w", err)
	}
	logger.Infof("task state persisted in %s", cfg.DBPath)
	return eng, nil
}
