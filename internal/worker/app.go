package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/filemill/internal/blobstore"
	"github.com/dmitrijs2005/filemill/internal/config"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/migrations"
	"github.com/dmitrijs2005/filemill/internal/processing"
	"github.com/dmitrijs2005/filemill/internal/queue"
	"github.com/dmitrijs2005/filemill/internal/tools"
)

// App assembles a standalone worker process sharing the server's
// database and blob containers.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	pool   *Pool
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	// Safe to run alongside the server; goose skips applied versions.
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db, "."); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	filesStore, err := blobstore.NewFromConfig(ctx, cfg, cfg.FilesContainer)
	if err != nil {
		return nil, fmt.Errorf("files store init error: %w", err)
	}
	outputsStore, err := blobstore.NewFromConfig(ctx, cfg, cfg.OutputsContainer)
	if err != nil {
		return nil, fmt.Errorf("outputs store init error: %w", err)
	}

	opts := queue.Options{
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxDeliveries:     cfg.MaxDeliveries,
		DeadLetterQueue:   cfg.DeadLetterQueue,
	}
	requestQ := queue.NewPostgresQueue(db, cfg.RequestQueue, opts)
	completionQ := queue.NewPostgresQueue(db, cfg.CompletionQueue, opts)
	deadLetterQ := queue.NewPostgresQueue(db, cfg.DeadLetterQueue, opts)

	requests := processing.NewProtocol(requestQ, deadLetterQ, cfg.PollInterval, logger)
	completions := processing.NewProtocol(completionQ, deadLetterQ, cfg.PollInterval, logger)

	registry, err := tools.Builtin()
	if err != nil {
		return nil, fmt.Errorf("tool registry error: %w", err)
	}

	w := New(requests, completions, filesStore, outputsStore, registry, logger)
	pool := NewPool(w, cfg.WorkerCount, logger)

	return &App{config: cfg, logger: logger, db: db, pool: pool}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting worker pool", "workers", app.config.WorkerCount)

	app.initSignalHandler(cancelFunc)

	if err := app.pool.Run(ctx); err != nil {
		app.logger.Error(ctx, "worker pool stopped", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
