// Package server wires the platform together: database, migrations,
// blob containers, queues, domain services and the HTTP surface.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/filemill/internal/blobstore"
	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/config"
	"github.com/dmitrijs2005/filemill/internal/dispatch"
	"github.com/dmitrijs2005/filemill/internal/files"
	"github.com/dmitrijs2005/filemill/internal/idgen"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/migrations"
	"github.com/dmitrijs2005/filemill/internal/processing"
	"github.com/dmitrijs2005/filemill/internal/queue"
	"github.com/dmitrijs2005/filemill/internal/server/rest"
	"github.com/dmitrijs2005/filemill/internal/session"
	"github.com/dmitrijs2005/filemill/internal/tools"
	"github.com/dmitrijs2005/filemill/internal/users"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *dispatch.Dispatcher
	restServer *rest.Server
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
	if err := runMigrations(db); err != nil {
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

	us := users.NewService(users.NewPostgresRepository(db), idgen.NewGenerator(idgen.NewPostgresRepository(db)))
	if err := seedAdmin(ctx, us, logger); err != nil {
		return nil, fmt.Errorf("admin seed error: %w", err)
	}

	registry, err := tools.Builtin()
	if err != nil {
		return nil, fmt.Errorf("tool registry error: %w", err)
	}

	dispatcher := dispatch.New(requests, completions, cfg.DispatchTimeout, logger)
	fs := files.NewService(filesStore, outputsStore, dispatcher)
	sessions := session.NewManager(us)

	restServer := rest.NewServer(cfg.EndpointAddrHTTP, cfg.SecretKey, cfg.TokenValidityDuration,
		sessions, us, fs, registry, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		restServer: restServer,
	}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

// seedAdmin creates the first admin account on an empty directory. The
// generated password is printed once; there is no other way to obtain
// it.
func seedAdmin(ctx context.Context, us *users.Service, logger logging.Logger) error {
	admins, err := us.AdminEmails(ctx)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}

	password, err := common.MakeRandHexString(16)
	if err != nil {
		return err
	}
	const email = "admin@filemill.local"
	if _, err := us.AddUser(ctx, email, password, true); err != nil {
		return err
	}
	logger.Warn(ctx, "seeded initial admin account", "email", email, "password", password)
	return nil
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

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.dispatcher.Run(ctx); err != nil {
			app.logger.Error(ctx, "dispatcher stopped", "error", err)
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.restServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
