// Package server initializes and runs the application: it wires the
// configuration, database, repositories, services, and the HTTP API, and
// handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dpavlovs/artfeed/internal/logging"
	"github.com/dpavlovs/artfeed/internal/server/auth"
	"github.com/dpavlovs/artfeed/internal/server/config"
	"github.com/dpavlovs/artfeed/internal/server/httpapi"
	"github.com/dpavlovs/artfeed/internal/server/repositories/repomanager"
	"github.com/dpavlovs/artfeed/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	codec := auth.NewCodec([]byte(cfg.SecretKey))
	hasher := auth.NewBcryptHasher()
	verifier := auth.NewGoogleVerifier(cfg.GoogleClientID)

	authService := services.NewAuthService(db, rm, hasher, codec, verifier, cfg, logger)
	mediaService := services.NewMediaService(db, rm, cfg)

	httpServer := httpapi.NewServer(cfg, authService, mediaService, logger)

	return &App{config: cfg, logger: logger, db: db, httpServer: httpServer}, nil
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

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server error", "error", err.Error())
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}
