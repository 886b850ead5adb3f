// Package server initializes and runs the authentication service: it opens
// the database, applies migrations, wires the service layer, and starts the
// HTTP endpoint plus the background cleanup sweeper with graceful shutdown.
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
	"github.com/redis/go-redis/v9"

	"github.com/avramov/authgate/internal/logging"
	"github.com/avramov/authgate/internal/server/config"
	"github.com/avramov/authgate/internal/server/httpapi"
	"github.com/avramov/authgate/internal/server/notifications"
	"github.com/avramov/authgate/internal/server/ratelimit"
	"github.com/avramov/authgate/internal/server/repositories/repomanager"
	"github.com/avramov/authgate/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	server  *httpapi.Server
	cleanup *services.CleanupService
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	userService := services.NewUserService(db, rm)
	sessionService := services.NewSessionService(db, rm, cfg.RefreshTokenValidityDuration, cfg.RefreshRotationEnabled)
	tokenService := services.NewActionTokenService(db, rm, cfg.ActionTokenValidityDuration)

	var producer notifications.Producer
	if cfg.NotificationQueueURL != "" {
		producer = notifications.NewSQSProducer(cfg.NotificationQueueURL, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	} else {
		producer = notifications.NewLogProducer(logger)
	}

	authService := services.NewAuthService(db, userService, sessionService, tokenService,
		producer, notifications.NewStaticResolver(), logger, cfg)

	var store ratelimit.Store
	if cfg.RedisAddr != "" {
		store = ratelimit.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.NewLimiter(store)

	handler := httpapi.NewHandler(authService, limiter, logger)
	httpServer := httpapi.NewServer(cfg.EndpointAddrHTTP, handler.InitRoutes(), logger)

	cleanup := services.NewCleanupService(sessionService, tokenService, logger, cfg.CleanupInterval)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		server:  httpServer,
		cleanup: cleanup,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.cleanup.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
