package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/slowka/slowka-api/internal/config"
	"github.com/slowka/slowka-api/internal/domain/srs"
	"github.com/slowka/slowka-api/internal/platform/postgres"
	"github.com/slowka/slowka-api/internal/platform/redis"
	"github.com/slowka/slowka-api/internal/service/auth"
	"github.com/slowka/slowka-api/internal/service/review"
	"github.com/slowka/slowka-api/internal/store"
	"github.com/slowka/slowka-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore  store.UserStore
	wordStore  store.WordStore
	stateStore store.ReviewStateStore
	sessions   store.SessionStore
	taskStore  task.TaskStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	scheduler        srs.Scheduler
	reviewService    review.Service

	// Background work
	taskRunner      *task.TaskRunner
	reminderScanner *task.ReminderScanner
}

// newApplication creates a new application instance with all dependencies
// initialized. The database connection is established by the caller; the
// Redis connection is established here.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	// Session cache
	redisClient, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.sessions = redis.NewSessionStore(redisClient)
	logger.Info("session cache connected", "addr", cfg.Redis.Addr)

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost)
	app.wordStore = postgres.NewPostgresWordStore(db)
	app.stateStore = postgres.NewPostgresReviewStateStore(db)

	// Scheduler tuned from configuration; zero values keep the SM-2 defaults.
	app.scheduler = srs.NewScheduler(srs.NewParams(srs.ParamsConfig{
		MinEasiness:         cfg.Review.MinEasiness,
		InitialInterval:     cfg.Review.InitialInterval,
		GraduationInterval:  cfg.Review.GraduationInterval,
		PassThreshold:       cfg.Review.PassThreshold,
		MasteryIntervalDays: cfg.Review.MasteryIntervalDays,
	}))

	app.reviewService = review.NewService(
		db,
		app.userStore,
		app.wordStore,
		app.stateStore,
		app.sessions,
		app.scheduler,
		cfg.Review.QueueLimit,
		time.Duration(cfg.Redis.SessionTTLMinutes)*time.Minute,
		logger,
	)

	// Background reminders: factory revives persisted tasks, runner executes
	// them, scanner produces new ones on a timer.
	notifier := task.NewLogNotifier(logger)
	factory := task.NewReminderTaskFactory(app.userStore, notifier)
	app.taskStore = postgres.NewPostgresTaskStore(db, factory)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	app.reminderScanner = task.NewReminderScanner(
		app.stateStore,
		factory,
		app.taskRunner,
		time.Duration(cfg.Task.ReminderIntervalMinutes)*time.Minute,
		logger,
	)
	app.reminderScanner.Start()

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.reminderScanner != nil {
		app.reminderScanner.Stop()
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
