package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/didiklab/taksir-api/internal/config"
	"github.com/didiklab/taksir-api/internal/events"
	"github.com/didiklab/taksir-api/internal/importer"
	"github.com/didiklab/taksir-api/internal/platform/gemini"
	"github.com/didiklab/taksir-api/internal/platform/postgres"
	"github.com/didiklab/taksir-api/internal/service"
	"github.com/didiklab/taksir-api/internal/service/auth"
	"github.com/didiklab/taksir-api/internal/store"
	"github.com/didiklab/taksir-api/internal/task"
)

// application holds the shared application dependencies so wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore       store.UserStore
	assessmentStore store.AssessmentStore
	analysisStore   store.AnalysisStore
	taskStore       task.TaskStore

	// Services
	jwtService        auth.JWTService
	passwordVerifier  auth.PasswordVerifier
	analyzer          task.Analyzer
	assessmentService service.AssessmentService
	importer          *importer.Importer

	// Event system
	eventEmitter events.EventEmitter

	// Task handling
	taskRunner *task.TaskRunner
}

// newApplication wires all dependencies. It accepts the core
// dependencies that must exist before anything else: configuration,
// logger, and an open database connection.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
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

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost)
	app.assessmentStore = postgres.NewPostgresAssessmentStore(db, logger)
	app.analysisStore = postgres.NewPostgresAnalysisStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db)

	app.analyzer, err = gemini.NewGeminiAnalyzer(
		ctx,
		logger.With("component", "gemini_analyzer"),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	logger.Info("analyzer initialized", "model", cfg.LLM.ModelName)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	assessmentRepo := service.NewAssessmentRepositoryAdapter(app.assessmentStore, db)
	app.assessmentService = service.NewAssessmentService(
		assessmentRepo,
		app.analysisStore,
		app.eventEmitter,
		logger,
	)

	app.importer = importer.NewImporter(logger)

	// Task pipeline: events feed the factory, the factory builds tasks,
	// the runner executes them.
	taskServiceAdapter, err := task.NewAssessmentServiceAdapter(app.assessmentStore, app.analysisStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service adapter: %w", err)
	}

	taskFactory := task.NewAssessmentAnalysisTaskFactory(
		taskServiceAdapter,
		app.analyzer,
		logger,
	)

	eventHandler := task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(eventHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register task handler")
	}

	// The rehydrator must be in place before Start so recovery can
	// rebuild unfinished tasks loaded from the store.
	app.taskRunner.RegisterRehydrator(task.TaskTypeAssessmentAnalysis, taskFactory)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
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
