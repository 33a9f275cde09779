package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/totem-api/internal/config"
	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/events"
	"github.com/phrazzld/totem-api/internal/platform/postgres"
	"github.com/phrazzld/totem-api/internal/service"
	"github.com/phrazzld/totem-api/internal/service/auth"
	"github.com/phrazzld/totem-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *domain.Registry

	entityStore   store.EntityStore
	configStore   store.ConfigStore
	userStore     store.UserStore
	activityStore store.ActivityStore
	statsStore    store.StatsStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	entityService    service.EntityService
	configService    service.ConfigService
	accountService   service.AccountService
	dashboardService service.DashboardService

	eventEmitter *events.InMemoryEventEmitter
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.registry, err = domain.NewKioskRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build entity registry: %w", err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.entityStore = postgres.NewPostgresEntityStore(db, logger)
	app.configStore = postgres.NewPostgresConfigStore(db, logger)
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	app.activityStore = postgres.NewPostgresActivityStore(db, logger)
	app.statsStore = postgres.NewPostgresStatsStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewActivityLogHandler(app.activityStore))

	app.entityService, err = service.NewEntityService(
		app.registry,
		app.entityStore,
		app.eventEmitter,
		service.EntityServiceOptions{StrictFields: cfg.Entities.StrictFields},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity service: %w", err)
	}

	app.configService, err = service.NewConfigService(app.configStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config service: %w", err)
	}

	app.accountService, err = service.NewAccountService(
		app.userStore,
		app.configStore,
		app.jwtService,
		app.passwordVerifier,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}

	app.dashboardService, err = service.NewDashboardService(
		app.registry,
		app.statsStore,
		service.DashboardServiceOptions{},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard service: %w", err)
	}

	logger.Info("Application initialized successfully", "entities", app.registry.Names())
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
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

// runServe is the serve command: config, logging, database, optional
// migrations, then the HTTP server.
func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := loadAppConfig()
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, "up", logger); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
