package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/domain/service"
	"github.com/agentops/console/internal/infrastructure/backend"
	"github.com/agentops/console/internal/infrastructure/config"
	"github.com/agentops/console/internal/infrastructure/eventbus"
	"github.com/agentops/console/internal/infrastructure/persistence"
)

// App is the dependency container shared by the terminal, browser and
// command-line front ends.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB

	// repositories
	prefsRepo    repository.PreferencesRepository
	activityRepo repository.ActivityRepository

	// infrastructure
	backend  *backend.Client
	bus      *eventbus.InMemoryBus
	runGuard *service.RunGuard
	watcher  *config.Watcher

	// use cases
	agents    *usecase.AgentUseCase
	workflows *usecase.WorkflowUseCase
	settings  *usecase.SettingsUseCase
	dashboard *usecase.DashboardUseCase

	noticeTTL     atomic.Int64
	mu            sync.Mutex
	configHooks   []func(*config.Config)
	unsubscribers []func()
	stopWatcher   context.CancelFunc
}

// Option customizes NewApp.
type Option func(*options)

type options struct {
	inMemory bool
	reload   func() (*config.Config, error)
}

// WithInMemoryStore keeps preferences and activity in memory instead of the
// configured database.
func WithInMemoryStore() Option {
	return func(o *options) { o.inMemory = true }
}

// WithReloader sets how the config watcher re-reads configuration.
func WithReloader(fn func() (*config.Config, error)) Option {
	return func(o *options) { o.reload = fn }
}

// NewApp builds the container.
func NewApp(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{reload: config.Load}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		config: cfg,
		logger: logger,
	}
	app.noticeTTL.Store(int64(cfg.UI.NoticeTTL))

	if err := app.initRepositories(o.inMemory); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	if err := app.initInfrastructure(o.reload); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}
	app.initApplicationServices()

	return app, nil
}

func (app *App) initRepositories(inMemory bool) error {
	if inMemory {
		app.prefsRepo = persistence.NewMemoryPreferencesRepository()
		app.activityRepo = persistence.NewMemoryActivityRepository()
		return nil
	}

	db, err := persistence.NewDBConnection(&app.config.Database, app.logger)
	if err != nil {
		return err
	}
	app.db = db
	app.prefsRepo = persistence.NewGormPreferencesRepository(db)
	app.activityRepo = persistence.NewGormActivityRepository(db)
	return nil
}

func (app *App) initInfrastructure(reload func() (*config.Config, error)) error {
	prefs, err := app.prefsRepo.Load(context.Background())
	if err != nil {
		return err
	}

	app.backend = backend.NewClient(app.config.Backend.BaseURL,
		backend.WithAPIPrefix(app.config.Backend.APIPrefix),
		backend.WithTimeout(app.config.Backend.Timeout),
		backend.WithAPIKey(prefs.APIKey),
		backend.WithLogger(app.logger),
	)
	app.bus = eventbus.NewInMemoryBus(app.logger, 256)
	app.runGuard = service.NewRunGuard()

	app.watcher = config.NewWatcher(app.config, reload, app.logger)
	app.watcher.OnChange(app.applyConfig)
	return nil
}

func (app *App) initApplicationServices() {
	agents := app.backend.Agents()
	workflows := app.backend.Workflows()

	app.agents = usecase.NewAgentUseCase(agents, app.bus, app.logger)
	app.workflows = usecase.NewWorkflowUseCase(workflows, app.runGuard, app.bus, app.logger)
	app.settings = usecase.NewSettingsUseCase(app.prefsRepo, app.backend, app.bus, app.logger)
	app.dashboard = usecase.NewDashboardUseCase(agents, workflows, app.activityRepo, app.logger)

	recorder := usecase.NewActivityRecorder(app.activityRepo, app.logger)
	app.unsubscribers = append(app.unsubscribers, recorder.Attach(app.bus))
}

// applyConfig applies the hot-reloadable settings.
func (app *App) applyConfig(cfg *config.Config) {
	app.backend.SetBaseURL(cfg.Backend.BaseURL)
	app.noticeTTL.Store(int64(cfg.UI.NoticeTTL))

	app.mu.Lock()
	app.config.Backend.BaseURL = app.backend.BaseURL()
	app.config.UI.NoticeTTL = cfg.UI.NoticeTTL
	hooks := append([]func(*config.Config){}, app.configHooks...)
	app.mu.Unlock()

	for _, fn := range hooks {
		fn(cfg)
	}
}

// OnConfigChange registers fn to run after each hot reload.
func (app *App) OnConfigChange(fn func(*config.Config)) {
	app.mu.Lock()
	app.configHooks = append(app.configHooks, fn)
	app.mu.Unlock()
}

// Start begins watching the config file.
func (app *App) Start(ctx context.Context) error {
	app.logger.Info("Starting application",
		zap.String("backend", app.backend.BaseURL()),
	)

	watchCtx, cancel := context.WithCancel(ctx)
	app.stopWatcher = cancel
	if err := app.watcher.Start(watchCtx); err != nil {
		app.logger.Warn("Config hot reload unavailable", zap.Error(err))
	}
	return nil
}

// Stop flushes pending events and closes the store.
func (app *App) Stop(ctx context.Context) error {
	app.logger.Info("Stopping application")

	if app.stopWatcher != nil {
		app.stopWatcher()
	}

	done := make(chan struct{})
	go func() {
		app.bus.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		app.logger.Warn("Event bus did not drain before shutdown")
	}
	for _, unsubscribe := range app.unsubscribers {
		unsubscribe()
	}

	if app.db != nil {
		if err := persistence.Close(app.db); err != nil {
			app.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	app.logger.Info("Application stopped successfully")
	return nil
}

// Agents returns the agent use case
func (app *App) Agents() *usecase.AgentUseCase { return app.agents }

// Workflows returns the workflow use case
func (app *App) Workflows() *usecase.WorkflowUseCase { return app.workflows }

// Settings returns the settings use case
func (app *App) Settings() *usecase.SettingsUseCase { return app.settings }

// Dashboard returns the dashboard use case
func (app *App) Dashboard() *usecase.DashboardUseCase { return app.dashboard }

// Backend returns the backend client
func (app *App) Backend() *backend.Client { return app.backend }

// Bus returns the event bus
func (app *App) Bus() eventbus.Bus { return app.bus }

// Logger returns the application logger
func (app *App) Logger() *zap.Logger { return app.logger }

// AppConfig returns the application config
func (app *App) AppConfig() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	c := *app.config
	return &c
}

// NoticeTTL is how long transient notices stay on screen.
func (app *App) NoticeTTL() time.Duration {
	return time.Duration(app.noticeTTL.Load())
}
