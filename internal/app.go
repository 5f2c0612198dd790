// Package internal provides the App struct that wires all components of
// TaskPulse together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valter-silva-au/taskpulse/internal/cli"
	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/internal/logging"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// HomeEnv overrides base path discovery.
const HomeEnv = "TASKPULSE_HOME"

// SQLiteFileName is the database created in the storage dir by the sqlite backend.
const SQLiteFileName = "taskpulse.db"

// App holds all service dependencies for TaskPulse.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	Logger    zerolog.Logger

	// Storage layer
	Store storage.Store
	Repo  *storage.SnapshotRepository

	// Observability
	Activity *observability.ActivityLog
	History  *observability.HistoryRecorder

	// Core services
	TaskSvc core.TaskService

	closers []func()
}

// NewApp creates and wires all components of TaskPulse. basePath is the
// directory holding .taskpulse; storage paths in the config resolve against it.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Logging ---
	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	app.closers = append(app.closers, closeLog)
	log.Logger = logger
	app.Logger = logging.Component("app")

	// --- Storage layer ---
	watchDir := ""
	switch cfg.Storage.Backend {
	case core.BackendSQLite:
		db, err := storage.OpenSQLiteStore(filepath.Join(cfg.Storage.Dir, SQLiteFileName))
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		app.Store = db
	case core.BackendMemory:
		app.Store = storage.NewMemoryStore()
	default:
		app.Store = storage.NewFileStore(cfg.Storage.Dir)
		watchDir = cfg.Storage.Dir
	}
	app.Logger.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("dir", cfg.Storage.Dir).
		Msg("storage ready")

	repoOpts := []storage.RepositoryOption{
		storage.WithSnapshotKey(cfg.Storage.SnapshotKey),
		storage.WithLogger(logging.Component("storage")),
	}
	if seed := seedFromConfig(cfg.Seed); seed != nil {
		repoOpts = append(repoOpts, storage.WithSeed(seed))
	}
	app.Repo = storage.NewSnapshotRepository(app.Store, repoOpts...)

	// --- Observability ---
	app.Activity = observability.NewActivityLog(app.Store,
		observability.WithActivityKey(cfg.Storage.ActivityKey),
		observability.WithCapacity(cfg.Activity.Capacity),
		observability.WithActivityLogger(logging.Component("activity")),
	)
	app.History = observability.NewHistoryRecorder(app.Store,
		cfg.Storage.HistoryKey,
		cfg.Analytics.HistoryCapacity,
		logging.Component("history"),
	)

	// --- Core services ---
	app.TaskSvc = core.NewTaskService(app.Repo, app.Activity)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.TaskSvc = app.TaskSvc
	cli.Repo = app.Repo
	cli.Activity = app.Activity
	cli.History = app.History
	cli.WatchDir = watchDir

	return app, nil
}

// seedFromConfig picks the seed source. A local path wins over a URL.
func seedFromConfig(cfg models.SeedConfig) storage.Seed {
	switch {
	case cfg.Path != "":
		return storage.FileSeed{Path: cfg.Path}
	case cfg.URL != "":
		return storage.NewHTTPSeed(cfg.URL)
	default:
		return nil
	}
}

// Close releases resources held by the App in reverse order of acquisition.
// It is safe to call Close more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// ResolveBasePath determines the base path for TaskPulse data.
// It checks TASKPULSE_HOME, then walks up from the current directory looking
// for .taskpulse, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
