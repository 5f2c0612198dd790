// Package core contains the business logic for TaskPulse: configuration,
// task lifecycle operations and squad-name matching.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/taskpulse/pkg/models"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the YAML configuration file looked up in the base path.
const ConfigFileName = ".taskpulse"

// DefaultDataDir is the storage directory created under the base path.
const DefaultDataDir = ".taskpulse-data"

// Storage backends understood by the application wiring.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ConfigurationManager loads and validates the .taskpulse configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
	WriteDefaultConfig() (string, error)
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .taskpulse from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns the configuration used when no file exists.
func DefaultGlobalConfig(basePath string) *models.GlobalConfig {
	return &models.GlobalConfig{
		Storage: models.StorageConfig{
			Backend:     BackendFile,
			Dir:         filepath.Join(basePath, DefaultDataDir),
			SnapshotKey: "task-data",
			ActivityKey: "activity-log",
			HistoryKey:  "analytics-history",
		},
		Activity:  models.ActivityConfig{Capacity: 1000},
		Analytics: models.AnalyticsConfig{TrendDays: 14, HistoryCapacity: 90},
		Squads:    models.SquadConfig{MatchThreshold: DefaultSquadMatchThreshold},
		Log:       models.LogConfig{Level: "warn"},
		Export:    models.ExportConfig{Title: "Task Tracker Report"},
	}
}

// LoadGlobalConfig reads .taskpulse from the base path. Missing keys and a
// missing file fall back to defaults. TASKPULSE_<SECTION>_<KEY> environment
// variables override file values.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("TASKPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("storage.snapshot_key", cfg.Storage.SnapshotKey)
	v.SetDefault("storage.activity_key", cfg.Storage.ActivityKey)
	v.SetDefault("storage.history_key", cfg.Storage.HistoryKey)
	v.SetDefault("seed.path", "")
	v.SetDefault("seed.url", "")
	v.SetDefault("activity.capacity", cfg.Activity.Capacity)
	v.SetDefault("analytics.trend_days", cfg.Analytics.TrendDays)
	v.SetDefault("analytics.history_capacity", cfg.Analytics.HistoryCapacity)
	v.SetDefault("squads.match_threshold", cfg.Squads.MatchThreshold)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("export.title", cfg.Export.Title)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Storage.Backend = strings.ToLower(v.GetString("storage.backend"))
	cfg.Storage.Dir = v.GetString("storage.dir")
	cfg.Storage.SnapshotKey = v.GetString("storage.snapshot_key")
	cfg.Storage.ActivityKey = v.GetString("storage.activity_key")
	cfg.Storage.HistoryKey = v.GetString("storage.history_key")
	cfg.Seed.Path = v.GetString("seed.path")
	cfg.Seed.URL = v.GetString("seed.url")
	cfg.Activity.Capacity = v.GetInt("activity.capacity")
	cfg.Analytics.TrendDays = v.GetInt("analytics.trend_days")
	cfg.Analytics.HistoryCapacity = v.GetInt("analytics.history_capacity")
	cfg.Squads.MatchThreshold = v.GetFloat64("squads.match_threshold")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")
	cfg.Export.Title = v.GetString("export.title")

	// Relative paths in the file are relative to the base path, not the cwd.
	if cfg.Storage.Dir != "" && !filepath.IsAbs(cfg.Storage.Dir) {
		cfg.Storage.Dir = filepath.Join(cm.basePath, cfg.Storage.Dir)
	}
	if cfg.Seed.Path != "" && !filepath.IsAbs(cfg.Seed.Path) {
		cfg.Seed.Path = filepath.Join(cm.basePath, cfg.Seed.Path)
	}

	return cfg, nil
}

var validBackends = map[string]bool{
	BackendFile:   true,
	BackendSQLite: true,
	BackendMemory: true,
}

// ValidateConfig checks cfg for invalid values and reports all of them.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validBackends[cfg.Storage.Backend] {
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, sqlite, memory",
			cfg.Storage.Backend,
		))
	}
	if cfg.Storage.Backend != BackendMemory && cfg.Storage.Dir == "" {
		errs = append(errs, "storage.dir must not be empty")
	}
	for key, val := range map[string]string{
		"storage.snapshot_key": cfg.Storage.SnapshotKey,
		"storage.activity_key": cfg.Storage.ActivityKey,
		"storage.history_key":  cfg.Storage.HistoryKey,
	} {
		if val == "" || strings.ContainsAny(val, `/\`) {
			errs = append(errs, fmt.Sprintf("%s %q must be a non-empty name without path separators", key, val))
		}
	}
	if cfg.Activity.Capacity <= 0 {
		errs = append(errs, fmt.Sprintf("activity.capacity must be positive, got %d", cfg.Activity.Capacity))
	}
	if cfg.Analytics.TrendDays <= 0 {
		errs = append(errs, fmt.Sprintf("analytics.trend_days must be positive, got %d", cfg.Analytics.TrendDays))
	}
	if cfg.Analytics.HistoryCapacity <= 0 {
		errs = append(errs, fmt.Sprintf("analytics.history_capacity must be positive, got %d", cfg.Analytics.HistoryCapacity))
	}
	if cfg.Squads.MatchThreshold <= 0 || cfg.Squads.MatchThreshold > 1 {
		errs = append(errs, fmt.Sprintf("squads.match_threshold %g must be in (0, 1]", cfg.Squads.MatchThreshold))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil || cfg.Log.Level == "" {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid", cfg.Log.Level))
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// WriteDefaultConfig writes a .taskpulse file with default values to the
// base path. An existing file is left untouched.
func (cm *viperConfigManager) WriteDefaultConfig() (string, error) {
	path := filepath.Join(cm.basePath, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	cfg := DefaultGlobalConfig(cm.basePath)
	// Store the data dir relative so the base path can move.
	cfg.Storage.Dir = DefaultDataDir

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.MkdirAll(cm.basePath, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", cm.basePath, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
