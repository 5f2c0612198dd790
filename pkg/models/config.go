package models

// StorageConfig selects and locates the storage backend.
type StorageConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	SnapshotKey string `yaml:"snapshot_key" mapstructure:"snapshot_key"`
	ActivityKey string `yaml:"activity_key" mapstructure:"activity_key"`
	HistoryKey  string `yaml:"history_key" mapstructure:"history_key"`
}

// SeedConfig points at the read-only first-run dataset. Path wins over URL.
type SeedConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
	URL  string `yaml:"url,omitempty" mapstructure:"url"`
}

// ActivityConfig controls the activity log.
type ActivityConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// AnalyticsConfig controls trend windows and history retention.
type AnalyticsConfig struct {
	TrendDays       int `yaml:"trend_days" mapstructure:"trend_days"`
	HistoryCapacity int `yaml:"history_capacity" mapstructure:"history_capacity"`
}

// SquadConfig controls squad-name suggestions.
type SquadConfig struct {
	MatchThreshold float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// ExportConfig controls report rendering.
type ExportConfig struct {
	Title string `yaml:"title" mapstructure:"title"`
}

// GlobalConfig holds system-wide settings read from .taskpulse via Viper.
type GlobalConfig struct {
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Seed      SeedConfig      `yaml:"seed" mapstructure:"seed"`
	Activity  ActivityConfig  `yaml:"activity" mapstructure:"activity"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	Squads    SquadConfig     `yaml:"squads" mapstructure:"squads"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
}
