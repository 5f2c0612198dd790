package cli

import (
	"context"
	"io"
	"time"

	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// SnapshotRepository is the subset of storage.SnapshotRepository used by the
// data commands.
type SnapshotRepository interface {
	Import(ctx context.Context, data []byte) (models.Snapshot, error)
	Backup(ctx context.Context, w io.Writer) error
	ClearAll() error
}

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig
	TaskSvc  core.TaskService
	Repo     SnapshotRepository
	Activity *observability.ActivityLog
	History  *observability.HistoryRecorder

	// WatchDir is the directory the dashboard watches for snapshot changes.
	// Empty when the backend has no files to watch.
	WatchDir string

	// Now is the clock for every time-relative command.
	Now = time.Now
)

func trendDays() int {
	if Config != nil && Config.Analytics.TrendDays > 0 {
		return Config.Analytics.TrendDays
	}
	return 14
}

func matchThreshold() float64 {
	if Config != nil && Config.Squads.MatchThreshold > 0 {
		return Config.Squads.MatchThreshold
	}
	return core.DefaultSquadMatchThreshold
}

func reportTitle() string {
	if Config != nil && Config.Export.Title != "" {
		return Config.Export.Title
	}
	return ""
}
