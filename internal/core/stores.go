package core

import (
	"context"

	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// SnapshotStore is the subset of storage.SnapshotRepository that TaskService
// needs. Defining it here keeps core independent of the storage package.
type SnapshotStore interface {
	Load(ctx context.Context) models.Snapshot
	SaveProjectTasks(ctx context.Context, tasks []models.ProjectTask) error
	SaveAdHocTasks(ctx context.Context, tasks []models.AdHocTask) error
}

// ActivityRecorder is the subset of the observability activity log that
// TaskService writes to. Implementations never fail the caller.
type ActivityRecorder interface {
	LogTaskCreated(task models.Task)
	LogTaskDeleted(task models.Task)
	LogStatusChange(task models.Task, from, to models.TaskStatus)
	LogTaskUpdated(task models.Task, field, oldValue, newValue string)
	LogDailyLogAdded(task models.Task, entry models.DailyLog)
	LogSecuritySignOffChanged(task models.Task, from, to bool)
}
