package models

import "time"

// SnapshotVersion is written into metadata when none is present.
const SnapshotVersion = "1.0.0"

// SnapshotMetadata describes when a snapshot was last written.
type SnapshotMetadata struct {
	LastUpdated time.Time `json:"lastUpdated" yaml:"last_updated"`
	Version     string    `json:"version" yaml:"version"`
}

// Snapshot is the full persisted task state. It is also the backup/import
// file format.
type Snapshot struct {
	ProjectTasks []ProjectTask    `json:"projectTasks" yaml:"project_tasks"`
	AdHocTasks   []AdHocTask      `json:"adHocTasks" yaml:"adhoc_tasks"`
	Metadata     SnapshotMetadata `json:"metadata" yaml:"metadata"`
}

// EmptySnapshot returns a snapshot with no tasks, stamped at now.
func EmptySnapshot(now time.Time) Snapshot {
	return Snapshot{
		ProjectTasks: []ProjectTask{},
		AdHocTasks:   []AdHocTask{},
		Metadata: SnapshotMetadata{
			LastUpdated: now,
			Version:     SnapshotVersion,
		},
	}
}

// AnalyticsSnapshot is a daily rollup kept for historical trend rebuilding.
type AnalyticsSnapshot struct {
	Date            time.Time `json:"date" yaml:"date"`
	TotalTasks      int       `json:"totalTasks" yaml:"total_tasks"`
	CompletedTasks  int       `json:"completedTasks" yaml:"completed_tasks"`
	InProgressTasks int       `json:"inProgressTasks" yaml:"in_progress_tasks"`
	BlockedTasks    int       `json:"blockedTasks" yaml:"blocked_tasks"`
	OverdueTasks    int       `json:"overdueTasks" yaml:"overdue_tasks"`
	CompletionRate  float64   `json:"completionRate" yaml:"completion_rate"`
	RiskScore       int       `json:"riskScore" yaml:"risk_score"`
}
