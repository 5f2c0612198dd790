package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ActivityAction names the kind of change an activity entry records.
type ActivityAction string

const (
	ActionTaskCreated            ActivityAction = "task_created"
	ActionTaskDeleted            ActivityAction = "task_deleted"
	ActionStatusChanged          ActivityAction = "status_changed"
	ActionTaskUpdated            ActivityAction = "task_updated"
	ActionDailyLogAdded          ActivityAction = "daily_log_added"
	ActionSecuritySignOffChanged ActivityAction = "security_signoff_changed"
)

// Label renders the action for humans, e.g. "Status Changed".
// A cases.Caser keeps state between calls, so each call gets its own.
func (a ActivityAction) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(a), "_", " "))
}

// ActivityDetails carries the field-level change for updates.
type ActivityDetails struct {
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	OldValue string `json:"oldValue,omitempty" yaml:"old_value,omitempty"`
	NewValue string `json:"newValue,omitempty" yaml:"new_value,omitempty"`
}

// ActivityLogEntry records one thing that happened to a task.
type ActivityLogEntry struct {
	ID        string           `json:"id" yaml:"id"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	Action    ActivityAction   `json:"action" yaml:"action"`
	TaskID    string           `json:"taskId" yaml:"task_id"`
	TaskName  string           `json:"taskName" yaml:"task_name"`
	TaskType  TaskKind         `json:"taskType" yaml:"task_type"`
	Details   *ActivityDetails `json:"details,omitempty" yaml:"details,omitempty"`
}
