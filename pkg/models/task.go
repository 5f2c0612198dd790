package models

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// TaskKind discriminates the two task variants.
type TaskKind string

const (
	KindProject TaskKind = "project"
	KindAdHoc   TaskKind = "adhoc"
)

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "ToDo"
	StatusInProgress TaskStatus = "InProgress"
	StatusBlocked    TaskStatus = "Blocked"
	StatusTesting    TaskStatus = "Testing"
	StatusComplete   TaskStatus = "Complete"
)

// Statuses returns every status in workflow order.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusToDo, StatusInProgress, StatusBlocked, StatusTesting, StatusComplete}
}

// Valid reports whether s is one of the five workflow statuses.
func (s TaskStatus) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable form of the status.
func (s TaskStatus) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	default:
		return string(s)
	}
}

// Rank returns the workflow position of the status, or len(Statuses()) for
// unknown values so they sort last.
func (s TaskStatus) Rank() int {
	for i, known := range Statuses() {
		if s == known {
			return i
		}
	}
	return len(Statuses())
}

// ParseStatus accepts the canonical value, its label, or a snake_case form
// ("in_progress") case-insensitively.
func ParseStatus(s string) (TaskStatus, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	for _, known := range Statuses() {
		if strings.ToLower(string(known)) == norm {
			return known, nil
		}
	}
	return "", fmt.Errorf("invalid status %q: must be one of ToDo, InProgress, Blocked, Testing, Complete", s)
}

// Task holds the fields shared by both task variants.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Kind        TaskKind   `json:"kind" yaml:"kind"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updated_at"`
}

// Base returns the shared task fields. It is promoted to both variants.
func (t Task) Base() Task { return t }

// IsComplete reports whether the task has reached the Complete status.
func (t Task) IsComplete() bool { return t.Status == StatusComplete }

// DailyLog is an append-only progress note on a ProjectTask. The status it
// carries becomes the owning task's status when the log is added.
type DailyLog struct {
	ID        string     `json:"id" yaml:"id"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	Status    TaskStatus `json:"status" yaml:"status"`
	Notes     string     `json:"notes" yaml:"notes"`
	CreatedAt time.Time  `json:"createdAt" yaml:"created_at"`
}

// ProjectTask is squad-owned work with a manual priority and a daily log trail.
type ProjectTask struct {
	Task            `yaml:",inline"`
	SquadName       string     `json:"squadName" yaml:"squad_name"`
	SPOC            string     `json:"spocName" yaml:"spoc_name"`
	StartDate       time.Time  `json:"startDate" yaml:"start_date"`
	DeploymentDate  time.Time  `json:"deploymentDate" yaml:"deployment_date"`
	SecuritySignOff bool       `json:"securitySignOff" yaml:"security_sign_off"`
	Priority        int        `json:"priority" yaml:"priority"`
	DailyLogs       []DailyLog `json:"dailyLogs" yaml:"daily_logs"`
}

// Due returns the deployment date.
func (p ProjectTask) Due() time.Time { return p.DeploymentDate }

// AdHocTask is unowned one-off work with only a due date.
type AdHocTask struct {
	Task    `yaml:",inline"`
	DueDate time.Time `json:"dueDate" yaml:"due_date"`
}

// Due returns the due date.
func (a AdHocTask) Due() time.Time { return a.DueDate }

// Tracked is satisfied by both task variants. Use a type switch on
// ProjectTask / AdHocTask to reach variant-specific fields.
type Tracked interface {
	Base() Task
	Due() time.Time
}

// Flatten returns both collections as a single slice, project tasks first.
func Flatten(project []ProjectTask, adhoc []AdHocTask) []Tracked {
	all := make([]Tracked, 0, len(project)+len(adhoc))
	for _, p := range project {
		all = append(all, p)
	}
	for _, a := range adhoc {
		all = append(all, a)
	}
	return all
}

// ByPriority returns pointers into tasks ordered by priority, with unset
// (zero or negative) priorities last and ties kept in slice order.
func ByPriority(tasks []ProjectTask) []*ProjectTask {
	out := make([]*ProjectTask, len(tasks))
	for i := range tasks {
		out[i] = &tasks[i]
	}
	slices.SortStableFunc(out, func(a, b *ProjectTask) int {
		return cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority))
	})
	return out
}

func priorityRank(p int) int {
	if p <= 0 {
		return math.MaxInt
	}
	return p
}

// DensifyPriorities assigns priorities 1..N in the given order. Tasks whose
// priority changes get UpdatedAt = now so the new numbering wins a later merge.
func DensifyPriorities(ordered []*ProjectTask, now time.Time) {
	for i, t := range ordered {
		if t.Priority != i+1 {
			t.Priority = i + 1
			t.UpdatedAt = now
		}
	}
}
