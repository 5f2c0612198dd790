package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// ErrTaskNotFound is returned when no project or ad-hoc task has the given ID.
var ErrTaskNotFound = errors.New("task not found")

// Fields accepted by UpdateField.
const (
	FieldName           = "name"
	FieldDescription    = "description"
	FieldSquad          = "squad"
	FieldSPOC           = "spoc"
	FieldStartDate      = "start_date"
	FieldDeploymentDate = "deployment_date"
	FieldDueDate        = "due_date"
)

// DateLayout is the accepted format for date fields given as text.
const DateLayout = "2006-01-02"

// ProjectTaskInput carries the user-supplied fields of a new project task.
type ProjectTaskInput struct {
	Name            string
	Description     string
	SquadName       string
	SPOC            string
	Status          models.TaskStatus
	StartDate       time.Time
	DeploymentDate  time.Time
	SecuritySignOff bool
}

// AdHocTaskInput carries the user-supplied fields of a new ad-hoc task.
type AdHocTaskInput struct {
	Name        string
	Description string
	Status      models.TaskStatus
	DueDate     time.Time
}

// TaskService defines the task lifecycle operations. Every mutation writes
// back through the SnapshotStore and records an activity entry.
type TaskService interface {
	Snapshot(ctx context.Context) models.Snapshot
	GetTask(ctx context.Context, id string) (models.Tracked, error)
	CreateProjectTask(ctx context.Context, in ProjectTaskInput) (*models.ProjectTask, error)
	CreateAdHocTask(ctx context.Context, in AdHocTaskInput) (*models.AdHocTask, error)
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error
	AddDailyLog(ctx context.Context, id string, status models.TaskStatus, notes string) (*models.DailyLog, error)
	SetSecuritySignOff(ctx context.Context, id string, signedOff bool) error
	UpdateField(ctx context.Context, id, field, value string) error
	DeleteTask(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
}

// ServiceOption configures a TaskService.
type ServiceOption func(*taskService)

// WithServiceClock overrides time.Now.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *taskService) { s.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *taskService) { s.newID = gen }
}

type taskService struct {
	store    SnapshotStore
	activity ActivityRecorder
	now      func() time.Time
	newID    func() string
}

// NewTaskService creates a TaskService. activity may be nil.
func NewTaskService(store SnapshotStore, activity ActivityRecorder, opts ...ServiceOption) TaskService {
	s := &taskService{
		store:    store,
		activity: activity,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if s.activity == nil {
		s.activity = nopRecorder{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskService) Snapshot(ctx context.Context) models.Snapshot {
	return s.store.Load(ctx)
}

func (s *taskService) GetTask(ctx context.Context, id string) (models.Tracked, error) {
	snap := s.store.Load(ctx)
	if i := indexProject(snap.ProjectTasks, id); i >= 0 {
		return snap.ProjectTasks[i], nil
	}
	if i := indexAdHoc(snap.AdHocTasks, id); i >= 0 {
		return snap.AdHocTasks[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// CreateProjectTask appends a project task at the lowest priority.
func (s *taskService) CreateProjectTask(ctx context.Context, in ProjectTaskInput) (*models.ProjectTask, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("creating project task: name is required")
	}
	status, err := defaultStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("creating project task: %w", err)
	}

	snap := s.store.Load(ctx)
	now := s.now()
	task := models.ProjectTask{
		Task: models.Task{
			ID:          s.newID(),
			Kind:        models.KindProject,
			Name:        name,
			Description: in.Description,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		SquadName:       strings.TrimSpace(in.SquadName),
		SPOC:            strings.TrimSpace(in.SPOC),
		StartDate:       in.StartDate,
		DeploymentDate:  in.DeploymentDate,
		SecuritySignOff: in.SecuritySignOff,
		Priority:        len(snap.ProjectTasks) + 1,
		DailyLogs:       []models.DailyLog{},
	}

	tasks := append(snap.ProjectTasks, task)
	if err := s.store.SaveProjectTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("creating project task: %w", err)
	}
	s.activity.LogTaskCreated(task.Task)
	return &task, nil
}

func (s *taskService) CreateAdHocTask(ctx context.Context, in AdHocTaskInput) (*models.AdHocTask, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("creating ad-hoc task: name is required")
	}
	status, err := defaultStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("creating ad-hoc task: %w", err)
	}

	snap := s.store.Load(ctx)
	now := s.now()
	task := models.AdHocTask{
		Task: models.Task{
			ID:          s.newID(),
			Kind:        models.KindAdHoc,
			Name:        name,
			Description: in.Description,
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		DueDate: in.DueDate,
	}

	if err := s.store.SaveAdHocTasks(ctx, append(snap.AdHocTasks, task)); err != nil {
		return nil, fmt.Errorf("creating ad-hoc task: %w", err)
	}
	s.activity.LogTaskCreated(task.Task)
	return &task, nil
}

// UpdateStatus moves a task to status. Setting the current status again is
// a no-op and records nothing.
func (s *taskService) UpdateStatus(ctx context.Context, id string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("updating status: invalid status %q", status)
	}

	var before models.Task
	err := s.mutate(ctx, id, func(t *models.Task, _ *models.ProjectTask, _ *models.AdHocTask) (bool, error) {
		if t.Status == status {
			return false, nil
		}
		before = *t
		t.Status = status
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if before.ID != "" {
		after := before
		after.Status = status
		s.activity.LogStatusChange(after, before.Status, status)
	}
	return nil
}

// AddDailyLog appends a progress entry to a project task and moves the task
// to the entry's status.
func (s *taskService) AddDailyLog(ctx context.Context, id string, status models.TaskStatus, notes string) (*models.DailyLog, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("adding daily log: invalid status %q", status)
	}

	snap := s.store.Load(ctx)
	i := indexProject(snap.ProjectTasks, id)
	if i < 0 {
		if indexAdHoc(snap.AdHocTasks, id) >= 0 {
			return nil, fmt.Errorf("adding daily log: task %s is ad-hoc; daily logs apply to project tasks", id)
		}
		return nil, fmt.Errorf("adding daily log: %w: %s", ErrTaskNotFound, id)
	}

	now := s.now()
	entry := models.DailyLog{
		ID:        s.newID(),
		Timestamp: now,
		Status:    status,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
	}

	tasks := cloneProjects(snap.ProjectTasks)
	task := &tasks[i]
	prev := task.Status
	task.DailyLogs = append(task.DailyLogs, entry)
	task.Status = status
	task.UpdatedAt = now

	if err := s.store.SaveProjectTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("adding daily log: %w", err)
	}
	s.activity.LogDailyLogAdded(task.Task, entry)
	if prev != status {
		s.activity.LogStatusChange(task.Task, prev, status)
	}
	return &entry, nil
}

func (s *taskService) SetSecuritySignOff(ctx context.Context, id string, signedOff bool) error {
	var (
		changed bool
		base    models.Task
	)
	err := s.mutate(ctx, id, func(t *models.Task, p *models.ProjectTask, _ *models.AdHocTask) (bool, error) {
		if p == nil {
			return false, fmt.Errorf("task %s is ad-hoc; security sign-off applies to project tasks", id)
		}
		if p.SecuritySignOff == signedOff {
			return false, nil
		}
		p.SecuritySignOff = signedOff
		changed, base = true, *t
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("setting security sign-off: %w", err)
	}
	if changed {
		s.activity.LogSecuritySignOffChanged(base, !signedOff, signedOff)
	}
	return nil
}

// UpdateField edits one descriptive field. Dates are given as YYYY-MM-DD and
// an empty value clears them.
func (s *taskService) UpdateField(ctx context.Context, id, field, value string) error {
	var (
		oldValue string
		base     models.Task
		changed  bool
	)
	err := s.mutate(ctx, id, func(t *models.Task, p *models.ProjectTask, a *models.AdHocTask) (bool, error) {
		var target *string
		var date *time.Time

		switch field {
		case FieldName:
			if strings.TrimSpace(value) == "" {
				return false, fmt.Errorf("name must not be empty")
			}
			target = &t.Name
			value = strings.TrimSpace(value)
		case FieldDescription:
			target = &t.Description
		case FieldSquad, FieldSPOC, FieldStartDate, FieldDeploymentDate:
			if p == nil {
				return false, fmt.Errorf("field %q applies to project tasks", field)
			}
			switch field {
			case FieldSquad:
				target = &p.SquadName
				value = strings.TrimSpace(value)
			case FieldSPOC:
				target = &p.SPOC
				value = strings.TrimSpace(value)
			case FieldStartDate:
				date = &p.StartDate
			default:
				date = &p.DeploymentDate
			}
		case FieldDueDate:
			if a == nil {
				return false, fmt.Errorf("field %q applies to ad-hoc tasks", field)
			}
			date = &a.DueDate
		default:
			return false, fmt.Errorf("unknown field %q", field)
		}

		if date != nil {
			parsed, err := parseDate(value)
			if err != nil {
				return false, err
			}
			oldValue = formatDate(*date)
			if date.Equal(parsed) {
				return false, nil
			}
			*date = parsed
			value = formatDate(parsed)
		} else {
			oldValue = *target
			if oldValue == value {
				return false, nil
			}
			*target = value
		}
		changed, base = true, *t
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("updating %s: %w", field, err)
	}
	if changed {
		s.activity.LogTaskUpdated(base, field, oldValue, value)
	}
	return nil
}

// DeleteTask removes a task. Remaining project priorities are renumbered
// 1..N in their current order.
func (s *taskService) DeleteTask(ctx context.Context, id string) error {
	snap := s.store.Load(ctx)

	if i := indexProject(snap.ProjectTasks, id); i >= 0 {
		removed := snap.ProjectTasks[i]
		tasks := make([]models.ProjectTask, 0, len(snap.ProjectTasks)-1)
		tasks = append(tasks, snap.ProjectTasks[:i]...)
		tasks = append(tasks, snap.ProjectTasks[i+1:]...)
		models.DensifyPriorities(models.ByPriority(tasks), s.now())
		if err := s.store.SaveProjectTasks(ctx, tasks); err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		s.activity.LogTaskDeleted(removed.Task)
		return nil
	}

	if i := indexAdHoc(snap.AdHocTasks, id); i >= 0 {
		removed := snap.AdHocTasks[i]
		tasks := make([]models.AdHocTask, 0, len(snap.AdHocTasks)-1)
		tasks = append(tasks, snap.AdHocTasks[:i]...)
		tasks = append(tasks, snap.AdHocTasks[i+1:]...)
		if err := s.store.SaveAdHocTasks(ctx, tasks); err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		s.activity.LogTaskDeleted(removed.Task)
		return nil
	}

	return fmt.Errorf("deleting task: %w: %s", ErrTaskNotFound, id)
}

// Reorder assigns priorities 1..N to the given project task IDs in order.
// Project tasks not listed keep their relative order after the listed ones.
func (s *taskService) Reorder(ctx context.Context, ids []string) error {
	snap := s.store.Load(ctx)
	tasks := cloneProjects(snap.ProjectTasks)

	seen := make(map[string]bool, len(ids))
	ordered := make([]*models.ProjectTask, 0, len(tasks))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("reordering: duplicate task %s", id)
		}
		seen[id] = true
		i := indexProject(tasks, id)
		if i < 0 {
			return fmt.Errorf("reordering: %w: %s", ErrTaskNotFound, id)
		}
		ordered = append(ordered, &tasks[i])
	}
	for _, t := range models.ByPriority(tasks) {
		if !seen[t.ID] {
			ordered = append(ordered, t)
		}
	}

	models.DensifyPriorities(ordered, s.now())
	if err := s.store.SaveProjectTasks(ctx, tasks); err != nil {
		return fmt.Errorf("reordering: %w", err)
	}
	return nil
}

// mutate loads the snapshot, applies fn to the task with id and saves the
// owning collection when fn reports a change. UpdatedAt is stamped on change.
func (s *taskService) mutate(ctx context.Context, id string, fn func(t *models.Task, p *models.ProjectTask, a *models.AdHocTask) (bool, error)) error {
	snap := s.store.Load(ctx)

	if i := indexProject(snap.ProjectTasks, id); i >= 0 {
		tasks := cloneProjects(snap.ProjectTasks)
		changed, err := fn(&tasks[i].Task, &tasks[i], nil)
		if err != nil || !changed {
			return err
		}
		tasks[i].UpdatedAt = s.now()
		return s.store.SaveProjectTasks(ctx, tasks)
	}

	if i := indexAdHoc(snap.AdHocTasks, id); i >= 0 {
		tasks := append([]models.AdHocTask(nil), snap.AdHocTasks...)
		changed, err := fn(&tasks[i].Task, nil, &tasks[i])
		if err != nil || !changed {
			return err
		}
		tasks[i].UpdatedAt = s.now()
		return s.store.SaveAdHocTasks(ctx, tasks)
	}

	return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

func defaultStatus(status models.TaskStatus) (models.TaskStatus, error) {
	if status == "" {
		return models.StatusToDo, nil
	}
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q", status)
	}
	return status, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func indexProject(tasks []models.ProjectTask, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func indexAdHoc(tasks []models.AdHocTask, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// cloneProjects copies tasks deeply enough that appending daily logs does
// not alias the loaded snapshot.
func cloneProjects(tasks []models.ProjectTask) []models.ProjectTask {
	out := make([]models.ProjectTask, len(tasks))
	for i, t := range tasks {
		t.DailyLogs = append([]models.DailyLog(nil), t.DailyLogs...)
		out[i] = t
	}
	return out
}


type nopRecorder struct{}

func (nopRecorder) LogTaskCreated(models.Task)                                        {}
func (nopRecorder) LogTaskDeleted(models.Task)                                        {}
func (nopRecorder) LogStatusChange(models.Task, models.TaskStatus, models.TaskStatus) {}
func (nopRecorder) LogTaskUpdated(models.Task, string, string, string)                {}
func (nopRecorder) LogDailyLogAdded(models.Task, models.DailyLog)                     {}
func (nopRecorder) LogSecuritySignOffChanged(models.Task, bool, bool)                 {}
