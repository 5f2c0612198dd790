package observability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// DefaultActivityKey is the slot holding the activity log.
const DefaultActivityKey = "activity-log"

// DefaultActivityCapacity is the number of entries kept.
const DefaultActivityCapacity = 1000

// ActivityLog is an append-only, newest-first record of task mutations kept
// in a single storage slot. It never returns persistence errors; they are
// logged and the call carries on.
type ActivityLog struct {
	mu       sync.Mutex
	store    storage.Store
	key      string
	capacity int
	now      func() time.Time
	newID    func() string
	logger   zerolog.Logger
}

// ActivityOption configures an ActivityLog.
type ActivityOption func(*ActivityLog)

// WithActivityKey overrides the storage slot.
func WithActivityKey(key string) ActivityOption {
	return func(l *ActivityLog) { l.key = key }
}

// WithCapacity sets how many entries are kept. Non-positive values are ignored.
func WithCapacity(n int) ActivityOption {
	return func(l *ActivityLog) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithActivityClock overrides time.Now.
func WithActivityClock(now func() time.Time) ActivityOption {
	return func(l *ActivityLog) { l.now = now }
}

// WithEntryIDs overrides uuid generation.
func WithEntryIDs(gen func() string) ActivityOption {
	return func(l *ActivityLog) { l.newID = gen }
}

// WithActivityLogger sets the diagnostic logger.
func WithActivityLogger(logger zerolog.Logger) ActivityOption {
	return func(l *ActivityLog) { l.logger = logger }
}

// NewActivityLog creates an ActivityLog over store.
func NewActivityLog(store storage.Store, opts ...ActivityOption) *ActivityLog {
	l := &ActivityLog{
		store:    store,
		key:      DefaultActivityKey,
		capacity: DefaultActivityCapacity,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddEntry stamps entry with a fresh id and the current time, prepends it and
// trims the log to capacity. The stamped entry is returned.
func (l *ActivityLog) AddEntry(entry models.ActivityLogEntry) models.ActivityLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = l.newID()
	entry.Timestamp = l.now()

	entries := l.read()
	entries = append([]models.ActivityLogEntry{entry}, entries...)
	if len(entries) > l.capacity {
		entries = entries[:l.capacity]
	}
	l.write(entries)
	return entry
}

// LogTaskCreated records a new task.
func (l *ActivityLog) LogTaskCreated(task models.Task) {
	l.AddEntry(newEntry(models.ActionTaskCreated, task, nil))
}

// LogTaskDeleted records a removed task.
func (l *ActivityLog) LogTaskDeleted(task models.Task) {
	l.AddEntry(newEntry(models.ActionTaskDeleted, task, nil))
}

// LogStatusChange records a status transition.
func (l *ActivityLog) LogStatusChange(task models.Task, from, to models.TaskStatus) {
	l.AddEntry(newEntry(models.ActionStatusChanged, task, &models.ActivityDetails{
		Field:    "status",
		OldValue: string(from),
		NewValue: string(to),
	}))
}

// LogTaskUpdated records an edit to a single field.
func (l *ActivityLog) LogTaskUpdated(task models.Task, field, oldValue, newValue string) {
	l.AddEntry(newEntry(models.ActionTaskUpdated, task, &models.ActivityDetails{
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
	}))
}

// LogDailyLogAdded records a progress entry on a project task.
func (l *ActivityLog) LogDailyLogAdded(task models.Task, entry models.DailyLog) {
	l.AddEntry(newEntry(models.ActionDailyLogAdded, task, &models.ActivityDetails{
		Field:    "dailyLogs",
		NewValue: entry.Notes,
	}))
}

// LogSecuritySignOffChanged records a security sign-off toggle.
func (l *ActivityLog) LogSecuritySignOffChanged(task models.Task, from, to bool) {
	l.AddEntry(newEntry(models.ActionSecuritySignOffChanged, task, &models.ActivityDetails{
		Field:    "securitySignOff",
		OldValue: strconv.FormatBool(from),
		NewValue: strconv.FormatBool(to),
	}))
}

// Entries returns the log newest first. A missing or corrupt slot reads as
// an empty log.
func (l *ActivityLog) Entries() []models.ActivityLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Clear empties the log.
func (l *ActivityLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write([]models.ActivityLogEntry{})
}

// Export renders the full log as indented JSON.
func (l *ActivityLog) Export() []byte {
	entries := l.Entries()
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		l.logger.Error().Err(err).Msg("encoding activity log")
		return []byte("[]")
	}
	return data
}

func (l *ActivityLog) read() []models.ActivityLogEntry {
	data, err := l.store.Get(l.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Error().Err(err).Str("key", l.key).Msg("reading activity log")
		}
		return []models.ActivityLogEntry{}
	}

	var entries []models.ActivityLogEntry
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		if err != nil {
			l.logger.Warn().Err(err).Str("key", l.key).Msg("ignoring corrupt activity log")
		}
		return []models.ActivityLogEntry{}
	}
	return entries
}

func (l *ActivityLog) write(entries []models.ActivityLogEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		l.logger.Error().Err(err).Msg("encoding activity log")
		return
	}
	if err := l.store.Set(l.key, data); err != nil {
		l.logger.Error().Err(fmt.Errorf("writing activity log: %w", err)).Str("key", l.key).Msg("activity entry dropped")
	}
}

func newEntry(action models.ActivityAction, task models.Task, details *models.ActivityDetails) models.ActivityLogEntry {
	return models.ActivityLogEntry{
		Action:   action,
		TaskID:   task.ID,
		TaskName: task.Name,
		TaskType: task.Kind,
		Details:  details,
	}
}
