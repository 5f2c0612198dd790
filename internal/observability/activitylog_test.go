package observability

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var logNow = time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)

func newTestActivityLog(store storage.Store, opts ...ActivityOption) *ActivityLog {
	n := 0
	base := []ActivityOption{
		WithActivityClock(func() time.Time { return logNow }),
		WithEntryIDs(func() string { n++; return fmt.Sprintf("e%d", n) }),
	}
	return NewActivityLog(store, append(base, opts...)...)
}

var sampleTask = models.Task{ID: "t1", Kind: models.KindProject, Name: "Gateway"}

func TestActivityLog_AddEntryStampsAndPrepends(t *testing.T) {
	log := newTestActivityLog(storage.NewMemoryStore())

	log.LogTaskCreated(sampleTask)
	log.LogStatusChange(sampleTask, models.StatusToDo, models.StatusInProgress)

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Action != models.ActionStatusChanged || entries[1].Action != models.ActionTaskCreated {
		t.Errorf("entries not newest first: %s, %s", entries[0].Action, entries[1].Action)
	}
	if entries[0].ID != "e2" || entries[1].ID != "e1" {
		t.Errorf("ids = %s, %s", entries[0].ID, entries[1].ID)
	}
	if !entries[0].Timestamp.Equal(logNow) {
		t.Errorf("timestamp = %v, want %v", entries[0].Timestamp, logNow)
	}
	if entries[0].TaskID != "t1" || entries[0].TaskName != "Gateway" || entries[0].TaskType != models.KindProject {
		t.Errorf("task fields not copied: %+v", entries[0])
	}
	d := entries[0].Details
	if d == nil || d.Field != "status" || d.OldValue != "ToDo" || d.NewValue != "InProgress" {
		t.Errorf("details = %+v", d)
	}
}

func TestActivityLog_WrapperDetails(t *testing.T) {
	tests := []struct {
		name   string
		log    func(l *ActivityLog)
		action models.ActivityAction
		want   *models.ActivityDetails
	}{
		{"deleted", func(l *ActivityLog) { l.LogTaskDeleted(sampleTask) }, models.ActionTaskDeleted, nil},
		{"updated", func(l *ActivityLog) { l.LogTaskUpdated(sampleTask, "squad", "Alpha", "Beta") },
			models.ActionTaskUpdated, &models.ActivityDetails{Field: "squad", OldValue: "Alpha", NewValue: "Beta"}},
		{"daily log", func(l *ActivityLog) { l.LogDailyLogAdded(sampleTask, models.DailyLog{Notes: "deployed"}) },
			models.ActionDailyLogAdded, &models.ActivityDetails{Field: "dailyLogs", NewValue: "deployed"}},
		{"signoff", func(l *ActivityLog) { l.LogSecuritySignOffChanged(sampleTask, false, true) },
			models.ActionSecuritySignOffChanged, &models.ActivityDetails{Field: "securitySignOff", OldValue: "false", NewValue: "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestActivityLog(storage.NewMemoryStore())
			tt.log(l)
			e := l.Entries()[0]
			if e.Action != tt.action {
				t.Errorf("action = %s, want %s", e.Action, tt.action)
			}
			if (e.Details == nil) != (tt.want == nil) || (e.Details != nil && *e.Details != *tt.want) {
				t.Errorf("details = %+v, want %+v", e.Details, tt.want)
			}
		})
	}
}

func TestActivityLog_CapEvictsOldest(t *testing.T) {
	log := newTestActivityLog(storage.NewMemoryStore())

	for i := 0; i < DefaultActivityCapacity+1; i++ {
		log.LogTaskUpdated(sampleTask, "name", "", fmt.Sprintf("v%d", i))
	}

	entries := log.Entries()
	if len(entries) != DefaultActivityCapacity {
		t.Fatalf("got %d entries, want %d", len(entries), DefaultActivityCapacity)
	}
	if got := entries[0].Details.NewValue; got != "v1000" {
		t.Errorf("newest = %s, want v1000", got)
	}
	if got := entries[len(entries)-1].Details.NewValue; got != "v1" {
		t.Errorf("oldest kept = %s, want v1 (v0 evicted)", got)
	}
}

func TestActivityLog_CorruptOrMissingReadsEmpty(t *testing.T) {
	for _, data := range []string{"{not json", `{"a":1}`, "null"} {
		store := storage.NewMemoryStore()
		_ = store.Set(DefaultActivityKey, []byte(data))
		entries := newTestActivityLog(store).Entries()
		if entries == nil || len(entries) != 0 {
			t.Errorf("data %q: entries = %v, want empty", data, entries)
		}
	}

	if entries := newTestActivityLog(storage.NewMemoryStore()).Entries(); entries == nil || len(entries) != 0 {
		t.Errorf("missing slot: entries = %v, want empty", entries)
	}
}

func TestActivityLog_CorruptSlotIsReplacedOnWrite(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Set(DefaultActivityKey, []byte("garbage"))
	log := newTestActivityLog(store)

	log.LogTaskCreated(sampleTask)
	if n := len(log.Entries()); n != 1 {
		t.Errorf("got %d entries, want 1", n)
	}
}

type brokenStore struct{}

func (brokenStore) Get(string) ([]byte, error) { return nil, errors.New("io error") }
func (brokenStore) Set(string, []byte) error   { return errors.New("quota exceeded") }
func (brokenStore) Delete(string) error        { return errors.New("io error") }

func TestActivityLog_StorageFailuresAreSwallowed(t *testing.T) {
	log := newTestActivityLog(brokenStore{})

	entry := log.AddEntry(models.ActivityLogEntry{Action: models.ActionTaskCreated, TaskID: "x"})
	if entry.ID == "" {
		t.Error("entry should still be stamped")
	}
	if entries := log.Entries(); len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
	log.Clear()
	if string(log.Export()) != "[]" {
		t.Errorf("Export = %s, want []", log.Export())
	}
}

func TestActivityLog_ClearAndExport(t *testing.T) {
	log := newTestActivityLog(storage.NewMemoryStore())
	log.LogTaskCreated(sampleTask)
	log.LogTaskDeleted(sampleTask)

	var exported []models.ActivityLogEntry
	if err := json.Unmarshal(log.Export(), &exported); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(exported) != 2 || exported[0].Action != models.ActionTaskDeleted {
		t.Errorf("exported = %+v", exported)
	}

	log.Clear()
	if n := len(log.Entries()); n != 0 {
		t.Errorf("after Clear got %d entries", n)
	}
}

func TestActivityLog_Options(t *testing.T) {
	store := storage.NewMemoryStore()
	log := newTestActivityLog(store, WithActivityKey("audit"), WithCapacity(2), WithCapacity(0))

	for i := 0; i < 5; i++ {
		log.LogTaskCreated(sampleTask)
	}
	if n := len(log.Entries()); n != 2 {
		t.Errorf("got %d entries, want capacity 2", n)
	}
	if _, err := store.Get("audit"); err != nil {
		t.Errorf("custom key not used: %v", err)
	}
}
