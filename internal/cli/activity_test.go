package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

func TestActivityList(t *testing.T) {
	app := setupTestApp(t)
	gateway := app.addProject(t, core.ProjectTaskInput{Name: "Gateway"})
	app.addAdHoc(t, core.AdHocTaskInput{Name: "Rotate keys"})
	if err := app.svc.UpdateStatus(t.Context(), gateway.ID, models.StatusBlocked); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	out, err := runCmd(t, activityListCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 entries, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Status Changed") || !strings.Contains(lines[0], `status "ToDo" -> "Blocked"`) {
		t.Errorf("expected newest entry to be the status change, got %q", lines[0])
	}
	if !strings.Contains(lines[2], "Task Created") || !strings.Contains(lines[2], "Gateway") {
		t.Errorf("expected oldest entry to be Gateway's creation, got %q", lines[2])
	}

	setVar(t, &activityLimitFlag, 1)
	out, _ = runCmd(t, activityListCmd)
	if n := len(strings.Split(strings.TrimSpace(out), "\n")); n != 1 {
		t.Errorf("expected 1 entry with --limit 1, got %d", n)
	}

	setVar(t, &activityLimitFlag, 0)
	setVar(t, &activityTaskFlag, gateway.ID)
	out, _ = runCmd(t, activityListCmd)
	if strings.Contains(out, "Rotate keys") {
		t.Errorf("expected only Gateway entries:\n%s", out)
	}
}

func TestActivityList_Empty(t *testing.T) {
	setupTestApp(t)

	out, err := runCmd(t, activityListCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No activity recorded.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestActivityClear(t *testing.T) {
	app := setupTestApp(t)
	app.addProject(t, core.ProjectTaskInput{Name: "Gateway"})

	if _, err := runCmd(t, activityClearCmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(app.activity.Entries()); n != 0 {
		t.Errorf("expected empty log, got %d entries", n)
	}
}

func TestActivityExport(t *testing.T) {
	app := setupTestApp(t)
	app.addProject(t, core.ProjectTaskInput{Name: "Gateway"})

	out, err := runCmd(t, activityExportCmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []models.ActivityLogEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("export is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Action != models.ActionTaskCreated {
		t.Errorf("unexpected exported entries: %+v", entries)
	}

	path := filepath.Join(t.TempDir(), "activity.json")
	setVar(t, &activityOutputFlag, path)
	if _, err := runCmd(t, activityExportCmd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "Gateway") {
		t.Errorf("exported file missing task name:\n%s", data)
	}
}

func TestActivity_NilLog(t *testing.T) {
	clearServices(t)

	for _, cmd := range activityCmd.Commands() {
		_, err := runCmd(t, cmd)
		if err == nil || !strings.Contains(err.Error(), "activity log not initialized") {
			t.Errorf("%s: expected not-initialized error, got %v", cmd.Name(), err)
		}
	}
}
