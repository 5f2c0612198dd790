package cli

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

func TestStatusCommand_GroupsInWorkflowOrder(t *testing.T) {
	app := setupTestApp(t)
	setVar(t, &statusFilter, "")
	app.addProject(t, core.ProjectTaskInput{Name: "Gateway", Status: models.StatusBlocked})
	app.addProject(t, core.ProjectTaskInput{Name: "Ledger"})
	app.addAdHoc(t, core.AdHocTaskInput{Name: "Rotate keys", Status: models.StatusBlocked})

	out, err := runCmd(t, statusCmd)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	todo := strings.Index(out, "== TO DO (1) ==")
	blocked := strings.Index(out, "== BLOCKED (2) ==")
	if todo < 0 || blocked < 0 {
		t.Fatalf("missing group headings:\n%s", out)
	}
	if todo > blocked {
		t.Error("To Do group should come before Blocked")
	}
	if strings.Contains(out, "IN PROGRESS") {
		t.Error("empty groups should be omitted")
	}
	if !strings.Contains(out, "Rotate keys") || !strings.Contains(out, "adhoc") {
		t.Errorf("ad-hoc task missing from output:\n%s", out)
	}
}

func TestStatusCommand_Filter(t *testing.T) {
	app := setupTestApp(t)
	app.addProject(t, core.ProjectTaskInput{Name: "Gateway", Status: models.StatusTesting})
	app.addProject(t, core.ProjectTaskInput{Name: "Ledger"})

	setVar(t, &statusFilter, "testing")
	out, err := runCmd(t, statusCmd)
	if err != nil {
		t.Fatalf("status --filter: %v", err)
	}
	if !strings.Contains(out, "== TESTING (1) ==") || strings.Contains(out, "Ledger") {
		t.Errorf("unexpected filtered output:\n%s", out)
	}

	setVar(t, &statusFilter, "complete")
	out, err = runCmd(t, statusCmd)
	if err != nil {
		t.Fatalf("status --filter complete: %v", err)
	}
	if !strings.Contains(out, "== COMPLETE (0) ==") {
		t.Errorf("filtered empty group should still print its heading:\n%s", out)
	}
}

func TestStatusCommand_Errors(t *testing.T) {
	setupTestApp(t)
	setVar(t, &statusFilter, "")
	out, err := runCmd(t, statusCmd)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("output = %q", out)
	}

	setVar(t, &statusFilter, "someday")
	if _, err := runCmd(t, statusCmd); err == nil {
		t.Error("expected error for unknown status")
	}

	clearServices(t)
	if _, err := runCmd(t, statusCmd); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}
