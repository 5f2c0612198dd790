package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var cliNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	svc      core.TaskService
	repo     *storage.SnapshotRepository
	activity *observability.ActivityLog
	history  *observability.HistoryRecorder
}

// setupTestApp wires in-memory services into the package-level vars and
// restores the previous values when the test ends.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	clock := func() time.Time { return cliNow }
	store := storage.NewMemoryStore()
	app := &testApp{
		repo:     storage.NewSnapshotRepository(store, storage.WithClock(clock)),
		activity: observability.NewActivityLog(store, observability.WithActivityClock(clock)),
		history:  observability.NewHistoryRecorder(store, "", 0, zerolog.Nop()),
	}
	app.svc = core.NewTaskService(app.repo, app.activity, core.WithServiceClock(clock))

	setVar(t, &TaskSvc, app.svc)
	setVar[SnapshotRepository](t, &Repo, app.repo)
	setVar(t, &Activity, app.activity)
	setVar(t, &History, app.history)
	setVar(t, &Config, core.DefaultGlobalConfig(t.TempDir()))
	setVar(t, &BasePath, "")
	setVar(t, &WatchDir, "")
	setVar(t, &Now, clock)
	return app
}

// clearServices nils every injected service for the current test.
func clearServices(t *testing.T) {
	t.Helper()
	setVar(t, &TaskSvc, nil)
	setVar(t, &Repo, nil)
	setVar(t, &Activity, nil)
	setVar(t, &History, nil)
}

// setVar assigns v to *p for the duration of the test.
func setVar[T any](t *testing.T, p *T, v T) {
	t.Helper()
	orig := *p
	*p = v
	t.Cleanup(func() { *p = orig })
}

// runCmd invokes cmd's RunE directly and returns what it wrote.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func (a *testApp) addProject(t *testing.T, in core.ProjectTaskInput) *models.ProjectTask {
	t.Helper()
	task, err := a.svc.CreateProjectTask(context.Background(), in)
	if err != nil {
		t.Fatalf("creating project task %q: %v", in.Name, err)
	}
	return task
}

func (a *testApp) addAdHoc(t *testing.T, in core.AdHocTaskInput) *models.AdHocTask {
	t.Helper()
	task, err := a.svc.CreateAdHocTask(context.Background(), in)
	if err != nil {
		t.Fatalf("creating ad-hoc task %q: %v", in.Name, err)
	}
	return task
}

func (a *testApp) task(t *testing.T, id string) models.Tracked {
	t.Helper()
	task, err := a.svc.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask(%s): %v", id, err)
	}
	return task
}

func commandNames(cmd *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	return names
}
