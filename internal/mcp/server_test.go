package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/internal/storage"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var mcpNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// newTestServer wires an in-memory task service with three tasks:
// t1 Gateway (Platform Team, InProgress), t2 Ledger (Payments, Complete)
// and t3 Rotate keys (ad-hoc, ToDo).
func newTestServer(t *testing.T) (*Server, core.TaskService) {
	t.Helper()

	clock := func() time.Time { return mcpNow }
	activity := observability.NewActivityLog(storage.NewMemoryStore(),
		observability.WithActivityClock(clock),
		observability.WithEntryIDs(sequentialIDs("a")),
	)
	repo := storage.NewSnapshotRepository(storage.NewMemoryStore(), storage.WithClock(clock))
	svc := core.NewTaskService(repo, activity,
		core.WithServiceClock(clock),
		core.WithIDGenerator(sequentialIDs("t")),
	)

	ctx := context.Background()
	if _, err := svc.CreateProjectTask(ctx, core.ProjectTaskInput{
		Name: "Gateway", SquadName: "Platform Team", SPOC: "Dana", Status: models.StatusInProgress,
		StartDate: mcpNow.AddDate(0, 0, -3),
	}); err != nil {
		t.Fatalf("creating Gateway: %v", err)
	}
	if _, err := svc.CreateProjectTask(ctx, core.ProjectTaskInput{
		Name: "Ledger", SquadName: "Payments", Status: models.StatusComplete,
	}); err != nil {
		t.Fatalf("creating Ledger: %v", err)
	}
	if _, err := svc.CreateAdHocTask(ctx, core.AdHocTaskInput{
		Name: "Rotate keys", DueDate: mcpNow.AddDate(0, 0, 2),
	}); err != nil {
		t.Fatalf("creating Rotate keys: %v", err)
	}

	srv := NewServer(svc, activity, Options{TrendDays: 7, Now: clock}, "test")
	return srv, svc
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// callToolAllowError is like callTool but returns nil instead of failing when
// the tool call returns an error (e.g. schema validation failure).
func callToolAllowError(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		// Protocol-level error (e.g. schema validation) -- return nil.
		return nil
	}

	return result
}

// decodeOutput reads the tool output from the structured content, falling
// back to the text content.
func decodeOutput(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()

	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		if err != nil {
			t.Fatalf("marshalling structured content: %v", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshalling structured content: %v", err)
		}
		return
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
	}
}

// --- Tests ---

func TestGetTask(t *testing.T) {
	srv, _ := newTestServer(t)

	var out taskOutput
	decodeOutput(t, callTool(t, srv, "get_task", map[string]any{"task_id": "t1"}), &out)

	if out.ID != "t1" {
		t.Errorf("expected task ID t1, got %s", out.ID)
	}
	if out.Kind != "project" {
		t.Errorf("expected kind project, got %s", out.Kind)
	}
	if out.Status != "InProgress" {
		t.Errorf("expected status InProgress, got %s", out.Status)
	}
	if out.Squad != "Platform Team" {
		t.Errorf("expected squad Platform Team, got %s", out.Squad)
	}
	if out.Priority != 1 {
		t.Errorf("expected priority 1, got %d", out.Priority)
	}
	if out.StartDate != "2025-06-07" {
		t.Errorf("expected start date 2025-06-07, got %s", out.StartDate)
	}
}

func TestGetTaskAdHoc(t *testing.T) {
	srv, _ := newTestServer(t)

	var out taskOutput
	decodeOutput(t, callTool(t, srv, "get_task", map[string]any{"task_id": "t3"}), &out)

	if out.Kind != "adhoc" {
		t.Errorf("expected kind adhoc, got %s", out.Kind)
	}
	if out.DueDate != "2025-06-12" {
		t.Errorf("expected due date 2025-06-12, got %s", out.DueDate)
	}
	if out.Squad != "" || out.Priority != 0 {
		t.Errorf("ad-hoc task should carry no squad or priority, got %q / %d", out.Squad, out.Priority)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "get_task", map[string]any{"task_id": "missing"})

	if !result.IsError {
		t.Fatal("expected error result for non-existent task")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result content")
	}
}

func TestGetTaskMissingID(t *testing.T) {
	srv, _ := newTestServer(t)

	// The SDK validates required fields at the schema level, so calling
	// get_task without task_id may produce a protocol-level error.
	result := callToolAllowError(t, srv, "get_task", map[string]any{})
	if result == nil {
		return
	}
	if !result.IsError {
		t.Fatal("expected error result for missing task_id")
	}
}

func TestListTasks(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		args    map[string]any
		wantIDs []string
	}{
		{name: "all", args: map[string]any{}, wantIDs: []string{"t1", "t2", "t3"}},
		{name: "status", args: map[string]any{"status": "in_progress"}, wantIDs: []string{"t1"}},
		{name: "kind", args: map[string]any{"kind": "adhoc"}, wantIDs: []string{"t3"}},
		{name: "squad", args: map[string]any{"squad": "Payments"}, wantIDs: []string{"t2"}},
		{name: "no match", args: map[string]any{"status": "Blocked"}, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out listTasksOutput
			decodeOutput(t, callTool(t, srv, "list_tasks", tt.args), &out)

			if out.Count != len(tt.wantIDs) {
				t.Fatalf("expected %d tasks, got %d", len(tt.wantIDs), out.Count)
			}
			for i, id := range tt.wantIDs {
				if out.Tasks[i].ID != id {
					t.Errorf("task[%d] = %s, want %s", i, out.Tasks[i].ID, id)
				}
			}
		})
	}
}

func TestListTasksInvalidFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, args := range []map[string]any{
		{"status": "done"},
		{"kind": "epic"},
	} {
		result := callTool(t, srv, "list_tasks", args)
		if !result.IsError {
			t.Errorf("expected error result for %v", args)
		}
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	srv, svc := newTestServer(t)

	var out updateTaskStatusOutput
	decodeOutput(t, callTool(t, srv, "update_task_status", map[string]any{
		"task_id": "t3",
		"status":  "Complete",
	}), &out)

	if out.Message == "" {
		t.Error("expected a confirmation message")
	}
	task, err := svc.GetTask(context.Background(), "t3")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Base().Status != models.StatusComplete {
		t.Errorf("expected status Complete, got %s", task.Base().Status)
	}
}

func TestUpdateTaskStatusInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "update_task_status", map[string]any{
		"task_id": "t1",
		"status":  "finished",
	})
	if !result.IsError {
		t.Fatal("expected error result for invalid status")
	}

	result = callTool(t, srv, "update_task_status", map[string]any{
		"task_id": "missing",
		"status":  "Complete",
	})
	if !result.IsError {
		t.Fatal("expected error result for unknown task")
	}
}

func TestGetTrend(t *testing.T) {
	srv, _ := newTestServer(t)

	var out getTrendOutput
	decodeOutput(t, callTool(t, srv, "get_trend", map[string]any{"days": 3}), &out)

	if len(out.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(out.Points))
	}
	last := out.Points[2]
	if last.Date != "2025-06-10" {
		t.Errorf("expected last point 2025-06-10, got %s", last.Date)
	}
	if last.Created != 3 {
		t.Errorf("expected 3 created today, got %d", last.Created)
	}
	if last.Completed != 1 {
		t.Errorf("expected 1 completed today, got %d", last.Completed)
	}
}

func TestGetTrendDefaultDays(t *testing.T) {
	srv, _ := newTestServer(t)

	var out getTrendOutput
	decodeOutput(t, callTool(t, srv, "get_trend", map[string]any{}), &out)

	if len(out.Points) != 7 {
		t.Errorf("expected 7 points from the configured default, got %d", len(out.Points))
	}
}

func TestGetSquadPerformance(t *testing.T) {
	srv, _ := newTestServer(t)

	var out squadsOutput
	decodeOutput(t, callTool(t, srv, "get_squad_performance", map[string]any{}), &out)

	if len(out.Squads) != 2 {
		t.Fatalf("expected 2 squads, got %d", len(out.Squads))
	}
	if out.Squads[0].Squad != "Payments" || out.Squads[0].CompletionRate != 100 {
		t.Errorf("expected Payments at 100%% first, got %+v", out.Squads[0])
	}
	if out.Squads[1].Squad != "Platform Team" || out.Squads[1].CompletedTasks != 0 {
		t.Errorf("expected Platform Team with no completions second, got %+v", out.Squads[1])
	}
}

func TestGetVelocity(t *testing.T) {
	srv, _ := newTestServer(t)

	var out observability.Velocity
	decodeOutput(t, callTool(t, srv, "get_velocity", map[string]any{}), &out)

	if out.CurrentWeek != 1 {
		t.Errorf("expected 1 completion this week, got %d", out.CurrentWeek)
	}
	if out.LastWeek != 0 {
		t.Errorf("expected 0 completions last week, got %d", out.LastWeek)
	}
	if out.Trend != observability.TrendStable {
		t.Errorf("expected stable trend, got %s", out.Trend)
	}
}

func TestGetTimeInStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	var out timeInStatusOutput
	decodeOutput(t, callTool(t, srv, "get_time_in_status", map[string]any{}), &out)

	want := []models.TaskStatus{models.StatusToDo, models.StatusInProgress, models.StatusComplete}
	if len(out.Statuses) != len(want) {
		t.Fatalf("expected %d statuses, got %d", len(want), len(out.Statuses))
	}
	for i, s := range want {
		if out.Statuses[i].Status != s || out.Statuses[i].Count != 1 {
			t.Errorf("statuses[%d] = %+v, want %s with count 1", i, out.Statuses[i], s)
		}
	}
}

func TestGetInsights(t *testing.T) {
	srv, _ := newTestServer(t)

	var out insightsOutput
	decodeOutput(t, callTool(t, srv, "get_insights", map[string]any{}), &out)

	if out.RiskScore != 0 {
		t.Errorf("expected risk score 0, got %d", out.RiskScore)
	}
	if out.RiskLevel != string(observability.RiskLow) {
		t.Errorf("expected risk level low, got %s", out.RiskLevel)
	}
	if len(out.Bottlenecks) != 0 {
		t.Errorf("expected no bottlenecks, got %v", out.Bottlenecks)
	}
}

func TestGetInsightsBlocked(t *testing.T) {
	srv, svc := newTestServer(t)

	if err := svc.UpdateStatus(context.Background(), "t1", models.StatusBlocked); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	var out insightsOutput
	decodeOutput(t, callTool(t, srv, "get_insights", map[string]any{}), &out)

	if out.RiskScore != 10 {
		t.Errorf("expected risk score 10, got %d", out.RiskScore)
	}
	if len(out.Bottlenecks) != 1 {
		t.Errorf("expected one bottleneck, got %v", out.Bottlenecks)
	}
}

func TestSuggestSquad(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name      string
		input     string
		wantFound bool
		wantName  string
	}{
		{name: "containment", input: "platform", wantFound: true, wantName: "Platform Team"},
		{name: "typo", input: "Paymants", wantFound: true, wantName: "Payments"},
		{name: "exact name is not suggested", input: "payments", wantFound: false},
		{name: "unrelated", input: "Marketing", wantFound: false},
		{name: "too short", input: "p", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out suggestSquadOutput
			decodeOutput(t, callTool(t, srv, "suggest_squad", map[string]any{"name": tt.input}), &out)

			if out.Found != tt.wantFound {
				t.Fatalf("found = %v, want %v (suggestion %q)", out.Found, tt.wantFound, out.Suggestion)
			}
			if out.Suggestion != tt.wantName {
				t.Errorf("suggestion = %q, want %q", out.Suggestion, tt.wantName)
			}
		})
	}
}

func TestGetActivity(t *testing.T) {
	srv, _ := newTestServer(t)

	var out getActivityOutput
	decodeOutput(t, callTool(t, srv, "get_activity", map[string]any{}), &out)
	if out.Count != 3 {
		t.Fatalf("expected 3 entries, got %d", out.Count)
	}
	if out.Entries[0].TaskID != "t3" {
		t.Errorf("expected newest entry for t3, got %s", out.Entries[0].TaskID)
	}
	if out.Entries[0].Action != string(models.ActionTaskCreated) {
		t.Errorf("expected action task_created, got %s", out.Entries[0].Action)
	}

	decodeOutput(t, callTool(t, srv, "get_activity", map[string]any{"limit": 2}), &out)
	if out.Count != 2 {
		t.Errorf("expected 2 entries with limit, got %d", out.Count)
	}

	decodeOutput(t, callTool(t, srv, "get_activity", map[string]any{"task_id": "t1"}), &out)
	if out.Count != 1 || out.Entries[0].TaskName != "Gateway" {
		t.Errorf("expected the single Gateway entry, got %+v", out.Entries)
	}
}

func TestGetActivityWithoutLog(t *testing.T) {
	_, svc := newTestServer(t)
	srv := NewServer(svc, nil, Options{}, "")

	var out getActivityOutput
	decodeOutput(t, callTool(t, srv, "get_activity", map[string]any{}), &out)
	if out.Count != 0 || len(out.Entries) != 0 {
		t.Errorf("expected empty activity, got %+v", out)
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
