// Package mcp provides an MCP (Model Context Protocol) server that exposes
// task data and analytics as tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// ActivityReader is the read side of the activity log.
type ActivityReader interface {
	Entries() []models.ActivityLogEntry
}

// Options tunes analytics defaults. Zero values fall back to defaults.
type Options struct {
	TrendDays      int
	MatchThreshold float64
	Now            func() time.Time
}

// Server wraps the task service and exposes it as MCP tools.
type Server struct {
	server   *gomcp.Server
	tasks    core.TaskService
	activity ActivityReader
	opts     Options
}

// NewServer creates a new MCP server. activity may be nil, in which case
// get_activity reports an empty log.
func NewServer(tasks core.TaskService, activity ActivityReader, opts Options, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if opts.TrendDays <= 0 {
		opts.TrendDays = 14
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = core.DefaultSquadMatchThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		tasks:    tasks,
		activity: activity,
		opts:     opts,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "tpulse", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the task id"`
}

type taskOutput struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Status          string `json:"status"`
	Squad           string `json:"squad,omitempty"`
	SPOC            string `json:"spoc,omitempty"`
	Priority        int    `json:"priority,omitempty"`
	SecuritySignOff bool   `json:"security_sign_off,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	DailyLogs       int    `json:"daily_logs,omitempty"`
	Created         string `json:"created"`
	Updated         string `json:"updated"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status (ToDo, InProgress, Blocked, Testing, Complete)"`
	Kind   string `json:"kind,omitempty" jsonschema:"filter by kind (project or adhoc)"`
	Squad  string `json:"squad,omitempty" jsonschema:"filter project tasks by exact squad name"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"the task id"`
	Status string `json:"status" jsonschema:"the new status (ToDo, InProgress, Blocked, Testing, Complete)"`
}

type updateTaskStatusOutput struct {
	Message string `json:"message"`
}

type getTrendInput struct {
	Days int `json:"days,omitempty" jsonschema:"number of calendar days ending today (default from config)"`
}

type getTrendOutput struct {
	Points []observability.TrendPoint `json:"points"`
}

type noInput struct{}

type squadsOutput struct {
	Squads []observability.SquadPerformance `json:"squads"`
}

type timeInStatusOutput struct {
	Statuses []observability.StatusTime `json:"statuses"`
}

type insightsOutput struct {
	RiskScore           int      `json:"risk_score"`
	RiskLevel           string   `json:"risk_level"`
	Bottlenecks         []string `json:"bottlenecks"`
	Recommendations     []string `json:"recommendations"`
	EstimatedCompletion string   `json:"estimated_completion,omitempty"`
}

type suggestSquadInput struct {
	Name string `json:"name" jsonschema:"the squad name being entered"`
}

type suggestSquadOutput struct {
	Suggestion string `json:"suggestion,omitempty"`
	Found      bool   `json:"found"`
}

type getActivityInput struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of entries, newest first (default 50)"`
	TaskID string `json:"task_id,omitempty" jsonschema:"only entries for this task"`
}

type activityOutput struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	TaskID    string `json:"task_id"`
	TaskName  string `json:"task_name"`
	TaskType  string `json:"task_type"`
	Field     string `json:"field,omitempty"`
	OldValue  string `json:"old_value,omitempty"`
	NewValue  string `json:"new_value,omitempty"`
}

type getActivityOutput struct {
	Entries []activityOutput `json:"entries"`
	Count   int              `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a project or ad-hoc task by ID.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List project and ad-hoc tasks with optional status, kind and squad filters.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task to a new status. Valid statuses: ToDo, InProgress, Blocked, Testing, Complete.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_trend",
		Description: "Daily counts of completed, created, in-progress and blocked tasks, oldest day first.",
	}, s.handleGetTrend)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_squad_performance",
		Description: "Per-squad totals, completion rate, average completion days and blocked count, best rate first.",
	}, s.handleGetSquads)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_velocity",
		Description: "Completions this week and last week, four-week average, trend and next-week projection.",
	}, s.handleGetVelocity)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_time_in_status",
		Description: "Average days from creation to last update for tasks in each current status.",
	}, s.handleGetTimeInStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_insights",
		Description: "Risk score (0-100), bottlenecks, recommendations and estimated completion date.",
	}, s.handleGetInsights)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "suggest_squad",
		Description: "Suggest an existing squad name similar to the one given, to avoid near-duplicate squads.",
	}, s.handleSuggestSquad)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_activity",
		Description: "Recent activity log entries, newest first.",
	}, s.handleGetActivity)
}

// --- Tool handlers ---

func (s *Server) handleGetTask(ctx context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.tasks.GetTask(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	var status models.TaskStatus
	if input.Status != "" {
		parsed, err := models.ParseStatus(input.Status)
		if err != nil {
			return errorResult(err.Error()), listTasksOutput{}, nil
		}
		status = parsed
	}
	kind := models.TaskKind(strings.ToLower(input.Kind))
	if kind != "" && kind != models.KindProject && kind != models.KindAdHoc {
		return errorResult(fmt.Sprintf("invalid kind %q: must be project or adhoc", input.Kind)), listTasksOutput{}, nil
	}

	snap := s.tasks.Snapshot(ctx)
	out := listTasksOutput{Tasks: []taskOutput{}}
	for _, t := range models.Flatten(snap.ProjectTasks, snap.AdHocTasks) {
		b := t.Base()
		if status != "" && b.Status != status {
			continue
		}
		if kind != "" && b.Kind != kind {
			continue
		}
		if input.Squad != "" {
			p, ok := t.(models.ProjectTask)
			if !ok || p.SquadName != input.Squad {
				continue
			}
		}
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleUpdateTaskStatus(ctx context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	status, err := models.ParseStatus(input.Status)
	if err != nil {
		return errorResult(err.Error()), updateTaskStatusOutput{}, nil
	}

	if err := s.tasks.UpdateStatus(ctx, input.TaskID, status); err != nil {
		return errorResult(fmt.Sprintf("updating task %s: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}
	return nil, updateTaskStatusOutput{
		Message: fmt.Sprintf("Task %s status updated to %s", input.TaskID, status),
	}, nil
}

func (s *Server) handleGetTrend(ctx context.Context, _ *gomcp.CallToolRequest, input getTrendInput) (*gomcp.CallToolResult, getTrendOutput, error) {
	days := input.Days
	if days < 0 {
		return errorResult("days must not be negative"), getTrendOutput{}, nil
	}
	if days == 0 {
		days = s.opts.TrendDays
	}
	snap := s.tasks.Snapshot(ctx)
	return nil, getTrendOutput{
		Points: observability.CalculateTrendData(snap.ProjectTasks, snap.AdHocTasks, days, s.opts.Now()),
	}, nil
}

func (s *Server) handleGetSquads(ctx context.Context, _ *gomcp.CallToolRequest, _ noInput) (*gomcp.CallToolResult, squadsOutput, error) {
	snap := s.tasks.Snapshot(ctx)
	return nil, squadsOutput{Squads: observability.CalculateSquadPerformance(snap.ProjectTasks)}, nil
}

func (s *Server) handleGetVelocity(ctx context.Context, _ *gomcp.CallToolRequest, _ noInput) (*gomcp.CallToolResult, observability.Velocity, error) {
	snap := s.tasks.Snapshot(ctx)
	return nil, observability.CalculateVelocity(snap.ProjectTasks, snap.AdHocTasks, s.opts.Now()), nil
}

func (s *Server) handleGetTimeInStatus(ctx context.Context, _ *gomcp.CallToolRequest, _ noInput) (*gomcp.CallToolResult, timeInStatusOutput, error) {
	snap := s.tasks.Snapshot(ctx)
	return nil, timeInStatusOutput{
		Statuses: observability.CalculateTimeInStatus(snap.ProjectTasks, snap.AdHocTasks),
	}, nil
}

func (s *Server) handleGetInsights(ctx context.Context, _ *gomcp.CallToolRequest, _ noInput) (*gomcp.CallToolResult, insightsOutput, error) {
	snap := s.tasks.Snapshot(ctx)
	now := s.opts.Now()
	velocity := observability.CalculateVelocity(snap.ProjectTasks, snap.AdHocTasks, now)
	ins := observability.GeneratePredictiveInsights(snap.ProjectTasks, snap.AdHocTasks, velocity, now)
	return nil, insightsOutput{
		RiskScore:           ins.RiskScore,
		RiskLevel:           string(ins.Level()),
		Bottlenecks:         ins.Bottlenecks,
		Recommendations:     ins.Recommendations,
		EstimatedCompletion: ins.EstimatedCompletion,
	}, nil
}

func (s *Server) handleSuggestSquad(ctx context.Context, _ *gomcp.CallToolRequest, input suggestSquadInput) (*gomcp.CallToolResult, suggestSquadOutput, error) {
	snap := s.tasks.Snapshot(ctx)
	names := make([]string, 0, len(snap.ProjectTasks))
	for _, t := range snap.ProjectTasks {
		names = append(names, t.SquadName)
	}
	name, ok := core.FindSimilarSquad(input.Name, names, s.opts.MatchThreshold)
	return nil, suggestSquadOutput{Suggestion: name, Found: ok}, nil
}

func (s *Server) handleGetActivity(_ context.Context, _ *gomcp.CallToolRequest, input getActivityInput) (*gomcp.CallToolResult, getActivityOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	out := getActivityOutput{Entries: []activityOutput{}}
	if s.activity == nil {
		return nil, out, nil
	}
	for _, e := range s.activity.Entries() {
		if input.TaskID != "" && e.TaskID != input.TaskID {
			continue
		}
		out.Entries = append(out.Entries, activityToOutput(e))
		if len(out.Entries) == limit {
			break
		}
	}
	out.Count = len(out.Entries)
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Tracked) taskOutput {
	b := t.Base()
	out := taskOutput{
		ID:          b.ID,
		Kind:        string(b.Kind),
		Name:        b.Name,
		Description: b.Description,
		Status:      string(b.Status),
		DueDate:     formatDate(t.Due()),
		Created:     b.CreatedAt.Format(time.RFC3339),
		Updated:     b.UpdatedAt.Format(time.RFC3339),
	}
	if p, ok := t.(models.ProjectTask); ok {
		out.Squad = p.SquadName
		out.SPOC = p.SPOC
		out.Priority = p.Priority
		out.SecuritySignOff = p.SecuritySignOff
		out.StartDate = formatDate(p.StartDate)
		out.DailyLogs = len(p.DailyLogs)
	}
	return out
}

func activityToOutput(e models.ActivityLogEntry) activityOutput {
	out := activityOutput{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		Action:    string(e.Action),
		TaskID:    e.TaskID,
		TaskName:  e.TaskName,
		TaskType:  string(e.TaskType),
	}
	if e.Details != nil {
		out.Field = e.Details.Field
		out.OldValue = e.Details.OldValue
		out.NewValue = e.Details.NewValue
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
