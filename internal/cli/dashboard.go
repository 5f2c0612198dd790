package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/logging"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// Dashboard panel indices.
const (
	panelTasks = iota
	panelAnalytics
	panelInsights
	panelActivity
	panelCount
)

// dashboardActivityRows is the number of activity entries shown.
const dashboardActivityRows = 8

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	taskCounts map[models.TaskStatus]int
	projects   int
	adhoc      int
	velocity   *observability.Velocity
	squads     []observability.SquadPerformance
	insights   *observability.Insights
	activity   []activityRow

	// Live reload.
	watcher  *fsnotify.Watcher
	watchErr error

	// State.
	loading bool
	err     error
}

type activityRow struct {
	time   string
	action string
	task   string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	taskCounts map[models.TaskStatus]int
	projects   int
	adhoc      int
	velocity   *observability.Velocity
	squads     []observability.SquadPerformance
	insights   *observability.Insights
	activity   []activityRow
	err        error
}

// snapshotChangedMsg reports a write to the watched data directory.
type snapshotChangedMsg struct{}

// watchErrMsg reports a watcher failure. Watching continues.
type watchErrMsg struct{ err error }

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusToDo       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusBlocked    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusTesting    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	statusComplete   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	riskHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	riskMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	riskLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelTasks,
		loading:     true,
		taskCounts:  make(map[models.TaskStatus]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	if m.watcher != nil {
		return tea.Batch(loadData, waitForChange(m.watcher))
	}
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotChangedMsg:
		m.loading = true
		return m, tea.Batch(loadData, waitForChange(m.watcher))

	case watchErrMsg:
		m.watchErr = msg.err
		return m, waitForChange(m.watcher)

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.taskCounts = msg.taskCounts
		m.projects = msg.projects
		m.adhoc = msg.adhoc
		m.velocity = msg.velocity
		m.squads = msg.squads
		m.insights = msg.insights
		m.activity = msg.activity
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" TaskPulse Dashboard ")
	helpText := "tab: switch panel | r: refresh | q: quit"
	if m.watcher != nil {
		helpText += " | live reload on"
	}
	if m.watchErr != nil {
		helpText += fmt.Sprintf(" | watch error: %s", m.watchErr)
	}
	help := helpStyle.Render(helpText)

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	tasksPanel := m.renderTasksPanel()
	analyticsPanel := m.renderAnalyticsPanel()
	insightsPanel := m.renderInsightsPanel()
	activityPanel := m.renderActivityPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 100 {
		// Grid layout: two rows of two panels.
		colWidth := availableWidth / 2
		tasksPanel = m.applyPanelStyle(panelTasks, tasksPanel, colWidth-4)
		analyticsPanel = m.applyPanelStyle(panelAnalytics, analyticsPanel, colWidth-4)
		insightsPanel = m.applyPanelStyle(panelInsights, insightsPanel, colWidth-4)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, colWidth-4)
		body = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, tasksPanel, analyticsPanel),
			lipgloss.JoinHorizontal(lipgloss.Top, insightsPanel, activityPanel),
		)
	} else {
		// Vertical layout: stacked.
		panelWidth := max(availableWidth-4, 20)
		tasksPanel = m.applyPanelStyle(panelTasks, tasksPanel, panelWidth)
		analyticsPanel = m.applyPanelStyle(panelAnalytics, analyticsPanel, panelWidth)
		insightsPanel = m.applyPanelStyle(panelInsights, insightsPanel, panelWidth)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, tasksPanel, analyticsPanel, insightsPanel, activityPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderTasksPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString("\n")

	if m.projects+m.adhoc == 0 {
		b.WriteString("  No tasks found.")
		return b.String()
	}

	for _, status := range models.Statuses() {
		count := m.taskCounts[status]
		if count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-14s %d", status.Label(), count)
		b.WriteString(styleForStatus(status).Render(label))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n  Project: %d  Ad-hoc: %d  Total: %d", m.projects, m.adhoc, m.projects+m.adhoc)
	return b.String()
}

func (m dashboardModel) renderAnalyticsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Velocity"))
	b.WriteString("\n")

	if m.velocity == nil {
		b.WriteString("  No analytics available.")
		return b.String()
	}

	v := m.velocity
	fmt.Fprintf(&b, "  %-14s %d\n", "This week", v.CurrentWeek)
	fmt.Fprintf(&b, "  %-14s %d\n", "Last week", v.LastWeek)
	fmt.Fprintf(&b, "  %-14s %.1f\n", "4-week avg", v.AverageVelocity)
	fmt.Fprintf(&b, "  %-14s %s\n", "Trend", v.Trend)
	fmt.Fprintf(&b, "  %-14s %d\n", "Next week", v.NextWeekProjection)

	if len(m.squads) > 0 {
		b.WriteString("\n  Squads\n")
		for _, s := range m.squads[:min(len(m.squads), 5)] {
			fmt.Fprintf(&b, "  %-18s %5.1f%% (%d/%d)\n", truncate(orDash(s.Squad), 18), s.CompletionRate, s.CompletedTasks, s.TotalTasks)
		}
	}
	return b.String()
}

func (m dashboardModel) renderInsightsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Risk"))
	b.WriteString("\n")

	if m.insights == nil {
		b.WriteString("  No insights available.")
		return b.String()
	}

	ins := m.insights
	level := ins.Level()
	b.WriteString(styleForRisk(level).Render(fmt.Sprintf("  Score %d/100 [%s]", ins.RiskScore, strings.ToUpper(string(level)))))
	b.WriteString("\n")
	if ins.EstimatedCompletion != "" {
		fmt.Fprintf(&b, "  Est. completion %s\n", ins.EstimatedCompletion)
	}
	for _, bn := range ins.Bottlenecks {
		fmt.Fprintf(&b, "  ! %s\n", bn)
	}
	for _, r := range ins.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", r)
	}
	return b.String()
}

func (m dashboardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent Activity"))
	b.WriteString("\n")

	if len(m.activity) == 0 {
		b.WriteString("  No activity recorded.")
		return b.String()
	}

	for _, a := range m.activity {
		fmt.Fprintf(&b, "  %s %-18s %s\n", a.time, a.action, a.task)
	}
	return b.String()
}

func styleForStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusToDo:
		return statusToDo
	case models.StatusInProgress:
		return statusInProgress
	case models.StatusBlocked:
		return statusBlocked
	case models.StatusTesting:
		return statusTesting
	case models.StatusComplete:
		return statusComplete
	default:
		return lipgloss.NewStyle()
	}
}

func styleForRisk(level observability.RiskLevel) lipgloss.Style {
	switch level {
	case observability.RiskHigh:
		return riskHigh
	case observability.RiskMedium:
		return riskMedium
	case observability.RiskLow:
		return riskLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		taskCounts: make(map[models.TaskStatus]int),
	}

	if TaskSvc == nil {
		result.err = fmt.Errorf("task service not initialized")
		return result
	}

	snap := TaskSvc.Snapshot(context.Background())
	for _, t := range models.Flatten(snap.ProjectTasks, snap.AdHocTasks) {
		result.taskCounts[t.Base().Status]++
	}
	result.projects = len(snap.ProjectTasks)
	result.adhoc = len(snap.AdHocTasks)

	now := Now()
	velocity := observability.CalculateVelocity(snap.ProjectTasks, snap.AdHocTasks, now)
	insights := observability.GeneratePredictiveInsights(snap.ProjectTasks, snap.AdHocTasks, velocity, now)
	result.velocity = &velocity
	result.insights = &insights
	result.squads = observability.CalculateSquadPerformance(snap.ProjectTasks)

	if Activity != nil {
		entries := Activity.Entries()
		result.activity = make([]activityRow, 0, min(len(entries), dashboardActivityRows))
		for _, e := range entries[:min(len(entries), dashboardActivityRows)] {
			result.activity = append(result.activity, activityRow{
				time:   e.Timestamp.Local().Format("01-02 15:04"),
				action: e.Action.Label(),
				task:   e.TaskName,
			})
		}
	}

	return result
}

// waitForChange blocks until a snapshot file in the watched directory is
// written, created or renamed into place.
func waitForChange(w *fsnotify.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Ext(ev.Name) != ".json" {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					return snapshotChangedMsg{}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

// newSnapshotWatcher watches dir, creating it when missing.
func newSnapshotWatcher(dir string) (*fsnotify.Watcher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return w, nil
}

var dashboardNoWatchFlag bool

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for tasks, velocity, risk and activity",
	Long: `Launch an interactive terminal dashboard showing task status counts,
velocity, squad completion rates, risk insights and recent activity.

With the file backend the dashboard reloads whenever the stored data
changes, including changes made by other tpulse commands.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		model := newDashboardModel()
		if WatchDir != "" && !dashboardNoWatchFlag {
			w, err := newSnapshotWatcher(WatchDir)
			if err != nil {
				log := logging.Component("dashboard")
				log.Warn().Err(err).Str("dir", WatchDir).Msg("live reload disabled")
			} else {
				defer w.Close()
				model.watcher = w
			}
		}

		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().BoolVar(&dashboardNoWatchFlag, "no-watch", false, "Disable live reload")
	rootCmd.AddCommand(dashboardCmd)
}
