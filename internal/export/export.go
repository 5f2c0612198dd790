// Package export renders task collections and their analytics as a
// spreadsheet workbook, a PDF report or CSV. Nothing written here is read
// back; the JSON snapshot backup is the only importable format.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

// DateLayout formats dates in every export.
const DateLayout = "2006-01-02"

// DefaultTitle heads reports when Options.Title is empty.
const DefaultTitle = "Task Tracker Report"

// Options controls what an export contains.
type Options struct {
	Title            string
	IncludeCompleted bool
	IncludeDailyLogs bool
	// Compress deflates PDF content streams.
	Compress bool
}

// DefaultOptions includes everything.
func DefaultOptions() Options {
	return Options{
		Title:            DefaultTitle,
		IncludeCompleted: true,
		IncludeDailyLogs: true,
		Compress:         true,
	}
}

// Document is the input to every writer.
type Document struct {
	ProjectTasks []models.ProjectTask
	AdHocTasks   []models.AdHocTask
	Report       observability.Report
	Options      Options
}

// NewDocument builds a Document from a snapshot, computing the analytics
// report as of now.
func NewDocument(snap models.Snapshot, trendDays int, now time.Time, opts Options) Document {
	return Document{
		ProjectTasks: snap.ProjectTasks,
		AdHocTasks:   snap.AdHocTasks,
		Report:       observability.BuildReport(snap, trendDays, now),
		Options:      opts,
	}
}

func (d Document) title() string {
	if d.Options.Title == "" {
		return DefaultTitle
	}
	return d.Options.Title
}

func (d Document) projects() []models.ProjectTask {
	if d.Options.IncludeCompleted {
		return d.ProjectTasks
	}
	out := make([]models.ProjectTask, 0, len(d.ProjectTasks))
	for _, t := range d.ProjectTasks {
		if !t.IsComplete() {
			out = append(out, t)
		}
	}
	return out
}

func (d Document) adhoc() []models.AdHocTask {
	if d.Options.IncludeCompleted {
		return d.AdHocTasks
	}
	out := make([]models.AdHocTask, 0, len(d.AdHocTasks))
	for _, t := range d.AdHocTasks {
		if !t.IsComplete() {
			out = append(out, t)
		}
	}
	return out
}

// statusCounts returns per-status counts over the exported tasks in
// workflow order, skipping statuses with no tasks.
func (d Document) statusCounts() []statusCount {
	counts := make(map[models.TaskStatus]int)
	for _, t := range models.Flatten(d.projects(), d.adhoc()) {
		counts[t.Base().Status]++
	}
	var out []statusCount
	for _, s := range models.Statuses() {
		if n := counts[s]; n > 0 {
			out = append(out, statusCount{Status: s, Count: n})
		}
	}
	return out
}

type statusCount struct {
	Status models.TaskStatus
	Count  int
}

type summaryRow struct {
	Label string
	Value string
}

// summary lists the headline figures shared by the workbook and PDF.
func (d Document) summary() []summaryRow {
	project, adhoc := d.projects(), d.adhoc()
	total := len(project) + len(adhoc)
	completed := 0
	for _, t := range models.Flatten(project, adhoc) {
		if t.Base().IsComplete() {
			completed++
		}
	}
	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}

	v := d.Report.Velocity
	ins := d.Report.Insights
	estimated := ins.EstimatedCompletion
	if estimated == "" {
		estimated = "n/a"
	}
	return []summaryRow{
		{"Total Tasks", strconv.Itoa(total)},
		{"Project Tasks", strconv.Itoa(len(project))},
		{"Ad-Hoc Tasks", strconv.Itoa(len(adhoc))},
		{"Completed", strconv.Itoa(completed)},
		{"Completion Rate", fmt.Sprintf("%.1f%%", rate)},
		{"Risk Score", fmt.Sprintf("%d (%s)", ins.RiskScore, ins.Level())},
		{"Completed This Week", strconv.Itoa(v.CurrentWeek)},
		{"Completed Last Week", strconv.Itoa(v.LastWeek)},
		{"Average Weekly Velocity", strconv.FormatFloat(v.AverageVelocity, 'f', 1, 64)},
		{"Velocity Trend", string(v.Trend)},
		{"Projected Next Week", strconv.Itoa(v.NextWeekProjection)},
		{"Estimated Completion", estimated},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
