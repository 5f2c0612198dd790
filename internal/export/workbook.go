package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	SheetSummary   = "Executive Summary"
	SheetProject   = "Project Tasks"
	SheetAdHoc     = "Ad-Hoc Tasks"
	SheetDailyLogs = "Daily Logs"
)

var (
	projectHeader = []any{
		"Priority", "ID", "Name", "Description", "Squad", "SPOC", "Status",
		"Start Date", "Deployment Date", "Security Sign-off", "Daily Logs", "Created", "Updated",
	}
	adhocHeader    = []any{"ID", "Name", "Description", "Status", "Due Date", "Created", "Updated"}
	dailyLogHeader = []any{"Task ID", "Task Name", "Date", "Status", "Notes"}
)

// WriteWorkbook writes an xlsx workbook with an executive summary, one sheet
// per task kind and, when enabled, a sheet of daily logs.
func WriteWorkbook(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	for _, name := range []string{SheetProject, SheetAdHoc} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}
	}
	if doc.Options.IncludeDailyLogs {
		if _, err := f.NewSheet(SheetDailyLogs); err != nil {
			return fmt.Errorf("creating sheet %q: %w", SheetDailyLogs, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	heading, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("creating heading style: %w", err)
	}

	sw := &sheetWriter{f: f, header: header, heading: heading}
	sw.summary(doc)
	sw.projectTasks(doc)
	sw.adhocTasks(doc)
	if doc.Options.IncludeDailyLogs {
		sw.dailyLogs(doc)
	}
	if sw.err != nil {
		return fmt.Errorf("writing workbook: %w", sw.err)
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to sheets and keeps the first error.
type sheetWriter struct {
	f       *excelize.File
	header  int
	heading int
	err     error
}

func (sw *sheetWriter) row(sheet string, row int, values []any) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetSheetRow(sheet, cell, &values)
}

func (sw *sheetWriter) style(sheet string, row, cols, style int) {
	if sw.err != nil || cols == 0 {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	sw.err = sw.f.SetCellStyle(sheet, from, to, style)
}

func (sw *sheetWriter) table(sheet string, header []any, rows [][]any) {
	sw.row(sheet, 1, header)
	sw.style(sheet, 1, len(header), sw.header)
	for i, r := range rows {
		sw.row(sheet, i+2, r)
	}
	if sw.err == nil && len(header) > 0 {
		last, _ := excelize.ColumnNumberToName(len(header))
		sw.err = sw.f.SetColWidth(sheet, "A", last, 18)
	}
	if sw.err == nil {
		sw.err = sw.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
}

func (sw *sheetWriter) summary(doc Document) {
	const sheet = SheetSummary
	r := 1
	sw.row(sheet, r, []any{doc.title()})
	sw.style(sheet, r, 1, sw.heading)
	r++
	sw.row(sheet, r, []any{"Generated", doc.Report.GeneratedAt.Format("2006-01-02 15:04")})
	r += 2

	for _, s := range doc.summary() {
		sw.row(sheet, r, []any{s.Label, s.Value})
		r++
	}

	r++
	squadHeader := []any{"Squad", "Total", "Completed", "Completion Rate", "Avg Completion Days", "Blocked"}
	sw.row(sheet, r, squadHeader)
	sw.style(sheet, r, len(squadHeader), sw.header)
	r++
	for _, s := range doc.Report.Squads {
		sw.row(sheet, r, []any{
			s.Squad, s.TotalTasks, s.CompletedTasks,
			fmt.Sprintf("%.1f%%", s.CompletionRate), fmt.Sprintf("%.1f", s.AverageCompletionDays), s.BlockedTasks,
		})
		r++
	}

	r++
	statusHeader := []any{"Status", "Tasks", "Avg Days"}
	sw.row(sheet, r, statusHeader)
	sw.style(sheet, r, len(statusHeader), sw.header)
	r++
	for _, s := range doc.Report.TimeInStatus {
		sw.row(sheet, r, []any{s.Status.Label(), s.Count, s.AverageDays})
		r++
	}

	for _, section := range []struct {
		title string
		lines []string
	}{
		{"Bottlenecks", doc.Report.Insights.Bottlenecks},
		{"Recommendations", doc.Report.Insights.Recommendations},
	} {
		if len(section.lines) == 0 {
			continue
		}
		r++
		sw.row(sheet, r, []any{section.title})
		sw.style(sheet, r, 1, sw.header)
		r++
		for _, line := range section.lines {
			sw.row(sheet, r, []any{line})
			r++
		}
	}

	if sw.err == nil {
		sw.err = sw.f.SetColWidth(sheet, "A", "A", 28)
	}
	if sw.err == nil {
		sw.err = sw.f.SetColWidth(sheet, "B", "F", 20)
	}
}

func (sw *sheetWriter) projectTasks(doc Document) {
	tasks := doc.projects()
	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []any{
			t.Priority, t.ID, t.Name, t.Description, t.SquadName, t.SPOC, t.Status.Label(),
			formatDate(t.StartDate), formatDate(t.DeploymentDate), yesNo(t.SecuritySignOff),
			len(t.DailyLogs), formatDate(t.CreatedAt), formatDate(t.UpdatedAt),
		})
	}
	sw.table(SheetProject, projectHeader, rows)
}

func (sw *sheetWriter) adhocTasks(doc Document) {
	tasks := doc.adhoc()
	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []any{
			t.ID, t.Name, t.Description, t.Status.Label(),
			formatDate(t.DueDate), formatDate(t.CreatedAt), formatDate(t.UpdatedAt),
		})
	}
	sw.table(SheetAdHoc, adhocHeader, rows)
}

func (sw *sheetWriter) dailyLogs(doc Document) {
	var rows [][]any
	for _, t := range doc.projects() {
		for _, l := range t.DailyLogs {
			rows = append(rows, []any{t.ID, t.Name, formatDate(l.Timestamp), l.Status.Label(), l.Notes})
		}
	}
	sw.table(SheetDailyLogs, dailyLogHeader, rows)
}
