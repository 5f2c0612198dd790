package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/export"
)

var (
	exportOutputFlag           string
	exportTitleFlag            string
	exportExcludeCompletedFlag bool
	exportNoDailyLogsFlag      bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks and analytics as xlsx, pdf or csv",
	Long: `Export tasks and analytics as a spreadsheet workbook, a PDF report or CSV.

Exports are one-way: use "tpulse backup" for a file that can be imported.`,
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Write a workbook with summary, project, ad-hoc and daily log sheets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "xlsx", export.WriteWorkbook)
	},
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Write a PDF report with summary, status chart and task tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "pdf", export.WritePDF)
	},
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Write every task as one CSV row",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "csv", export.WriteCSV)
	},
}

func runExport(cmd *cobra.Command, ext string, write func(io.Writer, export.Document) error) error {
	if TaskSvc == nil {
		return fmt.Errorf("task service not initialized")
	}

	opts := export.DefaultOptions()
	if title := reportTitle(); title != "" {
		opts.Title = title
	}
	if exportTitleFlag != "" {
		opts.Title = exportTitleFlag
	}
	opts.IncludeCompleted = !exportExcludeCompletedFlag
	opts.IncludeDailyLogs = !exportNoDailyLogsFlag

	now := Now()
	doc := export.NewDocument(TaskSvc.Snapshot(cmd.Context()), trendDays(), now, opts)

	path := exportOutputFlag
	if path == "" {
		path = fmt.Sprintf("task-tracker-report-%s.%s", now.Format("2006-01-02"), ext)
	}
	if err := writeFile(path, func(w io.Writer) error {
		return write(w, doc)
	}); err != nil {
		return fmt.Errorf("exporting %s: %w", ext, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d project and %d ad-hoc task(s) to %s\n",
		len(doc.ProjectTasks), len(doc.AdHocTasks), path)
	return nil
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOutputFlag, "output", "o", "", "Output file (default task-tracker-report-<date>.<ext>)")
	exportCmd.PersistentFlags().StringVar(&exportTitleFlag, "title", "", "Report title (default from config)")
	exportCmd.PersistentFlags().BoolVar(&exportExcludeCompletedFlag, "exclude-completed", false, "Leave completed tasks out")
	exportCmd.PersistentFlags().BoolVar(&exportNoDailyLogsFlag, "no-daily-logs", false, "Leave daily logs out")

	exportCmd.AddCommand(exportXLSXCmd, exportPDFCmd, exportCSVCmd)
	rootCmd.AddCommand(exportCmd)
}
