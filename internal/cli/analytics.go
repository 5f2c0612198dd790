package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/observability"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var (
	analyticsFormat string
	trendDaysFlag   int
	historyListFlag bool
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Delivery analytics derived from the stored tasks",
	Long: `Delivery analytics derived from the stored tasks.

Every subcommand accepts --format table|json|yaml.`,
}

var analyticsTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Daily completed, created, in-progress and blocked counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		days := trendDaysFlag
		if days <= 0 {
			days = trendDays()
		}
		snap := TaskSvc.Snapshot(cmd.Context())
		points := observability.CalculateTrendData(snap.ProjectTasks, snap.AdHocTasks, days, Now())
		return render(cmd.OutOrStdout(), analyticsFormat, points, func(w io.Writer) {
			printTrend(w, points)
		})
	},
}

var analyticsSquadsCmd = &cobra.Command{
	Use:   "squads",
	Short: "Per-squad completion rate, average completion time and blocked count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		snap := TaskSvc.Snapshot(cmd.Context())
		squads := observability.CalculateSquadPerformance(snap.ProjectTasks)
		return render(cmd.OutOrStdout(), analyticsFormat, squads, func(w io.Writer) {
			printSquads(w, squads)
		})
	},
}

var analyticsVelocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Week-over-week completions and next-week projection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		snap := TaskSvc.Snapshot(cmd.Context())
		v := observability.CalculateVelocity(snap.ProjectTasks, snap.AdHocTasks, Now())
		return render(cmd.OutOrStdout(), analyticsFormat, v, func(w io.Writer) {
			printVelocity(w, v)
		})
	},
}

var analyticsStatusTimeCmd = &cobra.Command{
	Use:   "status-time",
	Short: "Average days since creation for tasks in each status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		snap := TaskSvc.Snapshot(cmd.Context())
		times := observability.CalculateTimeInStatus(snap.ProjectTasks, snap.AdHocTasks)
		return render(cmd.OutOrStdout(), analyticsFormat, times, func(w io.Writer) {
			printTimeInStatus(w, times)
		})
	},
}

var analyticsInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Risk score, bottlenecks and recommendations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		snap := TaskSvc.Snapshot(cmd.Context())
		now := Now()
		v := observability.CalculateVelocity(snap.ProjectTasks, snap.AdHocTasks, now)
		ins := observability.GeneratePredictiveInsights(snap.ProjectTasks, snap.AdHocTasks, v, now)
		return render(cmd.OutOrStdout(), analyticsFormat, ins, func(w io.Writer) {
			printInsights(w, ins)
		})
	},
}

var analyticsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Every analytic in one report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		days := trendDaysFlag
		if days <= 0 {
			days = trendDays()
		}
		report := observability.BuildReport(TaskSvc.Snapshot(cmd.Context()), days, Now())
		return render(cmd.OutOrStdout(), analyticsFormat, report, func(w io.Writer) {
			fmt.Fprintf(w, "Report generated %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04"))
			printVelocity(w, report.Velocity)
			fmt.Fprintln(w)
			printInsights(w, report.Insights)
			fmt.Fprintln(w)
			printSquads(w, report.Squads)
			fmt.Fprintln(w)
			printTimeInStatus(w, report.TimeInStatus)
			fmt.Fprintln(w)
			printTrend(w, report.Trend)
		})
	},
}

var analyticsSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record today's analytics rollup in the history",
	Long: `Record today's analytics rollup in the history. Recording again on the same
day replaces that day's entry; the oldest entries are evicted once the
history is full. --list prints the stored history instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if History == nil {
			return fmt.Errorf("analytics history not initialized")
		}
		if historyListFlag {
			history := History.History()
			return render(cmd.OutOrStdout(), analyticsFormat, history, func(w io.Writer) {
				printHistory(w, history)
			})
		}

		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		rollup, err := History.Record(TaskSvc.Snapshot(cmd.Context()), Now())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), analyticsFormat, rollup, func(w io.Writer) {
			printHistory(w, []models.AnalyticsSnapshot{rollup})
		})
	},
}

func printTrend(w io.Writer, points []observability.TrendPoint) {
	fmt.Fprintf(w, "%-10s %9s %7s %11s %7s\n", "DATE", "COMPLETED", "CREATED", "IN PROGRESS", "BLOCKED")
	for _, p := range points {
		fmt.Fprintf(w, "%-10s %9d %7d %11d %7d\n", p.Date, p.Completed, p.Created, p.InProgress, p.Blocked)
	}
}

func printSquads(w io.Writer, squads []observability.SquadPerformance) {
	if len(squads) == 0 {
		fmt.Fprintln(w, "No squads found.")
		return
	}
	fmt.Fprintf(w, "%-20s %5s %9s %6s %9s %7s\n", "SQUAD", "TOTAL", "COMPLETED", "RATE", "AVG DAYS", "BLOCKED")
	for _, s := range squads {
		fmt.Fprintf(w, "%-20s %5d %9d %5.1f%% %9.1f %7d\n",
			truncate(orDash(s.Squad), 20), s.TotalTasks, s.CompletedTasks, s.CompletionRate, s.AverageCompletionDays, s.BlockedTasks)
	}
}

func printVelocity(w io.Writer, v observability.Velocity) {
	fmt.Fprintln(w, "Velocity")
	fmt.Fprintf(w, "  %-24s %d\n", "This week:", v.CurrentWeek)
	fmt.Fprintf(w, "  %-24s %d\n", "Last week:", v.LastWeek)
	fmt.Fprintf(w, "  %-24s %.1f\n", "Four-week average:", v.AverageVelocity)
	fmt.Fprintf(w, "  %-24s %s\n", "Trend:", v.Trend)
	fmt.Fprintf(w, "  %-24s %d\n", "Projected next week:", v.NextWeekProjection)
}

func printTimeInStatus(w io.Writer, times []observability.StatusTime) {
	if len(times) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	fmt.Fprintf(w, "%-12s %5s %8s\n", "STATUS", "COUNT", "AVG DAYS")
	for _, t := range times {
		fmt.Fprintf(w, "%-12s %5d %8.1f\n", t.Status.Label(), t.Count, t.AverageDays)
	}
}

func printInsights(w io.Writer, ins observability.Insights) {
	fmt.Fprintf(w, "Risk score: %d/100 (%s)\n", ins.RiskScore, strings.ToUpper(string(ins.Level())))
	if ins.EstimatedCompletion != "" {
		fmt.Fprintf(w, "Estimated completion: %s\n", ins.EstimatedCompletion)
	}
	if len(ins.Bottlenecks) > 0 {
		fmt.Fprintln(w, "\nBottlenecks:")
		for _, b := range ins.Bottlenecks {
			fmt.Fprintf(w, "  - %s\n", b)
		}
	}
	if len(ins.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range ins.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}

func printHistory(w io.Writer, history []models.AnalyticsSnapshot) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No analytics history recorded.")
		return
	}
	fmt.Fprintf(w, "%-10s %5s %9s %11s %7s %7s %6s %4s\n",
		"DATE", "TOTAL", "COMPLETED", "IN PROGRESS", "BLOCKED", "OVERDUE", "RATE", "RISK")
	for _, h := range history {
		fmt.Fprintf(w, "%-10s %5d %9d %11d %7d %7d %5.1f%% %4d\n",
			formatDate(h.Date), h.TotalTasks, h.CompletedTasks, h.InProgressTasks,
			h.BlockedTasks, h.OverdueTasks, h.CompletionRate, h.RiskScore)
	}
}

func init() {
	analyticsCmd.PersistentFlags().StringVar(&analyticsFormat, "format", formatTable, "Output format (table, json, yaml)")
	analyticsTrendCmd.Flags().IntVar(&trendDaysFlag, "days", 0, "Number of days ending today (default from config)")
	analyticsReportCmd.Flags().IntVar(&trendDaysFlag, "days", 0, "Trend window in days (default from config)")
	analyticsSnapshotCmd.Flags().BoolVar(&historyListFlag, "list", false, "Print the stored history")

	analyticsCmd.AddCommand(analyticsTrendCmd, analyticsSquadsCmd, analyticsVelocityCmd,
		analyticsStatusTimeCmd, analyticsInsightsCmd, analyticsReportCmd, analyticsSnapshotCmd)
	rootCmd.AddCommand(analyticsCmd)
}
