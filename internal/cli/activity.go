package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var (
	activityLimitFlag  int
	activityTaskFlag   string
	activityOutputFlag string
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Inspect the activity log",
	Long: `Inspect the activity log. Every task change is recorded, newest first; the
log keeps the most recent entries up to the configured capacity.`,
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent activity, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Activity == nil {
			return fmt.Errorf("activity log not initialized")
		}

		var entries []models.ActivityLogEntry
		for _, e := range Activity.Entries() {
			if activityTaskFlag != "" && e.TaskID != activityTaskFlag {
				continue
			}
			entries = append(entries, e)
			if activityLimitFlag > 0 && len(entries) == activityLimitFlag {
				break
			}
		}

		w := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(w, "No activity recorded.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %-24s %s (%s)%s\n",
				e.Timestamp.Format("2006-01-02 15:04"), e.Action.Label(), e.TaskName, e.TaskType, describeChange(e.Details))
		}
		return nil
	},
}

var activityClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every activity entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Activity == nil {
			return fmt.Errorf("activity log not initialized")
		}
		Activity.Clear()
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared activity log.")
		return nil
	},
}

var activityExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the activity log as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Activity == nil {
			return fmt.Errorf("activity log not initialized")
		}
		data := Activity.Export()
		if activityOutputFlag == "" || activityOutputFlag == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := writeFile(activityOutputFlag, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Activity log written to %s\n", activityOutputFlag)
		return nil
	},
}

func describeChange(d *models.ActivityDetails) string {
	if d == nil || d.Field == "" {
		return ""
	}
	if d.OldValue == "" {
		return fmt.Sprintf(": %s -> %q", d.Field, d.NewValue)
	}
	return fmt.Sprintf(": %s %q -> %q", d.Field, d.OldValue, d.NewValue)
}

func init() {
	activityListCmd.Flags().IntVarP(&activityLimitFlag, "limit", "n", 20, "Maximum entries to show (0 for all)")
	activityListCmd.Flags().StringVar(&activityTaskFlag, "task", "", "Only entries for this task ID")
	activityExportCmd.Flags().StringVarP(&activityOutputFlag, "output", "o", "", "Output file (default stdout)")

	activityCmd.AddCommand(activityListCmd, activityClearCmd, activityExportCmd)
	rootCmd.AddCommand(activityCmd)
}

