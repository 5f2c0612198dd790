package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display tasks grouped by status",
	Long: `Display all tasks organized by their workflow status, project and ad-hoc
tasks together.

Optionally filter to a single status using --filter (e.g. --filter blocked).
Each group lists ID, kind, due date and name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		order := models.Statuses()
		if statusFilter != "" {
			status, err := models.ParseStatus(statusFilter)
			if err != nil {
				return err
			}
			order = []models.TaskStatus{status}
		}

		snap := TaskSvc.Snapshot(cmd.Context())
		grouped := make(map[models.TaskStatus][]models.Tracked)
		for _, t := range models.Flatten(snap.ProjectTasks, snap.AdHocTasks) {
			s := t.Base().Status
			grouped[s] = append(grouped[s], t)
		}

		w := cmd.OutOrStdout()
		printed := 0
		for _, status := range order {
			group := grouped[status]
			if len(group) == 0 && statusFilter == "" {
				continue
			}
			if printed > 0 {
				fmt.Fprintln(w)
			}
			printStatusGroup(w, status, group)
			printed++
		}
		if printed == 0 {
			fmt.Fprintln(w, "No tasks found.")
		}
		return nil
	},
}

// printStatusGroup prints a table of tasks under a status heading.
func printStatusGroup(w io.Writer, status models.TaskStatus, tasks []models.Tracked) {
	fmt.Fprintf(w, "== %s (%d) ==\n", strings.ToUpper(status.Label()), len(tasks))
	fmt.Fprintf(w, "  %-36s %-7s %-10s %s\n", "ID", "KIND", "DUE", "NAME")
	fmt.Fprintf(w, "  %-36s %-7s %-10s %s\n", "--", "----", "---", "----")
	for _, t := range tasks {
		b := t.Base()
		fmt.Fprintf(w, "  %-36s %-7s %-10s %s\n", b.ID, b.Kind, formatDate(t.Due()), b.Name)
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Show a single status (ToDo, InProgress, Blocked, Testing, Complete)")
	_ = statusCmd.RegisterFlagCompletionFunc("filter", completeStatuses)
	rootCmd.AddCommand(statusCmd)
}
