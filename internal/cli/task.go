package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Manage project and ad-hoc tasks",
	Long: `Create, list and update tasks.

Project tasks belong to a squad, carry a manual priority and accumulate daily
logs. Ad-hoc tasks are one-off work with only a due date.`,
}

// --- tasks list ---

var (
	listStatusFlag string
	listKindFlag   string
	listSquadFlag  string
)

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, project tasks first in priority order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		var status models.TaskStatus
		if listStatusFlag != "" {
			parsed, err := models.ParseStatus(listStatusFlag)
			if err != nil {
				return err
			}
			status = parsed
		}
		kind := models.TaskKind(strings.ToLower(listKindFlag))
		if kind != "" && kind != models.KindProject && kind != models.KindAdHoc {
			return fmt.Errorf("invalid --kind %q: must be project or adhoc", listKindFlag)
		}

		snap := TaskSvc.Snapshot(cmd.Context())
		project := slices.Clone(snap.ProjectTasks)
		slices.SortStableFunc(project, func(a, b models.ProjectTask) int {
			return a.Priority - b.Priority
		})

		var rows []models.Tracked
		for _, t := range models.Flatten(project, snap.AdHocTasks) {
			b := t.Base()
			if status != "" && b.Status != status {
				continue
			}
			if kind != "" && b.Kind != kind {
				continue
			}
			if listSquadFlag != "" {
				p, ok := t.(models.ProjectTask)
				if !ok || !strings.EqualFold(p.SquadName, listSquadFlag) {
					continue
				}
			}
			rows = append(rows, t)
		}

		w := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(w, "No tasks found.")
			return nil
		}
		printTaskTable(w, rows)
		return nil
	},
}

func printTaskTable(w io.Writer, tasks []models.Tracked) {
	fmt.Fprintf(w, "%-36s %-7s %-3s %-11s %-16s %-10s %s\n", "ID", "KIND", "PRI", "STATUS", "SQUAD", "DUE", "NAME")
	for _, t := range tasks {
		b := t.Base()
		pri, squad := "-", "-"
		if p, ok := t.(models.ProjectTask); ok {
			pri = fmt.Sprintf("%d", p.Priority)
			squad = orDash(p.SquadName)
		}
		fmt.Fprintf(w, "%-36s %-7s %-3s %-11s %-16s %-10s %s\n",
			b.ID, b.Kind, pri, b.Status.Label(), truncate(squad, 16), formatDate(t.Due()), b.Name)
	}
}

// --- tasks add ---

var (
	addDescriptionFlag string
	addSquadFlag       string
	addSPOCFlag        string
	addStatusFlag      string
	addStartFlag       string
	addDeployFlag      string
	addSignedOffFlag   bool
)

var tasksAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project task at the lowest priority",
	Long: `Create a project task. The new task gets priority N+1, where N is the number
of existing project tasks.

When --squad is close to, but not the same as, an existing squad name the
closest match is suggested so near-duplicate squads can be avoided.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		status, err := optionalStatus(addStatusFlag)
		if err != nil {
			return err
		}
		start, err := parseDateFlag("start", addStartFlag)
		if err != nil {
			return err
		}
		deploy, err := parseDateFlag("deploy", addDeployFlag)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if addSquadFlag != "" {
			if suggestion, ok := suggestSquad(cmd, addSquadFlag); ok {
				fmt.Fprintf(w, "Note: squad %q is similar to existing squad %q\n", addSquadFlag, suggestion)
			}
		}

		task, err := TaskSvc.CreateProjectTask(cmd.Context(), core.ProjectTaskInput{
			Name:            args[0],
			Description:     addDescriptionFlag,
			SquadName:       addSquadFlag,
			SPOC:            addSPOCFlag,
			Status:          status,
			StartDate:       start,
			DeploymentDate:  deploy,
			SecuritySignOff: addSignedOffFlag,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Created project task %s\n", task.ID)
		fmt.Fprintf(w, "  Name:     %s\n", task.Name)
		fmt.Fprintf(w, "  Status:   %s\n", task.Status.Label())
		fmt.Fprintf(w, "  Priority: %d\n", task.Priority)
		if task.SquadName != "" {
			fmt.Fprintf(w, "  Squad:    %s\n", task.SquadName)
		}
		return nil
	},
}

// --- tasks adhoc ---

var (
	adhocDescriptionFlag string
	adhocStatusFlag      string
	adhocDueFlag         string
)

var tasksAdHocCmd = &cobra.Command{
	Use:   "adhoc <name>",
	Short: "Create an ad-hoc task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		status, err := optionalStatus(adhocStatusFlag)
		if err != nil {
			return err
		}
		due, err := parseDateFlag("due", adhocDueFlag)
		if err != nil {
			return err
		}

		task, err := TaskSvc.CreateAdHocTask(cmd.Context(), core.AdHocTaskInput{
			Name:        args[0],
			Description: adhocDescriptionFlag,
			Status:      status,
			DueDate:     due,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Created ad-hoc task %s\n", task.ID)
		fmt.Fprintf(w, "  Name:   %s\n", task.Name)
		fmt.Fprintf(w, "  Status: %s\n", task.Status.Label())
		return nil
	},
}

// --- tasks status ---

var tasksStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Move a task to a new status",
	Long: `Move a task to a new status.

Valid statuses: ToDo, InProgress, Blocked, Testing, Complete. Labels ("In
Progress") and snake_case ("in_progress") are accepted too.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		status, err := models.ParseStatus(args[1])
		if err != nil {
			return err
		}
		if err := TaskSvc.UpdateStatus(cmd.Context(), args[0], status); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", args[0], status.Label())
		return nil
	},
}

// --- tasks log ---

var tasksLogCmd = &cobra.Command{
	Use:   "log <task-id> <status> <notes...>",
	Short: "Add a daily log to a project task",
	Long: `Append a daily progress note to a project task. The log's status becomes
the task's status.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		status, err := models.ParseStatus(args[1])
		if err != nil {
			return err
		}
		entry, err := TaskSvc.AddDailyLog(cmd.Context(), args[0], status, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added daily log %s to task %s (%s)\n", entry.ID, args[0], entry.Status.Label())
		return nil
	},
}

// --- tasks signoff ---

var signoffRevokeFlag bool

var tasksSignOffCmd = &cobra.Command{
	Use:   "signoff <task-id>",
	Short: "Record security sign-off on a project task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		signed := !signoffRevokeFlag
		if err := TaskSvc.SetSecuritySignOff(cmd.Context(), args[0], signed); err != nil {
			return err
		}
		state := "signed off"
		if !signed {
			state = "not signed off"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s is %s\n", args[0], state)
		return nil
	},
}

// --- tasks edit ---

var tasksEditCmd = &cobra.Command{
	Use:   "edit <task-id> <field> <value>",
	Short: "Change a single task field",
	Long: `Change a single task field.

Fields: name, description, squad, spoc, start_date, deployment_date (project
tasks) and due_date (ad-hoc tasks). Dates use YYYY-MM-DD; an empty value
clears a date.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.UpdateField(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s on task %s\n", args[1], args[0])
		return nil
	},
}

// --- tasks delete ---

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.DeleteTask(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
		return nil
	},
}

// --- tasks reorder ---

var tasksReorderCmd = &cobra.Command{
	Use:   "reorder <task-id>...",
	Short: "Set project task priorities in the given order",
	Long: `Assign priorities 1..N to the listed project tasks in order. Project tasks
not listed keep their relative order after the listed ones.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.Reorder(cmd.Context(), args); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d project task(s)\n", len(args))
		return nil
	},
}

func optionalStatus(value string) (models.TaskStatus, error) {
	if value == "" {
		return "", nil
	}
	return models.ParseStatus(value)
}

func init() {
	tasksListCmd.Flags().StringVar(&listStatusFlag, "status", "", "Filter by status")
	tasksListCmd.Flags().StringVar(&listKindFlag, "kind", "", "Filter by kind (project, adhoc)")
	tasksListCmd.Flags().StringVar(&listSquadFlag, "squad", "", "Filter project tasks by squad")

	tasksAddCmd.Flags().StringVarP(&addDescriptionFlag, "description", "d", "", "Task description")
	tasksAddCmd.Flags().StringVar(&addSquadFlag, "squad", "", "Owning squad")
	tasksAddCmd.Flags().StringVar(&addSPOCFlag, "spoc", "", "Single point of contact")
	tasksAddCmd.Flags().StringVar(&addStatusFlag, "status", "", "Initial status (default ToDo)")
	tasksAddCmd.Flags().StringVar(&addStartFlag, "start", "", "Start date (YYYY-MM-DD)")
	tasksAddCmd.Flags().StringVar(&addDeployFlag, "deploy", "", "Deployment date (YYYY-MM-DD)")
	tasksAddCmd.Flags().BoolVar(&addSignedOffFlag, "signed-off", false, "Security sign-off already given")

	tasksAdHocCmd.Flags().StringVarP(&adhocDescriptionFlag, "description", "d", "", "Task description")
	tasksAdHocCmd.Flags().StringVar(&adhocStatusFlag, "status", "", "Initial status (default ToDo)")
	tasksAdHocCmd.Flags().StringVar(&adhocDueFlag, "due", "", "Due date (YYYY-MM-DD)")

	tasksSignOffCmd.Flags().BoolVar(&signoffRevokeFlag, "revoke", false, "Clear the sign-off instead")

	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksAdHocCmd, tasksStatusCmd, tasksLogCmd,
		tasksSignOffCmd, tasksEditCmd, tasksDeleteCmd, tasksReorderCmd)
	rootCmd.AddCommand(tasksCmd)

	registerTaskCompletions()
}
