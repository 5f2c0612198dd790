package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "tpulse",
	Short: "TaskPulse - project and ad-hoc task tracking with delivery analytics",
	Long: `TaskPulse (tpulse) tracks squad-owned project tasks and one-off ad-hoc
tasks through a fixed lifecycle: To Do, In Progress, Blocked, Testing, Complete.

It derives delivery analytics from the task collections (daily trend,
squad performance, velocity, time in status and a predictive risk score),
keeps an activity log of every change, and exports reports as spreadsheet,
PDF or CSV. Data is stored locally and can be backed up and merge-imported.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tpulse %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
