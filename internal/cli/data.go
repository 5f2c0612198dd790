package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge a backup file into the stored tasks",
	Long: `Merge a JSON backup into the stored tasks. Tasks are matched by ID; when
both sides have a task the one with the later updatedAt wins. The file must
carry projectTasks, adHocTasks and metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Repo == nil {
			return fmt.Errorf("snapshot repository not initialized")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		merged, err := Repo.Import(cmd.Context(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d project task(s), %d ad-hoc task(s) after merge\n",
			args[0], len(merged.ProjectTasks), len(merged.AdHocTasks))
		return nil
	},
}

var backupOutputFlag string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write the stored tasks to a JSON backup file",
	Long: `Write the stored tasks as indented JSON. The default file name is
task-tracker-backup-YYYY-MM-DD.json; use -o - to write to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Repo == nil {
			return fmt.Errorf("snapshot repository not initialized")
		}
		if backupOutputFlag == "-" {
			return Repo.Backup(cmd.Context(), cmd.OutOrStdout())
		}

		path := backupOutputFlag
		if path == "" {
			path = storage.BackupFileName(Now())
		}
		if err := writeFile(path, func(w io.Writer) error {
			return Repo.Backup(cmd.Context(), w)
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
		return nil
	},
}

var clearActivityFlag bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored tasks",
	Long: `Delete the stored tasks. The next load falls back to the seed dataset, if
one is configured, or to an empty collection. --activity also clears the
activity log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Repo == nil {
			return fmt.Errorf("snapshot repository not initialized")
		}
		if err := Repo.ClearAll(); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Cleared stored tasks.")
		if clearActivityFlag && Activity != nil {
			Activity.Clear()
			fmt.Fprintln(w, "Cleared activity log.")
		}
		return nil
	},
}

// writeFile creates path and hands it to write, removing the file when
// write fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutputFlag, "output", "o", "", "Output file (- for stdout)")
	clearCmd.Flags().BoolVar(&clearActivityFlag, "activity", false, "Also clear the activity log")
	rootCmd.AddCommand(importCmd, backupCmd, clearCmd)
}
