package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/core"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default .taskpulse config",
	Long: `Write a .taskpulse configuration file with default values to the given
directory, or to the resolved base path when none is given.

Safe to run repeatedly: an existing .taskpulse file is left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		basePath := BasePath
		if len(args) > 0 {
			basePath = args[0]
		}
		if basePath == "" {
			basePath = "."
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		existed := true
		if _, err := os.Stat(filepath.Join(absPath, core.ConfigFileName)); errors.Is(err, fs.ErrNotExist) {
			existed = false
		}

		path, err := core.NewConfigurationManager(absPath).WriteDefaultConfig()
		if err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		w := cmd.OutOrStdout()
		if existed {
			fmt.Fprintf(w, "Skipped (already exists): %s\n", path)
			return nil
		}
		fmt.Fprintf(w, "Created: %s\n", path)
		fmt.Fprintf(w, "Data will be stored in %s\n", filepath.Join(absPath, core.DefaultDataDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
