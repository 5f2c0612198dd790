package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/core"
)

var squadCmd = &cobra.Command{
	Use:   "squad",
	Short: "Squad name helpers",
}

var squadSuggestCmd = &cobra.Command{
	Use:   "suggest <name>",
	Short: "Suggest an existing squad similar to name",
	Long: `Look for an existing squad name similar to the one given. Names equal to
the input (ignoring case) are never suggested; they are the same squad.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		w := cmd.OutOrStdout()
		if name, ok := suggestSquad(cmd, args[0]); ok {
			fmt.Fprintf(w, "Did you mean %q?\n", name)
			return nil
		}
		fmt.Fprintln(w, "No similar squad found.")
		return nil
	},
}

var squadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List squad names in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		names := squadNames(cmd)
		w := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(w, "No squads found.")
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(w, n)
		}
		return nil
	},
}

// squadNames returns the distinct non-empty squad names in first-seen order.
func squadNames(cmd *cobra.Command) []string {
	snap := TaskSvc.Snapshot(cmd.Context())
	seen := make(map[string]bool)
	var names []string
	for _, t := range snap.ProjectTasks {
		if t.SquadName == "" || seen[t.SquadName] {
			continue
		}
		seen[t.SquadName] = true
		names = append(names, t.SquadName)
	}
	return names
}

func suggestSquad(cmd *cobra.Command, input string) (string, bool) {
	return core.FindSimilarSquad(input, squadNames(cmd), matchThreshold())
}

func init() {
	squadCmd.AddCommand(squadSuggestCmd, squadListCmd)
	rootCmd.AddCommand(squadCmd)
}
