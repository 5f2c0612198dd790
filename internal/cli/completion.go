package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for tpulse",
	Long: `Set up shell tab-completions for tpulse commands, flags and task IDs.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script under your home directory):

  tpulse completion bash --install
  tpulse completion zsh --install
  tpulse completion fish --install

Or print the completion script to stdout:

  tpulse completion bash
  tpulse completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions under your home directory")

	// Replace Cobra's default completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell := args[0]

	if completionInstall {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
		return installCompletion(cmd.OutOrStdout(), shell, home)
	}

	// Hints go to stderr so eval "$(tpulse completion bash)" stays clean.
	switch shell {
	case "bash":
		printHints(cmd, `#   eval "$(tpulse completion bash)"`)
	case "zsh":
		printHints(cmd, `#   eval "$(tpulse completion zsh)"`)
	case "fish":
		printHints(cmd, "#   tpulse completion fish | source")
	case "powershell":
		printHints(cmd, "#   tpulse completion powershell | Out-String | Invoke-Expression")
	default:
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}
	return generateCompletion(cmd.OutOrStdout(), shell)
}

func generateCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell %q", shell)
	}
}

func printHints(cmd *cobra.Command, load string) {
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(w, "# To load completions in your current session:")
	_, _ = fmt.Fprintln(w, load)
	_, _ = fmt.Fprintln(w, "#")
}

// completionTarget returns where --install writes the script for shell.
func completionTarget(shell, home string) (string, error) {
	switch shell {
	case "bash":
		return filepath.Join(home, ".local", "share", "bash-completion", "completions", "tpulse"), nil
	case "zsh":
		return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_tpulse"), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "completions", "tpulse.fish"), nil
	case "powershell":
		return "", fmt.Errorf("automatic install is not supported for PowerShell; run 'tpulse completion powershell' and add the output to your profile")
	default:
		return "", fmt.Errorf("unsupported shell %q", shell)
	}
}

func installCompletion(out io.Writer, shell, home string) error {
	target, err := completionTarget(shell, home)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := generateCompletion(f, shell)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	fmt.Fprintf(out, "%s completions installed to %s\n", shell, target)
	if shell == "zsh" {
		fmt.Fprintln(out, "Ensure this directory is in your fpath. Add to ~/.zshrc if needed:")
		fmt.Fprintf(out, "  fpath=(%s $fpath)\n", filepath.Dir(target))
		fmt.Fprintln(out, "  autoload -Uz compinit && compinit")
	}
	return nil
}
