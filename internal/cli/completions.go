package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskpulse/internal/core"
	"github.com/valter-silva-au/taskpulse/pkg/models"
)

type completionFunc func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)

// completeTaskIDs returns a completion function that lists task IDs,
// optionally filtered to exclude certain statuses.
func completeTaskIDs(excludeStatuses ...models.TaskStatus) completionFunc {
	return func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if TaskSvc == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.TaskStatus]bool)
		for _, s := range excludeStatuses {
			exclude[s] = true
		}

		snap := TaskSvc.Snapshot(cmd.Context())
		var ids []string
		for _, t := range models.Flatten(snap.ProjectTasks, snap.AdHocTasks) {
			base := t.Base()
			if exclude[base.Status] {
				continue
			}
			if toComplete == "" || strings.HasPrefix(base.ID, toComplete) {
				// The name shows up as the description in zsh and fish.
				ids = append(ids, base.ID+"\t"+base.Name)
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeStatuses completes the workflow statuses.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, s := range models.Statuses() {
		out = append(out, string(s)+"\t"+s.Label())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeKinds(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(models.KindProject) + "\tProject tasks",
		string(models.KindAdHoc) + "\tAd-hoc tasks",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeSquads lists squads already used by project tasks.
func completeSquads(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if TaskSvc == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range squadNames(cmd) {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeFields(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		core.FieldName,
		core.FieldDescription,
		core.FieldSquad,
		core.FieldSPOC,
		core.FieldStartDate + "\tProject tasks only",
		core.FieldDeploymentDate + "\tProject tasks only",
		core.FieldDueDate + "\tAd-hoc tasks only",
	}, cobra.ShellCompDirectiveNoFileComp
}

// positional completes each argument position with its own function and
// disables completion past the last one.
func positional(fns ...completionFunc) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= len(fns) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return fns[len(args)](cmd, args, toComplete)
	}
}

// registerTaskCompletions wires argument and flag completions for the tasks
// subcommands. Flags must already be defined.
func registerTaskCompletions() {
	anyTask := completeTaskIDs()
	openTask := completeTaskIDs(models.StatusComplete)

	tasksStatusCmd.ValidArgsFunction = positional(openTask, completeStatuses)
	tasksLogCmd.ValidArgsFunction = positional(openTask, completeStatuses)
	tasksSignOffCmd.ValidArgsFunction = positional(anyTask)
	tasksEditCmd.ValidArgsFunction = positional(anyTask, completeFields)
	tasksDeleteCmd.ValidArgsFunction = positional(anyTask)
	tasksReorderCmd.ValidArgsFunction = anyTask

	_ = tasksListCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = tasksListCmd.RegisterFlagCompletionFunc("kind", completeKinds)
	_ = tasksListCmd.RegisterFlagCompletionFunc("squad", completeSquads)
	_ = tasksAddCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = tasksAddCmd.RegisterFlagCompletionFunc("squad", completeSquads)
	_ = tasksAdHocCmd.RegisterFlagCompletionFunc("status", completeStatuses)
}
