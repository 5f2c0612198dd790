package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	tpmcp "github.com/valter-silva-au/taskpulse/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the tpulse MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tpulse MCP server on stdio",
	Long: `Start the tpulse MCP server on stdio transport.

The server exposes task data and analytics as MCP tools that AI assistants
can call: get_task, list_tasks, update_task_status, get_trend,
get_squad_performance, get_velocity, get_time_in_status, get_insights,
suggest_squad, get_activity.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		srv := newMCPServer()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func newMCPServer() *tpmcp.Server {
	var activity tpmcp.ActivityReader
	if Activity != nil {
		activity = Activity
	}
	return tpmcp.NewServer(TaskSvc, activity, tpmcp.Options{
		TrendDays:      trendDays(),
		MatchThreshold: matchThreshold(),
		Now:            Now,
	}, appVersion)
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
