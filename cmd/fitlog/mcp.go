// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server over the session's tracker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to log and read your fitlog data through
a standardized protocol. The server communicates via stdin/stdout. Edits are
flushed to disk as they happen and once more on shutdown.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "fitlog": {
        "command": "fitlog",
        "args": ["mcp"]
      }
    }
  }

  On macOS, the config is at:
    ~/Library/Application Support/Claude/claude_desktop_config.json

AVAILABLE TOOLS:

  add_meal           Log a meal with calories and macros
  delete_entry       Delete an entry by ID or prefix
  nutrition_totals   Nutrition totals for a day
  day_totals         Nutrition, training, and recovery totals for a day
  set_goal           Change a daily goal
  log_recovery       Log sleep and soreness
  start_workout      Begin a live session
  add_set            Log a set on the live session
  finish_workout     End the live session
  workout_history    Recent sessions

AVAILABLE RESOURCES:

  fitlog://today      Everything logged today
  fitlog://window     Today and the trailing days
  fitlog://history    Workout history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(sess.tracker)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
