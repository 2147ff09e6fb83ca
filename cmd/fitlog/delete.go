// ABOUTME: CLI command for deleting a logged entry.
// ABOUTME: Supports deletion by full ID or ID prefix across every domain.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a logged entry",
	Long: `Delete a meal, workout, or recovery log by its ID or ID prefix.

You can use either the full UUID or just the first few characters (prefix).
The ID prefix is shown in the first column of 'fitlog today' output.
Only entries from today and the trailing days can be found by prefix.

EXAMPLES:

  fitlog delete abc12345                    # Delete by 8-char prefix
  fitlog delete abc12345-1234-1234-...      # Delete by full UUID
  fitlog rm abc1                            # Short prefix (if unique)

CAUTION:

  There is no undo. If the prefix matches multiple entries, an error is
  returned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := sess.tracker.ResolveID(args[0])
		if err != nil {
			return err
		}

		domain, ok := sess.tracker.DeleteEntry(id)
		if !ok {
			return fmt.Errorf("entry not found: %s", args[0])
		}

		color.Yellow("✗ Deleted %s entry", domain)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(shortID(id)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
