// ABOUTME: CLI command for exporting fitlog data.
// ABOUTME: Supports JSON, YAML, Markdown, and SQLite formats.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/export"
	"github.com/harperreed/fitlog/internal/models"
)

var (
	exportOutput string
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export fitlog data",
	Long: `Export every stored day, the workout history, and goals.

FORMATS:

  json       Full JSON export (suitable for backup)
  yaml       YAML export (human-readable)
  markdown   Markdown tables (for documentation/sharing)
  sqlite     SQLite database for ad hoc queries (requires --output)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include days on or after this date (YYYY-MM-DD)

Corrupt day files are skipped and listed in the export.

EXAMPLES:

  fitlog export json                        # Export all data as JSON
  fitlog export json -o backup.json         # Save to file
  fitlog export yaml                        # Export as YAML
  fitlog export markdown --since 2026-01-01 # Export data from 2026 onward
  fitlog export sqlite -o fitlog.db         # Build a queryable database`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown", "sqlite"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(args[0])
		switch format {
		case "json", "yaml", "markdown", "md", "sqlite":
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, markdown, or sqlite)", args[0])
		}
		if format == "sqlite" && exportOutput == "" {
			return fmt.Errorf("sqlite export requires --output")
		}

		var since *models.Day
		if exportSince != "" {
			d, err := parseDay(exportSince)
			if err != nil {
				return err
			}
			since = &d
		}

		// Pending edits must be on disk before the files are read back.
		sess.tracker.Save(cmd.Context())

		data, err := export.New(sess.tracker.Docs(), sess.logger).Collect(since)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		for _, rel := range data.Skipped {
			color.Yellow("⚠ Skipped unreadable %s", rel)
		}

		if format == "sqlite" {
			if err := data.SQLite(cmd.Context(), exportOutput); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
			return nil
		}

		var out []byte
		switch format {
		case "json":
			out, err = data.JSON()
		case "yaml":
			out, err = data.YAML()
		default:
			out = []byte(data.Markdown())
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, out, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(out))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include days since date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
}
