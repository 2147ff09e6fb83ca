// ABOUTME: CLI command for inspecting storage health.
// ABOUTME: Reports unreadable documents, pending writes, journal events, and counters.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/export"
	"github.com/harperreed/fitlog/internal/telemetry"
)

var (
	diagEvents  int
	diagMetrics bool
)

var diagCmd = &cobra.Command{
	Use:     "diag",
	Aliases: []string{"doctor", "status"},
	Short:   "Check stored data and show recent activity",
	Long: `Check every stored document and show recent persistence activity.

Unreadable documents are listed so they can be repaired or removed by hand;
fitlog never overwrites them with an empty day.

Recent events come from the journal (enable with 'fitlog config set journal
true'). Use --metrics to print this run's counters in Prometheus text format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bold := color.New(color.Bold)
		faint := color.New(color.Faint)

		bold.Println("Storage")
		fmt.Printf("  data dir      %s\n", sess.cfg.GetDataDir())
		fmt.Printf("  pending       %d\n", sess.tracker.Dirty())
		for _, rel := range sess.tracker.FailedWrites() {
			color.Yellow("  ⚠ write failed: %s", rel)
		}
		if s, ok := sess.tracker.Workouts.ActiveWorkout(); ok {
			fmt.Printf("  live session  %s (%d sets)\n", s.WorkoutType, len(s.Sets))
		}

		data, err := export.New(sess.tracker.Docs(), sess.logger).Collect(nil)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		fmt.Printf("  days          %d nutrition, %d workouts, %d recovery\n",
			len(data.Nutrition), len(data.Workouts), len(data.Recovery))
		fmt.Printf("  history       %d sessions\n", len(data.History))
		if len(data.Skipped) == 0 {
			color.Green("  ✓ all documents readable")
		}
		for _, rel := range data.Skipped {
			color.Yellow("  ✗ unreadable: %s", rel)
		}

		events, err := recentEvents(diagEvents)
		if err != nil {
			color.Yellow("⚠ %v", err)
		}
		if events != nil {
			bold.Println("\nRecent events")
			if len(events) == 0 {
				faint.Println("  none")
			}
			for _, e := range events {
				line := fmt.Sprintf("  %s %-16s %s", e.At.Local().Format("01-02 15:04:05"), e.Kind, e.Path)
				if e.Err != "" {
					color.Yellow("%s  %s", line, e.Err)
					continue
				}
				fmt.Println(line)
			}
		}

		if diagMetrics {
			bold.Println("\nMetrics")
			if err := sess.metrics.WriteText(os.Stdout); err != nil {
				return err
			}
		}
		return nil
	},
}

// recentEvents reads the journal, returning nil when journaling has never been enabled.
func recentEvents(limit int) ([]telemetry.Event, error) {
	if sess.journal != nil {
		return sess.journal.Recent(limit)
	}
	dir := sess.cfg.GetJournalDir()
	if _, err := os.Stat(dir); err != nil {
		return nil, nil
	}
	j, err := telemetry.OpenJournal(telemetry.JournalOptions{Dir: dir, Logger: sess.logger})
	if err != nil {
		return nil, err
	}
	defer func() { _ = j.Close() }()
	return j.Recent(limit)
}

func init() {
	diagCmd.Flags().IntVarP(&diagEvents, "events", "n", 20, "number of journal events to show")
	diagCmd.Flags().BoolVar(&diagMetrics, "metrics", false, "print counters in Prometheus text format")

	rootCmd.AddCommand(diagCmd)
}
