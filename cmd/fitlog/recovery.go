// ABOUTME: CLI commands for logging recovery: sleep, soreness, and heart data.
// ABOUTME: Each log is filed under a day, today by default.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/models"
)

var (
	recoverySleep    float64
	recoverySoreness int
	recoveryHR       int
	recoveryHRV      float64
	recoveryDate     string
	recoveryNotes    string
)

var recoveryCmd = &cobra.Command{
	Use:     "recovery",
	Aliases: []string{"r", "sleep"},
	Short:   "Log recovery",
}

var recoveryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log sleep and soreness",
	Long: `Log last night's sleep, today's soreness, and optional heart data.

Soreness is 0 (none) to 10 (severe).

Examples:
  fitlog recovery add --sleep 7.5 --soreness 3
  fitlog recovery add --sleep 6 --soreness 5 --hr 52 --hrv 68
  fitlog recovery add --sleep 8 --date 2026-03-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recoverySleep < 0 || recoverySleep > 24 {
			return fmt.Errorf("invalid sleep hours: %g", recoverySleep)
		}
		if recoverySoreness < 0 || recoverySoreness > models.MaxSoreness {
			return fmt.Errorf("soreness must be between 0 and %d", models.MaxSoreness)
		}
		day, err := parseDay(recoveryDate)
		if err != nil {
			return err
		}

		r := models.NewRecoveryLog(recoverySleep, recoverySoreness)
		if recoveryHR > 0 || recoveryHRV > 0 {
			r.WithHeart(recoveryHR, recoveryHRV)
		}
		if recoveryNotes != "" {
			r.WithNotes(recoveryNotes)
		}

		sess.tracker.Recovery.AddEntryFor(*r, day)

		color.Green("✓ Logged recovery")
		fmt.Printf("  %s sleep %.1fh  soreness %d/10  %s\n",
			color.New(color.Faint).Sprint(shortID(r.ID)), r.SleepHours, r.Soreness, day)
		return nil
	},
}

func init() {
	recoveryAddCmd.Flags().Float64Var(&recoverySleep, "sleep", 0, "hours slept")
	recoveryAddCmd.Flags().IntVar(&recoverySoreness, "soreness", 0, "soreness from 0 to 10")
	recoveryAddCmd.Flags().IntVar(&recoveryHR, "hr", 0, "resting heart rate in bpm")
	recoveryAddCmd.Flags().Float64Var(&recoveryHRV, "hrv", 0, "heart rate variability in ms")
	recoveryAddCmd.Flags().StringVar(&recoveryDate, "date", "", "day to log on (YYYY-MM-DD)")
	recoveryAddCmd.Flags().StringVar(&recoveryNotes, "notes", "", "notes for the log")
	_ = recoveryAddCmd.MarkFlagRequired("sleep")

	recoveryCmd.AddCommand(recoveryAddCmd)
	rootCmd.AddCommand(recoveryCmd)
}
