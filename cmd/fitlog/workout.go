// ABOUTME: CLI commands for training sessions.
// ABOUTME: Covers the live session (start, set, finish, discard), backdated sessions, and history.
package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/tracker"
)

var (
	workoutDuration int
	workoutNotes    string
	workoutAt       string
	workoutLimit    int
)

var workoutCmd = &cobra.Command{
	Use:     "workout",
	Aliases: []string{"w"},
	Short:   "Manage workouts",
	Long: `Track training sessions.

A live session is started, collects sets as you go, and is filed under the
day it started when you finish it. Finishing also adds a summary to the
workout history.

WORKFLOW:

  1. Start a session:   fitlog workout start lift
  2. Log sets:          fitlog workout set squat 5 100
  3. Finish it:         fitlog workout finish

COMMANDS:

  start    Begin a live session
  set      Log a set on the live session
  finish   End the live session and record it
  discard  Drop the live session without recording it
  status   Show the live session
  add      Record a finished session after the fact
  history  List recent sessions

The workout type is freeform: run, lift, swim, cycle, yoga, hiit, and so on.`,
}

var workoutStartCmd = &cobra.Command{
	Use:   "start <type>",
	Short: "Start a live session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sess.tracker.Workouts.StartWorkout(args[0], workoutNotes)
		if errors.Is(err, tracker.ErrWorkoutInProgress) {
			active, _ := sess.tracker.Workouts.ActiveWorkout()
			return fmt.Errorf("%w: %s started %s", err, active.WorkoutType, active.StartedAt.Local().Format("15:04"))
		}
		if err != nil {
			return err
		}

		color.Green("✓ Started %s", s.WorkoutType)
		fmt.Printf("  %s %s\n", color.New(color.Faint).Sprint(shortID(s.ID)), s.StartedAt.Local().Format("15:04"))
		return nil
	},
}

var workoutSetCmd = &cobra.Command{
	Use:   "set <exercise> <reps> [kg]",
	Short: "Log a set on the live session",
	Long: `Log a set on the live session.

Examples:
  fitlog workout set squat 5 100
  fitlog workout set pullup 8`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reps, err := strconv.Atoi(args[1])
		if err != nil || reps <= 0 {
			return fmt.Errorf("invalid reps: %s", args[1])
		}
		var kg float64
		if len(args) == 3 {
			kg, err = strconv.ParseFloat(args[2], 64)
			if err != nil || kg < 0 {
				return fmt.Errorf("invalid weight: %s", args[2])
			}
		}

		s, err := sess.tracker.Workouts.AddSet(args[0], reps, kg)
		if err != nil {
			return err
		}

		color.Green("✓ Set %d: %s %d × %.1f kg", len(s.Sets), args[0], reps, kg)
		return nil
	},
}

var workoutFinishCmd = &cobra.Command{
	Use:     "finish",
	Aliases: []string{"done", "stop"},
	Short:   "Finish the live session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := sess.tracker.Workouts.FinishWorkout()
		if err != nil {
			return err
		}

		color.Green("✓ Finished %s", summary.WorkoutType)
		fmt.Printf("  %s %d min  %d sets  %.0f kg\n",
			color.New(color.Faint).Sprint(shortID(summary.ID)),
			summary.DurationMinutes, summary.Sets, summary.VolumeKg)
		return nil
	},
}

var workoutDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Drop the live session without recording it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sess.tracker.Workouts.DiscardWorkout(); err != nil {
			return err
		}
		color.Yellow("✗ Discarded live session")
		return nil
	},
}

var workoutStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := sess.tracker.Workouts.ActiveWorkout()
		if !ok {
			fmt.Println("No active workout.")
			return nil
		}

		faint := color.New(color.Faint)
		elapsed := time.Since(s.StartedAt).Round(time.Minute)
		color.Cyan("▶ %s, started %s (%s ago)", s.WorkoutType, s.StartedAt.Local().Format("15:04"), elapsed)
		if s.Notes != "" {
			faint.Printf("  %s\n", s.Notes)
		}
		for i, set := range s.Sets {
			fmt.Printf("  %2d. %s %d × %.1f kg\n", i+1, padRight(set.Exercise, 16), set.Reps, set.WeightKg)
		}
		fmt.Printf("  volume %.0f kg\n", s.VolumeKg())
		return nil
	},
}

var workoutAddCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Record a finished session",
	Long: `Record a session that already happened.

Examples:
  fitlog workout add run --duration 45
  fitlog workout add yoga --duration 30 --at "2026-03-01 07:00"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if workoutDuration <= 0 {
			return fmt.Errorf("--duration is required and must be positive")
		}

		w := models.NewWorkoutSession(args[0]).WithDuration(workoutDuration)
		if workoutNotes != "" {
			w.WithNotes(workoutNotes)
		}
		day := models.Today()
		if workoutAt != "" {
			at, err := parseTime(workoutAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", workoutAt)
			}
			w.WithStartedAt(at)
			day = models.DayOf(at.Local())
		}

		sess.tracker.Workouts.AddEntryFor(*w, day)
		finished := w.StartedAt.Add(time.Duration(workoutDuration) * time.Minute)
		sess.tracker.Workouts.AppendHistory(w.Summary(finished))

		color.Green("✓ Added %s workout", w.WorkoutType)
		fmt.Printf("  %s %d min  %s\n", color.New(color.Faint).Sprint(shortID(w.ID)), w.DurationMinutes, day)
		return nil
	},
}

var workoutHistoryCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls", "list"},
	Short:   "List recent sessions",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries := sess.tracker.Workouts.History(workoutLimit)
		if len(summaries) == 0 {
			fmt.Println("No workouts recorded.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range summaries {
			fmt.Printf("%s %s %s %3d min  %2d sets  %6.0f kg\n",
				faint.Sprint(shortID(s.ID)),
				s.StartedAt.Local().Format("2006-01-02 15:04"),
				padRight(truncate(s.WorkoutType, 12), 12),
				s.DurationMinutes, s.Sets, s.VolumeKg)
		}
		return nil
	},
}

func init() {
	workoutStartCmd.Flags().StringVarP(&workoutNotes, "notes", "n", "", "session notes")
	workoutAddCmd.Flags().IntVarP(&workoutDuration, "duration", "d", 0, "duration in minutes")
	workoutAddCmd.Flags().StringVarP(&workoutNotes, "notes", "n", "", "session notes")
	workoutAddCmd.Flags().StringVar(&workoutAt, "at", "", "start time (YYYY-MM-DD HH:MM)")
	workoutHistoryCmd.Flags().IntVarP(&workoutLimit, "limit", "l", 10, "number of sessions to show (0 for all)")

	workoutCmd.AddCommand(workoutStartCmd)
	workoutCmd.AddCommand(workoutSetCmd)
	workoutCmd.AddCommand(workoutFinishCmd)
	workoutCmd.AddCommand(workoutDiscardCmd)
	workoutCmd.AddCommand(workoutStatusCmd)
	workoutCmd.AddCommand(workoutAddCmd)
	workoutCmd.AddCommand(workoutHistoryCmd)
	rootCmd.AddCommand(workoutCmd)
}
