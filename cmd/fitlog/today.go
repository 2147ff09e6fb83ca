// ABOUTME: CLI commands for viewing a day: today's entries and per-day totals.
// ABOUTME: Reads from the in-memory cache loaded at startup.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/tracker"
)

var (
	todayDate  string
	totalsDate string
	totalsWeek bool
)

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"t", "ls"},
	Short:   "Show everything logged for a day",
	Long: `Show meals, workouts, and recovery logged for a day, with totals.

OUTPUT FORMAT:

  Each entry line starts with an 8-character ID prefix you can pass to
  'fitlog delete'.

EXAMPLES:

  fitlog today                     # Today
  fitlog today --date 2026-03-01   # A recent day`,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDay(todayDate)
		if err != nil {
			return err
		}
		printDay(sess.tracker, day)
		return nil
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show totals against goals",
	Long: `Show nutrition, training, and recovery totals against the day's goals.

With --week, show one row per day for today and the trailing days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if totalsWeek {
			printWindow(sess.tracker)
			return nil
		}
		day, err := parseDay(totalsDate)
		if err != nil {
			return err
		}
		printTotals(sess.tracker, day)
		return nil
	},
}

func printDay(t *tracker.Tracker, day models.Day) {
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	bold.Printf("%s\n\n", day)

	meals := t.Nutrition.Day(day).Entries
	bold.Println("Meals")
	if len(meals) == 0 {
		faint.Println("  none")
	}
	for _, m := range meals {
		notes := ""
		if m.Notes != "" {
			notes = faint.Sprintf(" (%s)", truncate(m.Notes, 30))
		}
		fmt.Printf("  %s %s %s %6.0f kcal  P%.0f C%.0f F%.0f%s\n",
			faint.Sprint(shortID(m.ID)),
			padRight(string(m.Meal), 10),
			padRight(truncate(m.Name, 24), 24),
			m.Kcal, m.ProteinG, m.CarbsG, m.FatG, notes)
	}

	sessions := t.Workouts.Day(day).Entries
	bold.Println("\nWorkouts")
	if len(sessions) == 0 {
		faint.Println("  none")
	}
	for _, w := range sessions {
		fmt.Printf("  %s %s %3d min  %d sets  %.0f kg\n",
			faint.Sprint(shortID(w.ID)),
			padRight(w.WorkoutType, 12),
			w.DurationMinutes, len(w.Sets), w.VolumeKg())
	}
	if active, ok := t.Workouts.ActiveWorkout(); ok && day == models.Today() {
		color.Cyan("  ▶ %s in progress, %d sets", active.WorkoutType, len(active.Sets))
	}

	logs := t.Recovery.Day(day).Entries
	bold.Println("\nRecovery")
	if len(logs) == 0 {
		faint.Println("  none")
	}
	for _, r := range logs {
		heart := ""
		if r.RestingHR > 0 {
			heart = fmt.Sprintf("  %d bpm", r.RestingHR)
		}
		if r.HRVMs > 0 {
			heart += fmt.Sprintf("  hrv %.0f ms", r.HRVMs)
		}
		fmt.Printf("  %s sleep %.1fh  soreness %d/10%s\n",
			faint.Sprint(shortID(r.ID)), r.SleepHours, r.Soreness, heart)
	}

	fmt.Println()
	printTotals(t, day)
}

func printTotals(t *tracker.Tracker, day models.Day) {
	n := t.Nutrition.Totals(day)
	w := t.Workouts.Totals(day)
	r := t.Recovery.Totals(day)

	fmt.Printf("Calories  %.0f / %.0f kcal (%.0f remaining)\n", n.Kcal, n.Goal.Kcal, n.RemainingKcal)
	fmt.Printf("Protein   %.0f / %.0f g\n", n.ProteinG, n.Goal.ProteinG)
	fmt.Printf("Carbs     %.0f / %.0f g\n", n.CarbsG, n.Goal.CarbsG)
	fmt.Printf("Fat       %.0f / %.0f g\n", n.FatG, n.Goal.FatG)

	goal := color.New(color.FgYellow).Sprint("○")
	if w.GoalMet {
		goal = color.New(color.FgGreen).Sprint("✓")
	}
	fmt.Printf("Training  %d / %d min %s  (%d sessions, %.0f kg)\n", w.Minutes, w.Goal.TargetMinutes, goal, w.Sessions, w.VolumeKg)
	if r.Logs > 0 {
		fmt.Printf("Sleep     %.1f / %.1f h (debt %.1f h, soreness %.1f)\n", r.SleepHours, r.Goal.SleepHours, r.SleepDebt, r.AvgSoreness)
	} else {
		fmt.Printf("Sleep     not logged\n")
	}
}

func printWindow(t *tracker.Tracker) {
	faint := color.New(color.Faint)
	faint.Println("date        kcal   train  sleep")
	for _, b := range t.Nutrition.Window() {
		n := tracker.NutritionTotals(b)
		w := t.Workouts.Totals(b.Date)
		r := t.Recovery.Totals(b.Date)
		fmt.Printf("%s  %5.0f  %3d m  %4.1f h\n", b.Date, n.Kcal, w.Minutes, r.SleepHours)
	}
}

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "day to show (YYYY-MM-DD)")
	totalsCmd.Flags().StringVar(&totalsDate, "date", "", "day to total (YYYY-MM-DD)")
	totalsCmd.Flags().BoolVarP(&totalsWeek, "week", "w", false, "one row per cached day")

	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(totalsCmd)
}
