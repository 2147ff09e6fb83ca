// ABOUTME: CLI commands for viewing and changing daily goals.
// ABOUTME: A new goal applies to today's bucket and is saved as the default for future days.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/config"
)

// goalAliases maps short goal names to config keys.
var goalAliases = map[string]string{
	"kcal":     "nutrition.kcal",
	"calories": "nutrition.kcal",
	"protein":  "nutrition.protein_g",
	"carbs":    "nutrition.carbs_g",
	"fat":      "nutrition.fat_g",
	"minutes":  "workout.target_minutes",
	"training": "workout.target_minutes",
	"sleep":    "recovery.sleep_hours",
}

var goalCmd = &cobra.Command{
	Use:     "goal",
	Aliases: []string{"goals", "g"},
	Short:   "Show or change daily goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		printGoals()
		return nil
	},
}

var goalSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Change a daily goal",
	Long: `Change a daily goal.

Today's goal changes immediately. Past days keep the goal they were logged
with; future days start from the new value.

NAMES:

  kcal, protein, carbs, fat      Nutrition (kcal and grams)
  minutes                        Training minutes per day
  sleep                          Sleep hours per night

Config keys such as nutrition.kcal are accepted too.

EXAMPLES:

  fitlog goal set kcal 2200
  fitlog goal set protein 160
  fitlog goal set sleep 7.5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		if k, ok := goalAliases[key]; ok {
			key = k
		}
		if !isGoalKey(key) {
			return fmt.Errorf("unknown goal: %s (use kcal, protein, carbs, fat, minutes, or sleep)", args[0])
		}

		cfg := sess.cfg
		if err := cfg.Set(key, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		applyGoal(cfg, key)

		color.Green("✓ Goal %s set to %s", key, args[1])
		return nil
	},
}

func isGoalKey(key string) bool {
	for _, prefix := range []string{"nutrition.", "workout.", "recovery."} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// applyGoal pushes the domain goal named by key into the tracker.
func applyGoal(cfg *config.Config, key string) {
	switch {
	case strings.HasPrefix(key, "nutrition."):
		sess.tracker.Nutrition.UpdateGoal(cfg.GetNutritionGoal())
	case strings.HasPrefix(key, "workout."):
		sess.tracker.Workouts.UpdateGoal(cfg.GetWorkoutGoal())
	case strings.HasPrefix(key, "recovery."):
		sess.tracker.Recovery.UpdateGoal(cfg.GetRecoveryGoal())
	}
}

func printGoals() {
	n := sess.tracker.Nutrition.Today().Config
	w := sess.tracker.Workouts.Today().Config
	r := sess.tracker.Recovery.Today().Config

	fmt.Printf("Calories  %.0f kcal\n", n.Kcal)
	fmt.Printf("Protein   %.0f g\n", n.ProteinG)
	fmt.Printf("Carbs     %.0f g\n", n.CarbsG)
	fmt.Printf("Fat       %.0f g\n", n.FatG)
	fmt.Printf("Training  %d min\n", w.TargetMinutes)
	fmt.Printf("Sleep     %.1f h\n", r.SleepHours)
}

func init() {
	goalCmd.AddCommand(goalSetCmd)
	rootCmd.AddCommand(goalCmd)
}
