// ABOUTME: CLI commands for logging meals.
// ABOUTME: Adds an entry to the day's nutrition bucket.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/models"
)

var (
	mealProtein float64
	mealCarbs   float64
	mealFat     float64
	mealType    string
	mealAt      string
	mealDate    string
	mealNotes   string
)

var mealCmd = &cobra.Command{
	Use:     "meal",
	Aliases: []string{"m", "eat"},
	Short:   "Log meals",
}

var mealAddCmd = &cobra.Command{
	Use:     "add <name> <kcal>",
	Aliases: []string{"a"},
	Short:   "Log a meal or snack",
	Long: `Log a meal or snack with its calories and optional macros.

The entry is filed under today unless --date or --at says otherwise.

Examples:
  fitlog meal add oats 350 --protein 12 --carbs 60 --fat 6 --meal breakfast
  fitlog meal add "chicken salad" 520 --at "2026-03-01 12:30"
  fitlog meal add pizza 800 --date 2026-02-28 --notes "friday"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kcal, err := strconv.ParseFloat(args[1], 64)
		if err != nil || kcal < 0 {
			return fmt.Errorf("invalid calories: %s", args[1])
		}
		if mealProtein < 0 || mealCarbs < 0 || mealFat < 0 {
			return fmt.Errorf("macros must not be negative")
		}

		m := models.NewMealEntry(args[0], kcal).WithMacros(mealProtein, mealCarbs, mealFat)
		if mealType != "" {
			if !models.IsValidMealType(mealType) {
				return fmt.Errorf("unknown meal type: %s (use breakfast, lunch, dinner, or snack)", mealType)
			}
			m.WithMeal(models.MealType(mealType))
		}
		if mealNotes != "" {
			m.WithNotes(mealNotes)
		}

		day, err := parseDay(mealDate)
		if err != nil {
			return err
		}
		if mealAt != "" {
			at, err := parseTime(mealAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", mealAt)
			}
			m.WithCreatedAt(at)
			if mealDate == "" {
				day = models.DayOf(at.Local())
			}
		}

		sess.tracker.Nutrition.AddEntryFor(*m, day)

		color.Green("✓ Logged %s", m.Name)
		fmt.Printf("  %s %.0f kcal  %s  %s\n",
			color.New(color.Faint).Sprint(shortID(m.ID)),
			m.Kcal, m.Meal, day)
		return nil
	},
}

func init() {
	mealAddCmd.Flags().Float64Var(&mealProtein, "protein", 0, "protein in grams")
	mealAddCmd.Flags().Float64Var(&mealCarbs, "carbs", 0, "carbohydrates in grams")
	mealAddCmd.Flags().Float64Var(&mealFat, "fat", 0, "fat in grams")
	mealAddCmd.Flags().StringVar(&mealType, "meal", "", "breakfast, lunch, dinner, or snack")
	mealAddCmd.Flags().StringVar(&mealAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	mealAddCmd.Flags().StringVar(&mealDate, "date", "", "day to log on (YYYY-MM-DD)")
	mealAddCmd.Flags().StringVar(&mealNotes, "notes", "", "notes for the entry")

	mealCmd.AddCommand(mealAddCmd)
	rootCmd.AddCommand(mealCmd)
}
