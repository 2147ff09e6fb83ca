// ABOUTME: MCP tool implementations for fitlog.
// ABOUTME: Logs meals, workouts, and recovery, edits goals, and reports per-day totals.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fitlog/internal/models"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_meal",
		Description: "Log a meal or snack with calories and optional macros",
	}, s.handleAddMeal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete a meal, workout, or recovery entry by ID or ID prefix",
	}, s.handleDeleteEntry)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "nutrition_totals",
		Description: "Calorie and macro totals for a day against its goal",
	}, s.handleNutritionTotals)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "day_totals",
		Description: "Nutrition, workout, and recovery totals for a day",
	}, s.handleDayTotals)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_goal",
		Description: "Update the goal for nutrition, workouts, or recovery; applies to today and future days",
	}, s.handleSetGoal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_recovery",
		Description: "Log sleep, soreness, and optional heart data",
	}, s.handleLogRecovery)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_workout",
		Description: "Start a workout session",
	}, s.handleStartWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_set",
		Description: "Record a set on the active workout",
	}, s.handleAddSet)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "finish_workout",
		Description: "Finish the active workout and add it to the history",
	}, s.handleFinishWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "workout_history",
		Description: "Recent finished workouts, newest first",
	}, s.handleWorkoutHistory)
}

// Tool input/output types

type addMealInput struct {
	Name     string  `json:"name" jsonschema:"What was eaten"`
	Kcal     float64 `json:"kcal" jsonschema:"Calories"`
	ProteinG float64 `json:"protein_g,omitempty" jsonschema:"Protein in grams"`
	CarbsG   float64 `json:"carbs_g,omitempty" jsonschema:"Carbohydrates in grams"`
	FatG     float64 `json:"fat_g,omitempty" jsonschema:"Fat in grams"`
	Meal     string  `json:"meal,omitempty" jsonschema:"breakfast, lunch, dinner, or snack (default snack)"`
	Date     string  `json:"date,omitempty" jsonschema:"Day to log on (YYYY-MM-DD), defaults to today"`
	Notes    string  `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type entryOutput struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

type deleteEntryInput struct {
	ID string `json:"id" jsonschema:"Entry ID or prefix"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type dayInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day (YYYY-MM-DD), defaults to today"`
}

type dayTotalsOutput struct {
	Nutrition models.NutritionTotals `json:"nutrition"`
	Workouts  models.WorkoutTotals   `json:"workouts"`
	Recovery  models.RecoveryTotals  `json:"recovery"`
}

type setGoalInput struct {
	Domain        string  `json:"domain" jsonschema:"nutrition, workouts, or recovery"`
	Kcal          float64 `json:"kcal,omitempty" jsonschema:"Daily calorie goal"`
	ProteinG      float64 `json:"protein_g,omitempty" jsonschema:"Daily protein goal in grams"`
	CarbsG        float64 `json:"carbs_g,omitempty" jsonschema:"Daily carbohydrate goal in grams"`
	FatG          float64 `json:"fat_g,omitempty" jsonschema:"Daily fat goal in grams"`
	TargetMinutes int     `json:"target_minutes,omitempty" jsonschema:"Daily training minutes goal"`
	SleepHours    float64 `json:"sleep_hours,omitempty" jsonschema:"Nightly sleep goal in hours"`
}

type logRecoveryInput struct {
	SleepHours float64 `json:"sleep_hours" jsonschema:"Hours slept"`
	Soreness   int     `json:"soreness" jsonschema:"Soreness from 0 (none) to 10"`
	RestingHR  int     `json:"resting_hr,omitempty" jsonschema:"Resting heart rate in bpm"`
	HRVMs      float64 `json:"hrv_ms,omitempty" jsonschema:"Heart rate variability in ms"`
	Date       string  `json:"date,omitempty" jsonschema:"Day to log on (YYYY-MM-DD), defaults to today"`
	Notes      string  `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type startWorkoutInput struct {
	WorkoutType string `json:"workout_type" jsonschema:"Type of workout (run, lift, cycle, swim, etc.)"`
	Notes       string `json:"notes,omitempty" jsonschema:"Workout notes"`
}

type addSetInput struct {
	Exercise string  `json:"exercise" jsonschema:"Exercise name"`
	Reps     int     `json:"reps" jsonschema:"Repetitions"`
	WeightKg float64 `json:"weight_kg,omitempty" jsonschema:"Load in kilograms"`
}

type workoutOutput struct {
	ID          string  `json:"id"`
	WorkoutType string  `json:"workout_type"`
	Sets        int     `json:"sets"`
	VolumeKg    float64 `json:"volume_kg"`
	Message     string  `json:"message"`
}

type historyInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type historyOutput struct {
	Workouts []models.WorkoutSummary `json:"workouts"`
}

// Tool handlers

func (s *Server) handleAddMeal(ctx context.Context, req *mcp.CallToolRequest, input addMealInput) (*mcp.CallToolResult, entryOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, entryOutput{}, fmt.Errorf("name is required")
	}
	if input.Kcal < 0 || input.ProteinG < 0 || input.CarbsG < 0 || input.FatG < 0 {
		return nil, entryOutput{}, fmt.Errorf("calories and macros must not be negative")
	}
	day, err := s.parseDay(input.Date)
	if err != nil {
		return nil, entryOutput{}, fmt.Errorf("invalid date: %w", err)
	}

	m := models.NewMealEntry(input.Name, input.Kcal).WithMacros(input.ProteinG, input.CarbsG, input.FatG)
	if input.Meal != "" {
		if !models.IsValidMealType(input.Meal) {
			return nil, entryOutput{}, fmt.Errorf("unknown meal type: %s", input.Meal)
		}
		m.WithMeal(models.MealType(input.Meal))
	}
	if input.Notes != "" {
		m.WithNotes(input.Notes)
	}
	s.tracker.Nutrition.AddEntryFor(*m, day)

	return nil, entryOutput{
		ID:      m.ID.String()[:8],
		Date:    day.String(),
		Message: fmt.Sprintf("Logged %s: %.0f kcal on %s (ID: %s)", m.Name, m.Kcal, day, m.ID.String()[:8]),
	}, nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, req *mcp.CallToolRequest, input deleteEntryInput) (*mcp.CallToolResult, simpleOutput, error) {
	id, err := s.tracker.ResolveID(input.ID)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete entry: %w", err)
	}
	domain, ok := s.tracker.DeleteEntry(id)
	if !ok {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete entry: not found: %s", input.ID)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted %s entry: %s", domain, id.String()[:8]),
	}, nil
}

func (s *Server) handleNutritionTotals(ctx context.Context, req *mcp.CallToolRequest, input dayInput) (*mcp.CallToolResult, models.NutritionTotals, error) {
	day, err := s.parseDay(input.Date)
	if err != nil {
		return nil, models.NutritionTotals{}, fmt.Errorf("invalid date: %w", err)
	}
	return nil, s.tracker.Nutrition.Totals(day), nil
}

func (s *Server) handleDayTotals(ctx context.Context, req *mcp.CallToolRequest, input dayInput) (*mcp.CallToolResult, dayTotalsOutput, error) {
	day, err := s.parseDay(input.Date)
	if err != nil {
		return nil, dayTotalsOutput{}, fmt.Errorf("invalid date: %w", err)
	}
	return nil, dayTotalsOutput{
		Nutrition: s.tracker.Nutrition.Totals(day),
		Workouts:  s.tracker.Workouts.Totals(day),
		Recovery:  s.tracker.Recovery.Totals(day),
	}, nil
}

func (s *Server) handleSetGoal(ctx context.Context, req *mcp.CallToolRequest, input setGoalInput) (*mcp.CallToolResult, simpleOutput, error) {
	if input.Kcal < 0 || input.ProteinG < 0 || input.CarbsG < 0 || input.FatG < 0 || input.TargetMinutes < 0 || input.SleepHours < 0 {
		return nil, simpleOutput{}, fmt.Errorf("goals must not be negative")
	}
	switch input.Domain {
	case "nutrition":
		g := s.tracker.Nutrition.Goal()
		if input.Kcal > 0 {
			g.Kcal = input.Kcal
		}
		if input.ProteinG > 0 {
			g.ProteinG = input.ProteinG
		}
		if input.CarbsG > 0 {
			g.CarbsG = input.CarbsG
		}
		if input.FatG > 0 {
			g.FatG = input.FatG
		}
		s.tracker.Nutrition.UpdateGoal(g)
		return nil, simpleOutput{Message: fmt.Sprintf("Nutrition goal: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat", g.Kcal, g.ProteinG, g.CarbsG, g.FatG)}, nil
	case "workouts":
		if input.TargetMinutes == 0 {
			return nil, simpleOutput{}, fmt.Errorf("target_minutes is required for workouts")
		}
		g := models.WorkoutGoal{TargetMinutes: input.TargetMinutes}
		s.tracker.Workouts.UpdateGoal(g)
		return nil, simpleOutput{Message: fmt.Sprintf("Workout goal: %d minutes", g.TargetMinutes)}, nil
	case "recovery":
		if input.SleepHours == 0 {
			return nil, simpleOutput{}, fmt.Errorf("sleep_hours is required for recovery")
		}
		g := models.RecoveryGoal{SleepHours: input.SleepHours}
		s.tracker.Recovery.UpdateGoal(g)
		return nil, simpleOutput{Message: fmt.Sprintf("Recovery goal: %.1f hours of sleep", g.SleepHours)}, nil
	}
	return nil, simpleOutput{}, fmt.Errorf("unknown domain: %s (use nutrition, workouts, or recovery)", input.Domain)
}

func (s *Server) handleLogRecovery(ctx context.Context, req *mcp.CallToolRequest, input logRecoveryInput) (*mcp.CallToolResult, entryOutput, error) {
	if input.SleepHours < 0 || input.SleepHours > 24 {
		return nil, entryOutput{}, fmt.Errorf("sleep_hours must be between 0 and 24")
	}
	if input.Soreness < 0 || input.Soreness > models.MaxSoreness {
		return nil, entryOutput{}, fmt.Errorf("soreness must be between 0 and %d", models.MaxSoreness)
	}
	day, err := s.parseDay(input.Date)
	if err != nil {
		return nil, entryOutput{}, fmt.Errorf("invalid date: %w", err)
	}

	r := models.NewRecoveryLog(input.SleepHours, input.Soreness).WithHeart(input.RestingHR, input.HRVMs)
	if input.Notes != "" {
		r.WithNotes(input.Notes)
	}
	s.tracker.Recovery.AddEntryFor(*r, day)

	return nil, entryOutput{
		ID:      r.ID.String()[:8],
		Date:    day.String(),
		Message: fmt.Sprintf("Logged %.1fh sleep, soreness %d/10 on %s (ID: %s)", r.SleepHours, r.Soreness, day, r.ID.String()[:8]),
	}, nil
}

func (s *Server) handleStartWorkout(ctx context.Context, req *mcp.CallToolRequest, input startWorkoutInput) (*mcp.CallToolResult, workoutOutput, error) {
	if strings.TrimSpace(input.WorkoutType) == "" {
		return nil, workoutOutput{}, fmt.Errorf("workout_type is required")
	}
	w, err := s.tracker.Workouts.StartWorkout(input.WorkoutType, input.Notes)
	if err != nil {
		return nil, workoutOutput{}, err
	}
	return nil, workoutOutput{
		ID:          w.ID.String()[:8],
		WorkoutType: w.WorkoutType,
		Message:     fmt.Sprintf("Started %s workout (ID: %s)", w.WorkoutType, w.ID.String()[:8]),
	}, nil
}

func (s *Server) handleAddSet(ctx context.Context, req *mcp.CallToolRequest, input addSetInput) (*mcp.CallToolResult, workoutOutput, error) {
	if strings.TrimSpace(input.Exercise) == "" || input.Reps <= 0 {
		return nil, workoutOutput{}, fmt.Errorf("exercise and a positive rep count are required")
	}
	if input.WeightKg < 0 {
		return nil, workoutOutput{}, fmt.Errorf("weight_kg must not be negative")
	}
	w, err := s.tracker.Workouts.AddSet(input.Exercise, input.Reps, input.WeightKg)
	if err != nil {
		return nil, workoutOutput{}, err
	}
	return nil, workoutOutput{
		ID:          w.ID.String()[:8],
		WorkoutType: w.WorkoutType,
		Sets:        len(w.Sets),
		VolumeKg:    w.VolumeKg(),
		Message:     fmt.Sprintf("Added %s: %d x %.1f kg (set %d)", input.Exercise, input.Reps, input.WeightKg, len(w.Sets)),
	}, nil
}

func (s *Server) handleFinishWorkout(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, workoutOutput, error) {
	summary, err := s.tracker.Workouts.FinishWorkout()
	if err != nil {
		return nil, workoutOutput{}, err
	}
	return nil, workoutOutput{
		ID:          summary.ID.String()[:8],
		WorkoutType: summary.WorkoutType,
		Sets:        summary.Sets,
		VolumeKg:    summary.VolumeKg,
		Message:     fmt.Sprintf("Finished %s workout: %d min, %d sets, %.1f kg", summary.WorkoutType, summary.DurationMinutes, summary.Sets, summary.VolumeKg),
	}, nil
}

func (s *Server) handleWorkoutHistory(ctx context.Context, req *mcp.CallToolRequest, input historyInput) (*mcp.CallToolResult, historyOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	return nil, historyOutput{Workouts: s.tracker.Workouts.History(input.Limit)}, nil
}
