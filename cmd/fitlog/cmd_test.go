// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs commands end to end against temporary config and data directories.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harperreed/fitlog/internal/config"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/tracker"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "date and time with space", input: "2026-01-31 08:30"},
		{name: "date and time with T", input: "2026-01-31T08:30"},
		{name: "date only", input: "2026-01-31"},
		{name: "RFC3339", input: "2026-01-31T08:30:00Z"},
		{name: "RFC3339 with offset", input: "2026-01-31T08:30:00+05:00"},
		{name: "invalid format", input: "31-01-2026", wantErr: true},
		{name: "invalid random string", input: "not a date", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseTime(%q) unexpected error: %v", tt.input, err)
				return
			}
			if result.IsZero() {
				t.Errorf("parseTime(%q) returned zero time", tt.input)
			}
		})
	}
}

func TestParseTimeUsesLocalZone(t *testing.T) {
	result, err := parseTime("2026-06-15 23:30")
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if result.Location() != time.Local {
		t.Errorf("expected local time, got %v", result.Location())
	}
	if result.Year() != 2026 || result.Month() != time.June || result.Day() != 15 || result.Hour() != 23 {
		t.Errorf("parseTime returned wrong value: got %v", result)
	}
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("")
	if err != nil || d != models.Today() {
		t.Errorf("parseDay(\"\") = %v, %v; want today", d, err)
	}

	d, err = parseDay("2026-03-01")
	if err != nil {
		t.Fatalf("parseDay failed: %v", err)
	}
	if d != models.NewDay(2026, time.March, 1) {
		t.Errorf("parseDay returned %v", d)
	}

	if _, err := parseDay("03/01/2026"); err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string no truncation", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact length", input: "hello", maxLen: 5, want: "hello"},
		{name: "needs truncation", input: "hello world this is a long string", maxLen: 10, want: "hello w..."},
		{name: "empty string", input: "", maxLen: 10, want: ""},
		{name: "very short maxLen", input: "hello", maxLen: 3, want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"hi", 5, "hi   "},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello world"},
		{"", 3, "   "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestRootCmd(t *testing.T) {
	if rootCmd.Use != "fitlog" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "fitlog")
	}
	for _, name := range []string{"verbose", "data-dir"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected --%s persistent flag", name)
		}
	}

	want := []string{"meal", "today", "totals", "delete", "goal", "workout", "recovery", "export", "diag", "mcp", "config", "mirror", "install-skill"}
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, n := range want {
		if !names[n] {
			t.Errorf("Expected command %q to be registered", n)
		}
	}
}

func TestWorkoutCmdSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range workoutCmd.Commands() {
		names[c.Name()] = true
	}
	for _, n := range []string{"start", "set", "finish", "discard", "status", "add", "history"} {
		if !names[n] {
			t.Errorf("Expected workout subcommand %q not found", n)
		}
	}

	limit := workoutHistoryCmd.Flags().Lookup("limit")
	if limit == nil || limit.DefValue != "10" {
		t.Errorf("Expected --limit flag with default 10, got %v", limit)
	}
}

func TestMealAddCmdFlags(t *testing.T) {
	for _, name := range []string{"protein", "carbs", "fat", "meal", "at", "date", "notes"} {
		if mealAddCmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected --%s flag on meal add command", name)
		}
	}
}

func TestDeleteCmdAliases(t *testing.T) {
	expected := map[string]bool{"del": false, "rm": false}
	for _, alias := range deleteCmd.Aliases {
		if _, ok := expected[alias]; ok {
			expected[alias] = true
		}
	}
	for alias, found := range expected {
		if !found {
			t.Errorf("Expected alias %q for deleteCmd", alias)
		}
	}
}

func TestExportCmdValidArgs(t *testing.T) {
	expected := map[string]bool{"json": false, "yaml": false, "markdown": false, "sqlite": false}
	for _, arg := range exportCmd.ValidArgs {
		expected[arg] = true
	}
	for arg, found := range expected {
		if !found {
			t.Errorf("Expected valid arg %q for exportCmd", arg)
		}
	}
}

func TestIsConfigOnly(t *testing.T) {
	if !isConfigOnly(configSetCmd) {
		t.Error("config set should not open the data directory")
	}
	if !isConfigOnly(installSkillCmd) {
		t.Error("install-skill should not open the data directory")
	}
	if isConfigOnly(mealAddCmd) {
		t.Error("meal add needs the data directory")
	}
}

// env points config and data at temp dirs and returns the data dir.
func env(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	return filepath.Join(root, "data", "fitlog")
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return Execute()
}

func mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := run(t, args...); err != nil {
		t.Fatalf("fitlog %s: %v", strings.Join(args, " "), err)
	}
}

// reopen loads the data dir in a fresh tracker.
func reopen(t *testing.T, dataDir string) *tracker.Tracker {
	t.Helper()
	tr := tracker.Open(tracker.Options{DataDir: dataDir})
	tr.Load()
	t.Cleanup(func() { tr.Close(context.Background()) })
	return tr
}

func TestMealAddPersists(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "meal", "add", "oats", "350", "--protein", "12", "--carbs", "60", "--fat", "6", "--meal", "breakfast")

	tr := reopen(t, dataDir)
	entries := tr.Nutrition.Today().Entries
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	m := entries[0]
	if m.Name != "oats" || m.Kcal != 350 || m.ProteinG != 12 || m.Meal != models.MealBreakfast {
		t.Errorf("unexpected entry: %+v", m)
	}
	if sess != nil {
		t.Error("session should be closed after Execute")
	}
}

func TestMealAddBackdated(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "meal", "add", "pizza", "800", "--date", "2026-03-01")

	tr := reopen(t, dataDir)
	var b tracker.NutritionDay
	found, err := tr.Docs().Read("nutrition/2026-03-01.json", &b)
	if err != nil || !found {
		t.Fatalf("expected day file, found=%v err=%v", found, err)
	}
	if len(b.Entries) != 1 || b.Entries[0].Name != "pizza" {
		t.Errorf("unexpected bucket: %+v", b)
	}
}

func TestMealAddRejectsBadInput(t *testing.T) {
	env(t)

	if err := run(t, "meal", "add", "oats", "lots"); err == nil {
		t.Error("expected error for non-numeric calories")
	}
	if err := run(t, "meal", "add", "oats", "300", "--meal", "brunch"); err == nil {
		t.Error("expected error for unknown meal type")
	}
	if err := run(t, "meal", "add", "oats", "300", "--date", "yesterday"); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestDeleteByPrefix(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "meal", "add", "toast", "200")
	id := reopenID(t, dataDir)

	mustRun(t, "delete", id.String()[:8])

	tr := reopen(t, dataDir)
	if n := len(tr.Nutrition.Today().Entries); n != 0 {
		t.Errorf("expected entry to be deleted, %d remain", n)
	}

	err := run(t, "delete", "ffffffff")
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func reopenID(t *testing.T, dataDir string) uuid.UUID {
	t.Helper()
	tr := tracker.Open(tracker.Options{DataDir: dataDir})
	tr.Load()
	defer tr.Close(context.Background())
	entries := tr.Nutrition.Today().Entries
	if len(entries) == 0 {
		t.Fatal("no entries logged")
	}
	return entries[0].ID
}

func TestWorkoutSessionFlow(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "workout", "start", "lift", "--notes", "legs")
	if err := run(t, "workout", "start", "run"); !errors.Is(err, tracker.ErrWorkoutInProgress) {
		t.Errorf("expected ErrWorkoutInProgress, got %v", err)
	}
	mustRun(t, "workout", "set", "squat", "5", "100")
	mustRun(t, "workout", "set", "pullup", "8")
	mustRun(t, "workout", "finish")

	tr := reopen(t, dataDir)
	if _, ok := tr.Workouts.ActiveWorkout(); ok {
		t.Error("expected no active workout after finish")
	}
	history := tr.Workouts.History(0)
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].Sets != 2 || history[0].VolumeKg != 500 {
		t.Errorf("unexpected summary: %+v", history[0])
	}
	sessions := tr.Workouts.Today().Entries
	if len(sessions) != 1 || sessions[0].Notes != "legs" {
		t.Errorf("unexpected sessions: %+v", sessions)
	}

	if err := run(t, "workout", "finish"); !errors.Is(err, tracker.ErrNoActiveWorkout) {
		t.Errorf("expected ErrNoActiveWorkout, got %v", err)
	}
}

func TestWorkoutDiscard(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "workout", "start", "run")
	mustRun(t, "workout", "discard")

	if _, err := os.Stat(filepath.Join(dataDir, tracker.ActiveWorkoutPath)); !os.IsNotExist(err) {
		t.Errorf("expected active workout file to be removed, got %v", err)
	}
	tr := reopen(t, dataDir)
	if len(tr.Workouts.History(0)) != 0 {
		t.Error("discarded session should not reach history")
	}
}

func TestWorkoutAddRequiresDuration(t *testing.T) {
	dataDir := env(t)

	if err := run(t, "workout", "add", "yoga"); err == nil {
		t.Error("expected error without --duration")
	}
	mustRun(t, "workout", "add", "yoga", "--duration", "30")

	tr := reopen(t, dataDir)
	sessions := tr.Workouts.Today().Entries
	if len(sessions) != 1 || sessions[0].DurationMinutes != 30 {
		t.Errorf("unexpected sessions: %+v", sessions)
	}
	if len(tr.Workouts.History(0)) != 1 {
		t.Error("expected the session in history")
	}
}

func TestRecoveryAdd(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "recovery", "add", "--sleep", "7.5", "--soreness", "3", "--hr", "52")
	if err := run(t, "recovery", "add", "--sleep", "7", "--soreness", "11"); err == nil {
		t.Error("expected error for soreness above 10")
	}

	tr := reopen(t, dataDir)
	logs := tr.Recovery.Today().Entries
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if logs[0].SleepHours != 7.5 || logs[0].Soreness != 3 || logs[0].RestingHR != 52 {
		t.Errorf("unexpected log: %+v", logs[0])
	}
}

func TestGoalSet(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "goal", "set", "kcal", "2500")
	mustRun(t, "goal", "set", "sleep", "7.5")
	if err := run(t, "goal", "set", "data_dir", "/tmp"); err == nil {
		t.Error("goal set should only accept goal keys")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GetNutritionGoal().Kcal != 2500 {
		t.Errorf("expected saved kcal goal 2500, got %v", cfg.GetNutritionGoal().Kcal)
	}
	if cfg.GetRecoveryGoal().SleepHours != 7.5 {
		t.Errorf("expected saved sleep goal 7.5, got %v", cfg.GetRecoveryGoal().SleepHours)
	}

	tr := reopen(t, dataDir)
	if got := tr.Nutrition.Today().Config.Kcal; got != 2500 {
		t.Errorf("expected today's stored goal 2500, got %v", got)
	}
}

func TestExportJSON(t *testing.T) {
	env(t)
	out := filepath.Join(t.TempDir(), "backup.json")

	mustRun(t, "meal", "add", "apple", "95")
	mustRun(t, "export", "json", "-o", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if parsed["tool"] != "fitlog" {
		t.Errorf("unexpected tool: %v", parsed["tool"])
	}
	if !strings.Contains(string(data), "apple") {
		t.Error("expected export to contain the logged meal")
	}

	if err := run(t, "export", "sqlite"); err == nil {
		t.Error("sqlite export without --output should fail")
	}
	if err := run(t, "export", "csv"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestConfigSetDoesNotOpenData(t *testing.T) {
	dataDir := env(t)

	mustRun(t, "config", "set", "trailing_days", "14")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GetTrailingDays() != 14 {
		t.Errorf("expected trailing_days 14, got %d", cfg.GetTrailingDays())
	}
	if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
		t.Errorf("config set should not touch the data dir, stat err = %v", err)
	}

	if err := run(t, "config", "set", "bogus", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestDataDirFlag(t *testing.T) {
	env(t)
	custom := filepath.Join(t.TempDir(), "elsewhere")

	mustRun(t, "--data-dir", custom, "meal", "add", "banana", "105")

	tr := reopen(t, custom)
	if len(tr.Nutrition.Today().Entries) != 1 {
		t.Error("expected entry under --data-dir")
	}
}
