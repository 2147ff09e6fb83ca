// ABOUTME: Tests for fitlog configuration management.
// ABOUTME: Covers load, save, defaults, setters, path expansion, and the tracker factory.
package config

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/telemetry"
)

func TestGetDataDirDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	cfg := &Config{}

	want := filepath.Join("/tmp/xdg-data", "fitlog")
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/fitlog-test"}
	if got := cfg.GetDataDir(); got != "/tmp/fitlog-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/fitlog-test")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/fitlog-data"}
	got := cfg.GetDataDir()
	want := filepath.Join(home, "fitlog-data")
	if got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/fitlog", filepath.Join(home, "data/fitlog")},
		{"data/fitlog", "data/fitlog"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if got := cfg.GetTrailingDays(); got != 7 {
		t.Errorf("GetTrailingDays() = %d, want 7", got)
	}
	if got := cfg.GetHistoryMax(); got != 200 {
		t.Errorf("GetHistoryMax() = %d, want 200", got)
	}
	if got := cfg.GetRetryInterval(); got != 30*time.Second {
		t.Errorf("GetRetryInterval() = %v, want 30s", got)
	}
	if got := cfg.GetLogLevel(); got != slog.LevelWarn {
		t.Errorf("GetLogLevel() = %v, want warn", got)
	}
	if got := cfg.GetNutritionGoal(); got != models.DefaultNutritionGoal() {
		t.Errorf("GetNutritionGoal() = %+v", got)
	}
	if got := cfg.GetWorkoutGoal(); got != models.DefaultWorkoutGoal() {
		t.Errorf("GetWorkoutGoal() = %+v", got)
	}
	if got := cfg.GetRecoveryGoal(); got != models.DefaultRecoveryGoal() {
		t.Errorf("GetRecoveryGoal() = %+v", got)
	}
}

func TestInvalidRetryIntervalFallsBack(t *testing.T) {
	cfg := &Config{RetryInterval: "soon"}
	if got := cfg.GetRetryInterval(); got != 30*time.Second {
		t.Errorf("GetRetryInterval() = %v, want 30s", got)
	}
}

func TestSet(t *testing.T) {
	cfg := &Config{}

	for key, value := range map[string]string{
		"trailing_days":          "14",
		"history_max":            "50",
		"retry_interval":         "1m",
		"log_level":              "DEBUG",
		"journal":                "true",
		"nutrition.kcal":         "1800",
		"workout.target_minutes": "45",
		"recovery.sleep_hours":   "7.5",
	} {
		if err := cfg.Set(key, value); err != nil {
			t.Fatalf("Set(%q, %q) failed: %v", key, value, err)
		}
	}

	if cfg.TrailingDays != 14 || cfg.HistoryMax != 50 {
		t.Errorf("ints not applied: %+v", cfg)
	}
	if cfg.GetRetryInterval() != time.Minute {
		t.Errorf("GetRetryInterval() = %v, want 1m", cfg.GetRetryInterval())
	}
	if cfg.GetLogLevel() != slog.LevelDebug {
		t.Errorf("GetLogLevel() = %v, want debug", cfg.GetLogLevel())
	}
	if !cfg.Journal {
		t.Error("expected Journal to be true")
	}
	goal := cfg.GetNutritionGoal()
	if goal.Kcal != 1800 || goal.ProteinG != models.DefaultNutritionGoal().ProteinG {
		t.Errorf("nutrition goal = %+v", goal)
	}
	if cfg.GetWorkoutGoal().TargetMinutes != 45 {
		t.Errorf("workout goal = %+v", cfg.GetWorkoutGoal())
	}
	if cfg.GetRecoveryGoal().SleepHours != 7.5 {
		t.Errorf("recovery goal = %+v", cfg.GetRecoveryGoal())
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := &Config{}
	bad := [][2]string{
		{"nope", "1"},
		{"trailing_days", "-1"},
		{"retry_interval", "fast"},
		{"log_level", "loud"},
		{"mirror", "maybe"},
		{"nutrition.kcal", "lots"},
	}
	for _, kv := range bad {
		if err := cfg.Set(kv[0], kv[1]); err == nil {
			t.Errorf("Set(%q, %q) expected error", kv[0], kv[1])
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.DataDir != "" {
		t.Errorf("Expected empty DataDir, got %q", cfg.DataDir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{
		DataDir:     "/tmp/fitlog-data",
		WorkoutGoal: &models.WorkoutGoal{TargetMinutes: 60},
		Mirror:      true,
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.DataDir != "/tmp/fitlog-data" {
		t.Errorf("DataDir mismatch: got %q", loaded.DataDir)
	}
	if loaded.GetWorkoutGoal().TargetMinutes != 60 {
		t.Errorf("WorkoutGoal mismatch: got %+v", loaded.WorkoutGoal)
	}
	if !loaded.Mirror {
		t.Error("Mirror mismatch")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "fitlog")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "fitlog")
	_ = os.MkdirAll(configDir, 0755)
	_ = os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600)

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	got := GetConfigPath()
	want := filepath.Join(tmpDir, "fitlog", "config.json")
	if got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %s", string(data))
	}
}

func TestOpenTracker(t *testing.T) {
	dataDir := t.TempDir()
	cfg := &Config{DataDir: dataDir, NutritionGoal: &models.NutritionGoal{Kcal: 2500}}

	tr := cfg.OpenTracker(telemetry.Nop{}, slog.Default())
	tr.Load()
	defer tr.Close(context.Background())

	if got := tr.Nutrition.Today().Config.Kcal; got != 2500 {
		t.Errorf("today's goal = %v, want 2500", got)
	}

	tr.Nutrition.AddEntry(*models.NewMealEntry("rice", 200))
	tr.Save(context.Background())

	entries, err := os.ReadDir(filepath.Join(dataDir, "nutrition"))
	if err != nil {
		t.Fatalf("expected nutrition dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one day file, got %d", len(entries))
	}
}
