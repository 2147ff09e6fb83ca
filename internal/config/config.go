// ABOUTME: Fitlog configuration management.
// ABOUTME: Handles data location, cache window, goals, and optional sinks, plus the tracker factory.

package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/telemetry"
	"github.com/harperreed/fitlog/internal/tracker"
)

const (
	defaultTrailingDays  = 7
	defaultHistoryMax    = 200
	defaultRetryInterval = 30 * time.Second
)

// Config stores fitlog configuration.
type Config struct {
	// DataDir is the root directory for nutrition/, workouts/, and recovery/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/fitlog.
	DataDir string `json:"data_dir,omitempty"`

	// TrailingDays is how many days before today are kept in memory.
	TrailingDays int `json:"trailing_days,omitempty"`

	// HistoryMax caps the workout history.
	HistoryMax int `json:"history_max,omitempty"`

	// RetryInterval is how often failed writes are retried, as a Go duration.
	RetryInterval string `json:"retry_interval,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	NutritionGoal *models.NutritionGoal `json:"nutrition_goal,omitempty"`
	WorkoutGoal   *models.WorkoutGoal   `json:"workout_goal,omitempty"`
	RecoveryGoal  *models.RecoveryGoal  `json:"recovery_goal,omitempty"`

	// Journal keeps a local telemetry history in a badger database.
	Journal bool `json:"journal,omitempty"`

	// Mirror copies saved documents to Charm Cloud.
	Mirror bool `json:"mirror,omitempty"`
}

// DefaultDataDir returns the default data directory under XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "fitlog")
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetJournalDir returns where the telemetry journal lives.
func (c *Config) GetJournalDir() string {
	return filepath.Join(c.GetDataDir(), ".journal")
}

// GetTrailingDays returns the cache window, defaulting to 7.
func (c *Config) GetTrailingDays() int {
	if c.TrailingDays <= 0 {
		return defaultTrailingDays
	}
	return c.TrailingDays
}

// GetHistoryMax returns the history cap, defaulting to 200.
func (c *Config) GetHistoryMax() int {
	if c.HistoryMax <= 0 {
		return defaultHistoryMax
	}
	return c.HistoryMax
}

// GetRetryInterval parses RetryInterval, defaulting to 30s.
func (c *Config) GetRetryInterval() time.Duration {
	if c.RetryInterval == "" {
		return defaultRetryInterval
	}
	d, err := time.ParseDuration(c.RetryInterval)
	if err != nil || d <= 0 {
		return defaultRetryInterval
	}
	return d
}

// GetLogLevel maps LogLevel to a slog level, defaulting to warn.
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// GetNutritionGoal returns the configured goal or the default.
func (c *Config) GetNutritionGoal() models.NutritionGoal {
	if c.NutritionGoal == nil {
		return models.DefaultNutritionGoal()
	}
	return *c.NutritionGoal
}

// GetWorkoutGoal returns the configured goal or the default.
func (c *Config) GetWorkoutGoal() models.WorkoutGoal {
	if c.WorkoutGoal == nil {
		return models.DefaultWorkoutGoal()
	}
	return *c.WorkoutGoal
}

// GetRecoveryGoal returns the configured goal or the default.
func (c *Config) GetRecoveryGoal() models.RecoveryGoal {
	if c.RecoveryGoal == nil {
		return models.DefaultRecoveryGoal()
	}
	return *c.RecoveryGoal
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenTracker creates a Tracker from the configuration. Call Load on the result before use.
func (c *Config) OpenTracker(sink telemetry.Sink, logger *slog.Logger) *tracker.Tracker {
	return tracker.Open(tracker.Options{
		DataDir:       c.GetDataDir(),
		TrailingDays:  c.GetTrailingDays(),
		HistoryMax:    c.GetHistoryMax(),
		RetryInterval: c.GetRetryInterval(),
		NutritionGoal: c.GetNutritionGoal(),
		WorkoutGoal:   c.GetWorkoutGoal(),
		RecoveryGoal:  c.GetRecoveryGoal(),
		Sink:          sink,
		Logger:        logger,
	})
}

// setters maps a dotted key to a function that parses and applies a value.
var setters = map[string]func(c *Config, v string) error{
	"data_dir": func(c *Config, v string) error { c.DataDir = v; return nil },
	"trailing_days": func(c *Config, v string) error {
		return setInt(&c.TrailingDays, v)
	},
	"history_max": func(c *Config, v string) error {
		return setInt(&c.HistoryMax, v)
	},
	"retry_interval": func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		c.RetryInterval = v
		return nil
	},
	"log_level": func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log level %q (use debug, info, warn, or error)", v)
	},
	"journal": func(c *Config, v string) error { return setBool(&c.Journal, v) },
	"mirror":  func(c *Config, v string) error { return setBool(&c.Mirror, v) },
	"nutrition.kcal": func(c *Config, v string) error {
		g := c.GetNutritionGoal()
		c.NutritionGoal = &g
		return setFloat(&c.NutritionGoal.Kcal, v)
	},
	"nutrition.protein_g": func(c *Config, v string) error {
		g := c.GetNutritionGoal()
		c.NutritionGoal = &g
		return setFloat(&c.NutritionGoal.ProteinG, v)
	},
	"nutrition.carbs_g": func(c *Config, v string) error {
		g := c.GetNutritionGoal()
		c.NutritionGoal = &g
		return setFloat(&c.NutritionGoal.CarbsG, v)
	},
	"nutrition.fat_g": func(c *Config, v string) error {
		g := c.GetNutritionGoal()
		c.NutritionGoal = &g
		return setFloat(&c.NutritionGoal.FatG, v)
	},
	"workout.target_minutes": func(c *Config, v string) error {
		g := c.GetWorkoutGoal()
		c.WorkoutGoal = &g
		return setInt(&c.WorkoutGoal.TargetMinutes, v)
	},
	"recovery.sleep_hours": func(c *Config, v string) error {
		g := c.GetRecoveryGoal()
		c.RecoveryGoal = &g
		return setFloat(&c.RecoveryGoal.SleepHours, v)
	},
}

// Keys lists every key accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value and assigns it to key.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, value)
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid number %q", v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("invalid number %q", v)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", v)
	}
	*dst = b
	return nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "fitlog", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
