// ABOUTME: CLI commands for reading and changing the config file.
// ABOUTME: Runs without opening the data directory.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/config"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or change settings",
	Annotations: map[string]string{configOnly: "true"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		effective := map[string]any{
			"data_dir":       cfg.GetDataDir(),
			"trailing_days":  cfg.GetTrailingDays(),
			"history_max":    cfg.GetHistoryMax(),
			"retry_interval": cfg.GetRetryInterval().String(),
			"log_level":      cfg.GetLogLevel().String(),
			"journal":        cfg.Journal,
			"mirror":         cfg.Mirror,
			"nutrition_goal": cfg.GetNutritionGoal(),
			"workout_goal":   cfg.GetWorkoutGoal(),
			"recovery_goal":  cfg.GetRecoveryGoal(),
		}
		out, err := json.MarshalIndent(effective, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting and save the config file.

Run 'fitlog config keys' for the list of keys.

EXAMPLES:

  fitlog config set data_dir ~/Dropbox/fitlog
  fitlog config set trailing_days 14
  fitlog config set journal true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		color.Green("✓ %s = %s", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetConfigPath())
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range config.Keys() {
			fmt.Println(k)
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}
