// ABOUTME: Root Cobra command for fitlog CLI.
// ABOUTME: Opens the tracker and its sinks in PersistentPreRunE and flushes them on exit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/cache"
	"github.com/harperreed/fitlog/internal/charm"
	"github.com/harperreed/fitlog/internal/config"
	"github.com/harperreed/fitlog/internal/telemetry"
	"github.com/harperreed/fitlog/internal/tracker"
)

const (
	shutdownTimeout = 10 * time.Second
	noticeBuffer    = 256

	// configOnly marks commands that run without opening the tracker.
	configOnly = "fitlog/config-only"
)

var (
	verbose     bool
	dataDirFlag string
)

// domains lists every data directory, in display order.
var domains = []string{tracker.DomainNutrition, tracker.DomainWorkouts, tracker.DomainRecovery}

// session holds everything opened for one command invocation.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracker *tracker.Tracker
	metrics *telemetry.Metrics
	journal *telemetry.Journal
	client  *charm.Client
	mirror  *charm.Mirror

	mu         sync.Mutex
	advisories []cache.Notice
	collected  chan struct{}
}

var sess *session

var rootCmd = &cobra.Command{
	Use:   "fitlog",
	Short: "Local-first nutrition, workout, and recovery tracker",
	Long: `Fitlog is a CLI tool for tracking meals, training, and recovery.

Everything is stored as plain JSON under your data directory, one file per
day per domain, written atomically so a crash never leaves a torn file.

QUICK START:

  $ fitlog meal add oats 350 --protein 12 --meal breakfast
  $ fitlog today                         # Everything logged today
  $ fitlog totals                        # Totals against your goals
  $ fitlog goal set kcal 2200            # Change a goal

WORKOUTS:

  $ fitlog workout start lift            # Begin a session
  $ fitlog workout set squat 5 100       # Log a set (exercise reps kg)
  $ fitlog workout finish                # File it and add to history
  $ fitlog workout history               # Recent sessions

RECOVERY:

  $ fitlog recovery add --sleep 7.5 --soreness 3

MCP INTEGRATION:

  Run 'fitlog mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants. Add to your Claude
  config:

  {
    "mcpServers": {
      "fitlog": { "command": "fitlog", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Data lives in ~/.local/share/fitlog (nutrition/, workouts/, recovery/).
  Settings live in ~/.config/fitlog/config.json; see 'fitlog config'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isConfigOnly(cmd) {
			return nil
		}
		return openSession()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeSession()
	},
}

// Execute runs the root command and always flushes the session, even when a command fails.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeSession(); err == nil {
		err = cerr
	}
	return err
}

func isConfigOnly(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[configOnly] == "true" {
			return true
		}
	}
	return cmd.Name() == "help" || cmd.Name() == "completion"
}

func openSession() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}

	level := cfg.GetLogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	s := &session{
		cfg:       cfg,
		logger:    logger,
		metrics:   telemetry.NewMetrics(),
		collected: make(chan struct{}),
	}
	sinks := []telemetry.Sink{telemetry.NewLogSink(logger), s.metrics}
	if cfg.Journal {
		j, err := telemetry.OpenJournal(telemetry.JournalOptions{Dir: cfg.GetJournalDir(), Logger: logger})
		if err != nil {
			logger.Warn("journal unavailable", "error", err)
		} else {
			s.journal = j
			sinks = append(sinks, j)
		}
	}

	s.tracker = cfg.OpenTracker(telemetry.Multi(sinks...), logger)

	notices, _ := s.tracker.Subscribe(noticeBuffer)
	go s.collect(notices)

	if cfg.Mirror {
		client, err := charm.Open()
		if err != nil {
			logger.Warn("mirror unavailable", "error", err)
		} else {
			s.client = client
			s.mirror = charm.NewMirror(client, s.tracker.Docs(), domains, logger)
			mirrored, _ := s.tracker.Subscribe(noticeBuffer)
			s.mirror.Start(mirrored)
		}
	}

	s.tracker.Load()
	sess = s
	return nil
}

func (s *session) collect(notices <-chan cache.Notice) {
	defer close(s.collected)
	for n := range notices {
		if n.Kind != cache.NoticeAdvisory {
			continue
		}
		s.mu.Lock()
		s.advisories = append(s.advisories, n)
		s.mu.Unlock()
	}
}

func closeSession() error {
	s := sess
	if s == nil {
		return nil
	}
	sess = nil

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.tracker.Close(ctx)
	<-s.collected
	if s.mirror != nil {
		s.mirror.Wait()
	}
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("close journal", "error", err)
		}
	}

	warn := color.New(color.FgYellow)
	for _, n := range s.advisories {
		_, _ = warn.Fprintf(os.Stderr, "⚠ %s\n", n)
	}
	if failed := s.tracker.FailedWrites(); len(failed) > 0 {
		return fmt.Errorf("unsaved changes: %s", strings.Join(failed, ", "))
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides config)")
}
