// ABOUTME: Export of the fitlog data directory as JSON, YAML, Markdown, or SQLite.
// ABOUTME: Reads day buckets and history straight from disk; corrupt documents are skipped.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/fitlog/internal/daybucket"
	"github.com/harperreed/fitlog/internal/docstore"
	"github.com/harperreed/fitlog/internal/history"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/tracker"
)

// Version is the export format version.
const Version = "1.0"

// Data is the full export of a data directory.
type Data struct {
	Version    string                  `json:"version" yaml:"version"`
	ExportedAt time.Time               `json:"exported_at" yaml:"exported_at"`
	Tool       string                  `json:"tool" yaml:"tool"`
	Since      *models.Day             `json:"since,omitempty" yaml:"since,omitempty"`
	Nutrition  []tracker.NutritionDay  `json:"nutrition" yaml:"nutrition"`
	Workouts   []tracker.WorkoutDay    `json:"workouts" yaml:"workouts"`
	Recovery   []tracker.RecoveryDay   `json:"recovery" yaml:"recovery"`
	History    []models.WorkoutSummary `json:"workout_history" yaml:"workout_history"`
	// Skipped lists documents that could not be read.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Exporter reads a data directory through a document store.
type Exporter struct {
	docs   *docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns an Exporter over docs.
func New(docs *docstore.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{docs: docs, logger: logger, now: time.Now}
}

// Collect loads every stored day on or after since (all days when since is nil) and the workout history.
func (e *Exporter) Collect(since *models.Day) (*Data, error) {
	data := &Data{
		Version:    Version,
		ExportedAt: e.now(),
		Tool:       "fitlog",
		Since:      since,
	}

	var err error
	data.Nutrition, err = collectDays(e, daybucket.NewStore[models.MealEntry, models.NutritionGoal](e.docs, tracker.DomainNutrition), since, data)
	if err != nil {
		return nil, fmt.Errorf("collect nutrition: %w", err)
	}
	data.Workouts, err = collectDays(e, daybucket.NewStore[models.WorkoutSession, models.WorkoutGoal](e.docs, tracker.DomainWorkouts), since, data)
	if err != nil {
		return nil, fmt.Errorf("collect workouts: %w", err)
	}
	data.Recovery, err = collectDays(e, daybucket.NewStore[models.RecoveryLog, models.RecoveryGoal](e.docs, tracker.DomainRecovery), since, data)
	if err != nil {
		return nil, fmt.Errorf("collect recovery: %w", err)
	}

	log := history.New[models.WorkoutSummary](e.docs, tracker.WorkoutHistoryPath)
	entries, err := log.Load()
	switch {
	case docstore.IsCorruption(err):
		e.logger.Warn("skipping corrupt document", "path", log.Path(), "error", err)
		data.Skipped = append(data.Skipped, log.Path())
		entries = nil
	case err != nil:
		return nil, fmt.Errorf("collect history: %w", err)
	}
	data.History = make([]models.WorkoutSummary, 0, len(entries))
	for _, s := range entries {
		if since != nil && models.DayOf(s.StartedAt.Local()).Before(*since) {
			continue
		}
		data.History = append(data.History, s)
	}
	return data, nil
}

func collectDays[R any, C any](e *Exporter, store *daybucket.Store[R, C], since *models.Day, data *Data) ([]daybucket.Bucket[R, C], error) {
	days, err := store.Days()
	if err != nil {
		return nil, err
	}
	out := make([]daybucket.Bucket[R, C], 0, len(days))
	for _, day := range days {
		if since != nil && day.Before(*since) {
			continue
		}
		b, err := store.Load(day)
		if docstore.IsCorruption(err) {
			e.logger.Warn("skipping corrupt document", "path", store.PathFor(day), "day", day, "error", err)
			data.Skipped = append(data.Skipped, store.PathFor(day))
			continue
		}
		if err != nil {
			return nil, err
		}
		if b != nil {
			out = append(out, *b)
		}
	}
	return out, nil
}

// JSON renders d as indented JSON.
func (d *Data) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML renders d with entries flattened per domain and short IDs.
func (d *Data) YAML() ([]byte, error) {
	out := yamlData{
		Version:    d.Version,
		ExportedAt: d.ExportedAt.Format(time.RFC3339),
		Tool:       d.Tool,
		Skipped:    d.Skipped,
	}
	for _, b := range d.Nutrition {
		for _, m := range b.Entries {
			out.Meals = append(out.Meals, yamlMeal{
				ID:       shortID(m.ID.String()),
				Date:     b.Date.String(),
				Name:     m.Name,
				Meal:     string(m.Meal),
				Kcal:     m.Kcal,
				ProteinG: m.ProteinG,
				CarbsG:   m.CarbsG,
				FatG:     m.FatG,
				Notes:    m.Notes,
			})
		}
	}
	for _, b := range d.Workouts {
		for _, w := range b.Entries {
			yw := yamlWorkout{
				ID:              shortID(w.ID.String()),
				Date:            b.Date.String(),
				Type:            w.WorkoutType,
				StartedAt:       w.StartedAt.Format(time.RFC3339),
				DurationMinutes: w.DurationMinutes,
				VolumeKg:        w.VolumeKg(),
				Notes:           w.Notes,
			}
			for _, s := range w.Sets {
				yw.Sets = append(yw.Sets, yamlSet{Exercise: s.Exercise, Reps: s.Reps, WeightKg: s.WeightKg})
			}
			out.Workouts = append(out.Workouts, yw)
		}
	}
	for _, b := range d.Recovery {
		for _, r := range b.Entries {
			out.Recovery = append(out.Recovery, yamlRecovery{
				ID:         shortID(r.ID.String()),
				Date:       b.Date.String(),
				SleepHours: r.SleepHours,
				Soreness:   r.Soreness,
				RestingHR:  r.RestingHR,
				HRVMs:      r.HRVMs,
				Notes:      r.Notes,
			})
		}
	}
	return yaml.Marshal(out)
}

type yamlData struct {
	Version    string         `yaml:"version"`
	ExportedAt string         `yaml:"exported_at"`
	Tool       string         `yaml:"tool"`
	Meals      []yamlMeal     `yaml:"meals"`
	Workouts   []yamlWorkout  `yaml:"workouts"`
	Recovery   []yamlRecovery `yaml:"recovery"`
	Skipped    []string       `yaml:"skipped,omitempty"`
}

type yamlMeal struct {
	ID       string  `yaml:"id"`
	Date     string  `yaml:"date"`
	Name     string  `yaml:"name"`
	Meal     string  `yaml:"meal"`
	Kcal     float64 `yaml:"kcal"`
	ProteinG float64 `yaml:"protein_g,omitempty"`
	CarbsG   float64 `yaml:"carbs_g,omitempty"`
	FatG     float64 `yaml:"fat_g,omitempty"`
	Notes    string  `yaml:"notes,omitempty"`
}

type yamlWorkout struct {
	ID              string    `yaml:"id"`
	Date            string    `yaml:"date"`
	Type            string    `yaml:"type"`
	StartedAt       string    `yaml:"started_at"`
	DurationMinutes int       `yaml:"duration_minutes,omitempty"`
	VolumeKg        float64   `yaml:"volume_kg,omitempty"`
	Notes           string    `yaml:"notes,omitempty"`
	Sets            []yamlSet `yaml:"sets,omitempty"`
}

type yamlSet struct {
	Exercise string  `yaml:"exercise"`
	Reps     int     `yaml:"reps"`
	WeightKg float64 `yaml:"weight_kg,omitempty"`
}

type yamlRecovery struct {
	ID         string  `yaml:"id"`
	Date       string  `yaml:"date"`
	SleepHours float64 `yaml:"sleep_hours"`
	Soreness   int     `yaml:"soreness"`
	RestingHR  int     `yaml:"resting_hr,omitempty"`
	HRVMs      float64 `yaml:"hrv_ms,omitempty"`
	Notes      string  `yaml:"notes,omitempty"`
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
