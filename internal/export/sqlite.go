// ABOUTME: SQLite snapshot export using modernc.org/sqlite (pure Go, no CGO required).
// ABOUTME: Writes one relational row per record plus per-day goals into a fresh database file.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS meals (
	id TEXT PRIMARY KEY,
	day TEXT NOT NULL,
	name TEXT NOT NULL,
	meal TEXT NOT NULL,
	kcal REAL NOT NULL,
	protein_g REAL NOT NULL,
	carbs_g REAL NOT NULL,
	fat_g REAL NOT NULL,
	notes TEXT,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS workouts (
	id TEXT PRIMARY KEY,
	day TEXT NOT NULL,
	workout_type TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	duration_minutes INTEGER NOT NULL,
	volume_kg REAL NOT NULL,
	notes TEXT,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS workout_sets (
	workout_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	exercise TEXT NOT NULL,
	reps INTEGER NOT NULL,
	weight_kg REAL NOT NULL,
	completed_at DATETIME,
	PRIMARY KEY (workout_id, position),
	FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS recovery (
	id TEXT PRIMARY KEY,
	day TEXT NOT NULL,
	sleep_hours REAL NOT NULL,
	soreness INTEGER NOT NULL,
	resting_hr INTEGER,
	hrv_ms REAL,
	notes TEXT,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS workout_history (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	workout_type TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	duration_minutes INTEGER NOT NULL,
	sets INTEGER NOT NULL,
	volume_kg REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS goals (
	day TEXT NOT NULL,
	domain TEXT NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (day, domain, name)
);

CREATE INDEX IF NOT EXISTS idx_meals_day ON meals(day);
CREATE INDEX IF NOT EXISTS idx_workouts_day ON workouts(day);
CREATE INDEX IF NOT EXISTS idx_recovery_day ON recovery(day);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
}

// OpenSQLite creates the export database at dbPath, replacing any previous file, and applies the schema.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove previous export: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := os.Chmod(dbPath, 0600); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}
	return db, nil
}

// SQLite writes d to a new database at dbPath in a single transaction.
func (d *Data) SQLite(ctx context.Context, dbPath string) error {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := d.insertAll(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

func (d *Data) insertAll(ctx context.Context, tx *sql.Tx) error {
	goal := func(day, domain, name string, value float64) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO goals (day, domain, name, value) VALUES (?, ?, ?, ?)`,
			day, domain, name, value)
		if err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
		return nil
	}

	for _, b := range d.Nutrition {
		day := b.Date.String()
		for name, v := range map[string]float64{
			"kcal":      b.Config.Kcal,
			"protein_g": b.Config.ProteinG,
			"carbs_g":   b.Config.CarbsG,
			"fat_g":     b.Config.FatG,
		} {
			if err := goal(day, "nutrition", name, v); err != nil {
				return err
			}
		}
		for _, m := range b.Entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO meals (id, day, name, meal, kcal, protein_g, carbs_g, fat_g, notes, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				m.ID.String(), day, m.Name, string(m.Meal), m.Kcal, m.ProteinG, m.CarbsG, m.FatG,
				nullString(m.Notes), m.CreatedAt.Format(time.RFC3339Nano))
			if err != nil {
				return fmt.Errorf("insert meal: %w", err)
			}
		}
	}

	for _, b := range d.Workouts {
		day := b.Date.String()
		if err := goal(day, "workouts", "target_minutes", float64(b.Config.TargetMinutes)); err != nil {
			return err
		}
		for _, w := range b.Entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO workouts (id, day, workout_type, started_at, duration_minutes, volume_kg, notes, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				w.ID.String(), day, w.WorkoutType, w.StartedAt.Format(time.RFC3339Nano), w.DurationMinutes,
				w.VolumeKg(), nullString(w.Notes), w.CreatedAt.Format(time.RFC3339Nano))
			if err != nil {
				return fmt.Errorf("insert workout: %w", err)
			}
			for i, s := range w.Sets {
				var completed any
				if !s.CompletedAt.IsZero() {
					completed = s.CompletedAt.Format(time.RFC3339Nano)
				}
				_, err := tx.ExecContext(ctx,
					`INSERT INTO workout_sets (workout_id, position, exercise, reps, weight_kg, completed_at)
					 VALUES (?, ?, ?, ?, ?, ?)`,
					w.ID.String(), i, s.Exercise, s.Reps, s.WeightKg, completed)
				if err != nil {
					return fmt.Errorf("insert workout set: %w", err)
				}
			}
		}
	}

	for _, b := range d.Recovery {
		day := b.Date.String()
		if err := goal(day, "recovery", "sleep_hours", b.Config.SleepHours); err != nil {
			return err
		}
		for _, r := range b.Entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO recovery (id, day, sleep_hours, soreness, resting_hr, hrv_ms, notes, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID.String(), day, r.SleepHours, r.Soreness, nullInt(r.RestingHR), nullFloat(r.HRVMs),
				nullString(r.Notes), r.CreatedAt.Format(time.RFC3339Nano))
			if err != nil {
				return fmt.Errorf("insert recovery: %w", err)
			}
		}
	}

	for i, s := range d.History {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO workout_history (id, position, workout_type, started_at, finished_at, duration_minutes, sets, volume_kg)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID.String(), i, s.WorkoutType, s.StartedAt.Format(time.RFC3339Nano), s.FinishedAt.Format(time.RFC3339Nano),
			s.DurationMinutes, s.Sets, s.VolumeKg)
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}
