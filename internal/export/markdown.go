// ABOUTME: Markdown rendering of an export: one table per domain plus workout history.
// ABOUTME: Each row carries per-day totals computed with the tracker aggregation helpers.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/fitlog/internal/tracker"
)

// Markdown renders d as Markdown tables.
func (d *Data) Markdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Fitlog Export - %s\n\n", d.ExportedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", d.ExportedAt.Format(time.RFC3339)))
	if d.Since != nil {
		sb.WriteString(fmt.Sprintf("Since: %s\n\n", d.Since))
	}

	if len(d.Nutrition) > 0 {
		sb.WriteString("## Nutrition\n\n")
		sb.WriteString("| Date | Meal | Name | kcal | Protein | Carbs | Fat |\n")
		sb.WriteString("|------|------|------|------|---------|-------|-----|\n")
		for _, b := range d.Nutrition {
			for _, m := range b.Entries {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.0f | %.1f | %.1f | %.1f |\n",
					b.Date, m.Meal, escapeCell(m.Name), m.Kcal, m.ProteinG, m.CarbsG, m.FatG))
			}
			t := tracker.NutritionTotals(b)
			sb.WriteString(fmt.Sprintf("| %s | **total** | %d entries | %.0f / %.0f | %.1f | %.1f | %.1f |\n",
				b.Date, t.Entries, t.Kcal, t.Goal.Kcal, t.ProteinG, t.CarbsG, t.FatG))
		}
		sb.WriteString("\n")
	}

	if len(d.Workouts) > 0 {
		sb.WriteString("## Workouts\n\n")
		sb.WriteString("| Date | Type | Duration | Sets | Volume | Notes |\n")
		sb.WriteString("|------|------|----------|------|--------|-------|\n")
		for _, b := range d.Workouts {
			for _, w := range b.Entries {
				sb.WriteString(fmt.Sprintf("| %s | %s | %d min | %d | %.1f kg | %s |\n",
					b.Date, escapeCell(w.WorkoutType), w.DurationMinutes, len(w.Sets), w.VolumeKg(), escapeCell(w.Notes)))
			}
		}
		sb.WriteString("\n")
	}

	if len(d.Recovery) > 0 {
		sb.WriteString("## Recovery\n\n")
		sb.WriteString("| Date | Sleep | Soreness | Resting HR | HRV | Notes |\n")
		sb.WriteString("|------|-------|----------|------------|-----|-------|\n")
		for _, b := range d.Recovery {
			for _, r := range b.Entries {
				hr := ""
				if r.RestingHR > 0 {
					hr = fmt.Sprintf("%d bpm", r.RestingHR)
				}
				hrv := ""
				if r.HRVMs > 0 {
					hrv = fmt.Sprintf("%.0f ms", r.HRVMs)
				}
				sb.WriteString(fmt.Sprintf("| %s | %.1f h | %d/10 | %s | %s | %s |\n",
					b.Date, r.SleepHours, r.Soreness, hr, hrv, escapeCell(r.Notes)))
			}
		}
		sb.WriteString("\n")
	}

	if len(d.History) > 0 {
		sb.WriteString("## Workout History\n\n")
		sb.WriteString("| Finished | Type | Duration | Sets | Volume |\n")
		sb.WriteString("|----------|------|----------|------|--------|\n")
		for _, s := range d.History {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d min | %d | %.1f kg |\n",
				s.FinishedAt.Local().Format("2006-01-02 15:04"), escapeCell(s.WorkoutType), s.DurationMinutes, s.Sets, s.VolumeKg))
		}
		sb.WriteString("\n")
	}

	if len(d.Skipped) > 0 {
		sb.WriteString("## Skipped\n\n")
		for _, p := range d.Skipped {
			sb.WriteString(fmt.Sprintf("- %s (unreadable)\n", p))
		}
	}

	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
