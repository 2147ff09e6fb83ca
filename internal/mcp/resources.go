// ABOUTME: MCP resource implementations for fitlog.
// ABOUTME: Provides fitlog://today, fitlog://window, and fitlog://history resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fitlog/internal/tracker"
)

const (
	uriToday   = "fitlog://today"
	uriWindow  = "fitlog://window"
	uriHistory = "fitlog://history"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriToday,
		Name:        "Today",
		Description: "Everything logged today with totals against goals",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriWindow,
		Name:        "Recent Days",
		Description: "Per-day totals for today and the trailing days kept in memory",
		MIMEType:    "application/json",
	}, s.handleWindowResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriHistory,
		Name:        "Workout History",
		Description: "Finished workouts, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	day := s.today()
	t := s.tracker

	result := map[string]interface{}{
		"date":      day.String(),
		"meals":     t.Nutrition.Day(day).Entries,
		"workouts":  t.Workouts.Day(day).Entries,
		"recovery":  t.Recovery.Day(day).Entries,
		"nutrition": t.Nutrition.Totals(day),
		"training":  t.Workouts.Totals(day),
		"sleep":     t.Recovery.Totals(day),
	}
	if active, ok := t.Workouts.ActiveWorkout(); ok {
		result["active_workout"] = active
	}
	return jsonResource(uriToday, result)
}

func (s *Server) handleWindowResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	type dayRow struct {
		Date      string  `json:"date"`
		Kcal      float64 `json:"kcal"`
		Minutes   int     `json:"workout_minutes"`
		Sleep     float64 `json:"sleep_hours"`
		MealCount int     `json:"meals"`
	}

	var rows []dayRow
	for _, b := range s.tracker.Nutrition.Window() {
		n := tracker.NutritionTotals(b)
		rows = append(rows, dayRow{
			Date:      b.Date.String(),
			Kcal:      n.Kcal,
			MealCount: n.Entries,
			Minutes:   s.tracker.Workouts.Totals(b.Date).Minutes,
			Sleep:     s.tracker.Recovery.Totals(b.Date).SleepHours,
		})
	}
	return jsonResource(uriWindow, map[string]interface{}{"days": rows})
}

func (s *Server) handleHistoryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(uriHistory, map[string]interface{}{
		"workouts": s.tracker.Workouts.History(0),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
