// ABOUTME: MealEntry model and nutrition goal/totals for the nutrition log.
// ABOUTME: One MealEntry is a single logged food item with calories and macros.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MealType groups entries within a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// AllMealTypes lists the valid meal types in display order.
var AllMealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// IsValidMealType checks if a string is a valid meal type.
func IsValidMealType(s string) bool {
	for _, mt := range AllMealTypes {
		if string(mt) == s {
			return true
		}
	}
	return false
}

// MealEntry represents one logged food item.
type MealEntry struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Name      string    `json:"name" yaml:"name"`
	Meal      MealType  `json:"meal" yaml:"meal"`
	Kcal      float64   `json:"kcal" yaml:"kcal"`
	ProteinG  float64   `json:"protein_g" yaml:"protein_g"`
	CarbsG    float64   `json:"carbs_g" yaml:"carbs_g"`
	FatG      float64   `json:"fat_g" yaml:"fat_g"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewMealEntry creates a MealEntry with a generated UUID and current timestamp.
func NewMealEntry(name string, kcal float64) *MealEntry {
	return &MealEntry{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Name:      name,
		Meal:      MealSnack,
		Kcal:      kcal,
	}
}

// RecordID returns the entry's identifier.
func (m MealEntry) RecordID() uuid.UUID {
	return m.ID
}

// WithMeal sets the meal type.
func (m *MealEntry) WithMeal(meal MealType) *MealEntry {
	m.Meal = meal
	return m
}

// WithMacros sets protein, carbs, and fat in grams.
func (m *MealEntry) WithMacros(protein, carbs, fat float64) *MealEntry {
	m.ProteinG = protein
	m.CarbsG = carbs
	m.FatG = fat
	return m
}

// WithNotes sets notes on the entry.
func (m *MealEntry) WithNotes(notes string) *MealEntry {
	m.Notes = notes
	return m
}

// WithCreatedAt sets a custom creation timestamp.
func (m *MealEntry) WithCreatedAt(t time.Time) *MealEntry {
	m.CreatedAt = t.UTC()
	return m
}

// NutritionGoal is the day-scoped nutrition target.
type NutritionGoal struct {
	Kcal     float64 `json:"kcal" yaml:"kcal"`
	ProteinG float64 `json:"protein_g" yaml:"protein_g"`
	CarbsG   float64 `json:"carbs_g" yaml:"carbs_g"`
	FatG     float64 `json:"fat_g" yaml:"fat_g"`
}

// DefaultNutritionGoal returns the goal used for days with no stored goal.
func DefaultNutritionGoal() NutritionGoal {
	return NutritionGoal{Kcal: 2000, ProteinG: 150, CarbsG: 250, FatG: 70}
}

// NutritionTotals aggregates one day of meal entries.
type NutritionTotals struct {
	Day           Day           `json:"day" yaml:"day"`
	Entries       int           `json:"entries" yaml:"entries"`
	Kcal          float64       `json:"kcal" yaml:"kcal"`
	ProteinG      float64       `json:"protein_g" yaml:"protein_g"`
	CarbsG        float64       `json:"carbs_g" yaml:"carbs_g"`
	FatG          float64       `json:"fat_g" yaml:"fat_g"`
	Goal          NutritionGoal `json:"goal" yaml:"goal"`
	RemainingKcal float64       `json:"remaining_kcal" yaml:"remaining_kcal"`
}
