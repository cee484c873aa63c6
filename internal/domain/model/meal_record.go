package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"foodie/internal/domain/failure"
)

const (
	MinCalories    = 1
	MaxCalories    = 5000
	MaxDescription = 200
)

// NutritionResult is the value produced by the vision analyzer.
// It must pass Validate before it may be persisted.
type NutritionResult struct {
	Calories    int    `json:"calories"`
	Description string `json:"description"`
}

func (n NutritionResult) Validate() error {
	if n.Calories < MinCalories || n.Calories > MaxCalories {
		return &failure.ValidationError{
			Field:  "calories",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinCalories, MaxCalories, n.Calories),
		}
	}
	// Character bound, not bytes: descriptions may be non-ASCII.
	if l := utf8.RuneCountInString(n.Description); l < 1 || l > MaxDescription {
		return &failure.ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("must be between 1 and %d characters, got %d", MaxDescription, l),
		}
	}
	return nil
}

// MealRecord is the persisted nutrition entry, the service-of-record row
// a successful analysis produces.
type MealRecord struct {
	ID          string    `json:"id"`
	Calories    int       `json:"calories"`
	Description string    `json:"description"`
	EatenAt     time.Time `json:"eaten_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
