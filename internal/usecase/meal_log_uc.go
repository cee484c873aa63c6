package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/repository"
)

// MealLogUseCase backs the history surface: list, inspect, correct and
// delete persisted meal entries.
type MealLogUseCase interface {
	List(ctx context.Context, from, to time.Time, limit int) ([]*model.MealRecord, error)
	Get(ctx context.Context, id string) (*model.MealRecord, error)
	Update(ctx context.Context, id string, calories int, description string, eatenAt time.Time) (*model.MealRecord, error)
	Delete(ctx context.Context, id string) error
}

type mealLogUseCase struct {
	records repository.MealRecordRepository
	log     *zerolog.Logger
}

func NewMealLogUseCase(records repository.MealRecordRepository, logger *zerolog.Logger) MealLogUseCase {
	l := logger.With().Str("component", "MealLogUC").Logger()
	return &mealLogUseCase{records: records, log: &l}
}

func (uc *mealLogUseCase) List(ctx context.Context, from, to time.Time, limit int) ([]*model.MealRecord, error) {
	if to.IsZero() {
		to = time.Now().Add(24 * time.Hour)
	}
	return uc.records.ListBetween(ctx, nil, from, to, limit)
}

func (uc *mealLogUseCase) Get(ctx context.Context, id string) (*model.MealRecord, error) {
	return uc.records.FindByID(ctx, nil, id)
}

func (uc *mealLogUseCase) Update(ctx context.Context, id string, calories int, description string, eatenAt time.Time) (*model.MealRecord, error) {
	// Manual corrections obey the same bounds as analysis results.
	if err := (model.NutritionResult{Calories: calories, Description: description}).Validate(); err != nil {
		return nil, err
	}

	rec, err := uc.records.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	rec.Calories = calories
	rec.Description = description
	if !eatenAt.IsZero() {
		rec.EatenAt = eatenAt
	}
	if err := uc.records.Update(ctx, nil, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (uc *mealLogUseCase) Delete(ctx context.Context, id string) error {
	err := uc.records.Delete(ctx, nil, id)
	if err == nil {
		uc.log.Info().Str("record_id", id).Msg("meal record deleted")
	}
	return err
}
