package ai

import (
	"context"
	"time"

	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
)

var _ adapter.VisionAnalyzer = (*NoopVision)(nil)

// NoopVision implements adapter.VisionAnalyzer for local/dev testing.
// It returns a fixed plausible estimate instead of calling a real model.
type NoopVision struct{}

func NewNoopVision() *NoopVision {
	return &NoopVision{}
}

func (a *NoopVision) AnalyzeMealPhoto(ctx context.Context, image []byte, mime string) (*model.NutritionResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &model.NutritionResult{
		Calories:    420,
		Description: "A plate of food (dev-mode estimate).",
	}, nil
}
