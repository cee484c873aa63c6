package adapter

import (
	"context"

	"foodie/internal/domain/model"
)

// VisionAnalyzer is the port for the AI vision service that estimates
// nutrition from a meal photo.
//
// Implementations must surface failures as the typed signals in
// internal/domain/failure (StatusError for non-2xx responses, ParseError
// for malformed bodies) or return the transport error unwrapped, so the
// classifier sees the raw signal. The returned result is NOT validated;
// the caller runs Validate before persisting.
type VisionAnalyzer interface {
	AnalyzeMealPhoto(ctx context.Context, image []byte, mime string) (*model.NutritionResult, error)
}
