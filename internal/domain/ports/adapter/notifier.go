package adapter

import (
	"context"

	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
)

// Notifier delivers exactly one user notification per terminal job state.
// No failure is ever silent; success may be a transient note or nothing,
// at the implementation's discretion.
type Notifier interface {
	NotifySuccess(ctx context.Context, job *model.CaptureJob, record *model.MealRecord) error
	NotifyFailure(ctx context.Context, job *model.CaptureJob, class failure.Classification) error
}
