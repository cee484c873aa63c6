package repository

import (
	"context"
	"time"

	"foodie/internal/domain/model"
)

type CaptureJobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.CaptureJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CaptureJob, error)
	// FetchDueAndMarkProcessing atomically claims the oldest pending job
	// whose next_attempt_at is due and marks it 'processing', so no other
	// worker picks up the same job.
	FetchDueAndMarkProcessing(ctx context.Context, now time.Time) (*model.CaptureJob, error)
	// ListByStatus returns jobs in the given status, oldest first.
	ListByStatus(ctx context.Context, tx Tx, status model.CaptureJobStatus, limit int) ([]*model.CaptureJob, error)
	// CountByStatus reports queue depth per status for metrics.
	CountByStatus(ctx context.Context, tx Tx) (map[model.CaptureJobStatus]int, error)
}
