package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"foodie/internal/domain"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/repository"
	"foodie/internal/domain/ports/storage"
	"foodie/internal/infra/metrics"
	red "foodie/internal/infra/redis"
	store "foodie/internal/infra/storage"
)

// maxPhotoBytes caps uploads well above any phone camera JPEG.
const maxPhotoBytes = 20 << 20

type CaptureUseCase interface {
	// Enqueue stores the photo artifact and creates the job in pending(0).
	Enqueue(ctx context.Context, photo []byte, mime string, capturedAt time.Time) (*model.CaptureJob, error)
	// RetryExhausted re-arms a failed_exhausted job whose artifact still
	// exists, resetting the attempt counter for a fresh automatic cycle.
	RetryExhausted(ctx context.Context, jobID string) (*model.CaptureJob, error)
	Get(ctx context.Context, jobID string) (*model.CaptureJob, error)
}

type captureUseCase struct {
	jobs      repository.CaptureJobRepository
	artifacts storage.ArtifactStore
	limiter   *red.RateLimiter
	perMinute int
	log       *zerolog.Logger
}

func NewCaptureUseCase(
	jobs repository.CaptureJobRepository,
	artifacts storage.ArtifactStore,
	limiter *red.RateLimiter,
	perMinute int,
	logger *zerolog.Logger,
) CaptureUseCase {
	l := logger.With().Str("component", "CaptureUC").Logger()
	return &captureUseCase{
		jobs:      jobs,
		artifacts: artifacts,
		limiter:   limiter,
		perMinute: perMinute,
		log:       &l,
	}
}

func (uc *captureUseCase) Enqueue(ctx context.Context, photo []byte, mime string, capturedAt time.Time) (*model.CaptureJob, error) {
	if len(photo) == 0 || len(photo) > maxPhotoBytes {
		return nil, domain.ErrInvalidArgument
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	if uc.limiter != nil {
		ok, err := uc.limiter.Allow(ctx, red.CaptureRateKey("owner"), uc.perMinute, time.Minute)
		if err != nil {
			uc.log.Error().Err(err).Msg("rate limiter unavailable; allowing capture")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	id := ulid.Make().String()
	key := id + store.ExtForMIME(mime)
	if err := uc.artifacts.Save(ctx, key, photo, mime); err != nil {
		return nil, err
	}
	metrics.IncArtifactStored()

	now := time.Now()
	job := &model.CaptureJob{
		ID:            id,
		Status:        model.CaptureJobStatusPending,
		PhotoKey:      key,
		PhotoMIME:     mime,
		CapturedAt:    capturedAt,
		Attempts:      0,
		NextAttemptAt: now,
	}
	if err := uc.jobs.Save(ctx, nil, job); err != nil {
		// Roll back the artifact so storage and queue stay consistent.
		_ = uc.artifacts.Delete(ctx, key)
		return nil, err
	}

	uc.log.Info().Str("job_id", job.ID).Time("captured_at", capturedAt).Msg("capture enqueued")
	return job, nil
}

func (uc *captureUseCase) RetryExhausted(ctx context.Context, jobID string) (*model.CaptureJob, error) {
	job, err := uc.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.CaptureJobStatusFailedExhausted {
		return nil, domain.ErrJobNotRetryable
	}

	exists, err := uc.artifacts.Exists(ctx, job.PhotoKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrArtifactMissing
	}

	job.Status = model.CaptureJobStatusPending
	job.Attempts = 0
	job.NextAttemptAt = time.Now()
	job.LastErrorKind = ""
	job.LastError = ""
	if err := uc.jobs.Save(ctx, nil, job); err != nil {
		return nil, err
	}

	uc.log.Info().Str("job_id", job.ID).Msg("manual retry armed")
	return job, nil
}

func (uc *captureUseCase) Get(ctx context.Context, jobID string) (*model.CaptureJob, error) {
	return uc.jobs.FindByID(ctx, nil, jobID)
}
