package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"foodie/internal/domain"
	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
	"foodie/internal/domain/ports/repository"
	"foodie/internal/domain/ports/storage"
	"foodie/internal/infra/metrics"
)

// AttemptOutcome is the verdict of a single analysis attempt. The use case
// computes it purely from the classifier's output; the worker applies the
// side effects (job save, artifact deletion, notification).
type AttemptOutcome struct {
	Status model.CaptureJobStatus
	Class  failure.Classification
	// RetryDelay is the backoff before the next attempt; only meaningful
	// when Status is pending.
	RetryDelay time.Duration
	// Record is the persisted entry on success.
	Record *model.MealRecord
	// DeleteArtifact tells the worker to remove the photo. True for
	// succeeded (record is durable) and failed_permanent (retrying cannot
	// help); false for failed_exhausted, which keeps the photo for a
	// manual retry.
	DeleteArtifact bool
}

type AnalysisUseCase interface {
	// RunAttempt executes exactly one attempt for a claimed job. It never
	// returns an error: every failure is folded into the outcome through
	// the classifier.
	RunAttempt(ctx context.Context, job *model.CaptureJob) AttemptOutcome
}

type analysisUseCase struct {
	records     repository.MealRecordRepository
	artifacts   storage.ArtifactStore
	vision      adapter.VisionAnalyzer
	tm          repository.TransactionManager
	provider    string
	readTimeout time.Duration
	backoffUnit time.Duration
	log         *zerolog.Logger
}

func NewAnalysisUseCase(
	records repository.MealRecordRepository,
	artifacts storage.ArtifactStore,
	vision adapter.VisionAnalyzer,
	tm repository.TransactionManager,
	provider string,
	readTimeout time.Duration,
	backoffUnit time.Duration,
	logger *zerolog.Logger,
) AnalysisUseCase {
	l := logger.With().Str("component", "AnalysisUC").Logger()
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	if backoffUnit <= 0 {
		backoffUnit = time.Second
	}
	return &analysisUseCase{
		records:     records,
		artifacts:   artifacts,
		vision:      vision,
		tm:          tm,
		provider:    provider,
		readTimeout: readTimeout,
		backoffUnit: backoffUnit,
		log:         &l,
	}
}

func (uc *analysisUseCase) RunAttempt(ctx context.Context, job *model.CaptureJob) AttemptOutcome {
	// A swept artifact short-circuits the job without any network call.
	exists, err := uc.artifacts.Exists(ctx, job.PhotoKey)
	if err == nil && !exists {
		uc.log.Warn().Str("job_id", job.ID).Msg("artifact gone before attempt; exhausting job")
		return artifactMissingOutcome()
	}

	image, mime, err := uc.artifacts.Load(ctx, job.PhotoKey)
	if err != nil {
		// The sweep may remove the artifact between the check and the
		// read; that is still the short-circuit, not an unknown failure.
		if errors.Is(err, domain.ErrArtifactMissing) {
			uc.log.Warn().Str("job_id", job.ID).Msg("artifact gone before attempt; exhausting job")
			return artifactMissingOutcome()
		}
		return uc.failureOutcome(job, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.readTimeout)
	defer cancel()

	start := time.Now()
	result, err := uc.vision.AnalyzeMealPhoto(callCtx, image, mime)
	latency := time.Since(start)
	metrics.ObserveVisionCall(uc.provider, int(latency/time.Millisecond), err == nil)
	if err != nil {
		return uc.failureOutcome(job, err)
	}

	if err := result.Validate(); err != nil {
		return uc.failureOutcome(job, err)
	}

	record := &model.MealRecord{
		Calories:    result.Calories,
		Description: result.Description,
		EatenAt:     job.CapturedAt,
	}
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return uc.records.Save(ctx, tx, record)
	})
	if err != nil {
		return uc.failureOutcome(job, err)
	}

	metrics.ObserveCalories(record.Calories)
	return AttemptOutcome{
		Status:         model.CaptureJobStatusSucceeded,
		Record:         record,
		DeleteArtifact: true,
	}
}

func artifactMissingOutcome() AttemptOutcome {
	return AttemptOutcome{
		Status: model.CaptureJobStatusFailedExhausted,
		Class: failure.Classification{
			Kind:       failure.KindUnknown,
			Retryable:  false,
			MessageKey: "analysis.artifact_missing",
		},
	}
}

// failureOutcome turns a raw failure signal into a transition, using only
// the classification table and the attempt bound.
func (uc *analysisUseCase) failureOutcome(job *model.CaptureJob, err error) AttemptOutcome {
	class := failure.Classify(err)
	uc.log.Debug().
		Str("job_id", job.ID).
		Str("error_kind", string(class.Kind)).
		Int("attempt", job.Attempts).
		Err(err).
		Msg("attempt failed")

	if class.Kind == failure.KindUnknown {
		uc.log.Error().Str("job_id", job.ID).Err(err).Msg("unclassified failure")
	}

	switch {
	case failure.ShouldRetry(class, job.Attempts):
		return AttemptOutcome{
			Status:     model.CaptureJobStatusPending,
			Class:      class,
			RetryDelay: failure.Backoff(job.Attempts, uc.backoffUnit),
		}
	case class.Retryable:
		// Retryable in principle, but the attempt bound is spent. Keep the
		// photo so a manual retry can still succeed.
		return AttemptOutcome{
			Status: model.CaptureJobStatusFailedExhausted,
			Class:  class,
		}
	default:
		return AttemptOutcome{
			Status:         model.CaptureJobStatusFailedPermanent,
			Class:          class,
			DeleteArtifact: true,
		}
	}
}
