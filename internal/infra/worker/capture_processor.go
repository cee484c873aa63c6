package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"foodie/internal/domain"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
	"foodie/internal/domain/ports/repository"
	"foodie/internal/domain/ports/storage"
	"foodie/internal/infra/metrics"
	red "foodie/internal/infra/redis"
	"foodie/internal/usecase"
)

// lockTTL bounds how long an attempt may hold the single-flight lock; it
// comfortably exceeds the vision read timeout.
const lockTTL = 2 * time.Minute

// CaptureJobProcessor drives the retry state machine: it claims due jobs,
// runs one analysis attempt through the use case and applies the outcome
// (state transition, backoff scheduling, artifact cleanup, notification).
type CaptureJobProcessor struct {
	jobs       repository.CaptureJobRepository
	artifacts  storage.ArtifactStore
	analysisUC usecase.AnalysisUseCase
	notifier   adapter.Notifier
	locker     red.Locker
	pollEvery  time.Duration
	log        *zerolog.Logger
}

func NewCaptureJobProcessor(
	jobs repository.CaptureJobRepository,
	artifacts storage.ArtifactStore,
	analysisUC usecase.AnalysisUseCase,
	notifier adapter.Notifier,
	locker red.Locker,
	pollEvery time.Duration,
	logger *zerolog.Logger,
) *CaptureJobProcessor {
	if pollEvery <= 0 {
		pollEvery = 500 * time.Millisecond
	}
	l := logger.With().Str("component", "CaptureJobProcessor").Logger()
	return &CaptureJobProcessor{
		jobs:       jobs,
		artifacts:  artifacts,
		analysisUC: analysisUC,
		notifier:   notifier,
		locker:     locker,
		pollEvery:  pollEvery,
		log:        &l,
	}
}

// Start runs a loop to fetch and process due jobs.
// This should be run in a goroutine.
func (p *CaptureJobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("capture job processor started")
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("capture job processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.ProcessOne(ctx)
				return nil
			})
		}
	}
}

// ProcessOne claims at most one due job and runs a single attempt for it.
func (p *CaptureJobProcessor) ProcessOne(ctx context.Context) {
	job, err := p.jobs.FetchDueAndMarkProcessing(ctx, time.Now())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to fetch capture job")
		}
		return
	}

	// The DB claim is already single-flight; the lock is a second guard
	// against a stale 'processing' row being re-armed while an old
	// attempt is still in flight.
	if p.locker != nil {
		token, err := p.locker.TryLock(ctx, red.JobLockKey(job.ID), lockTTL)
		if err != nil {
			p.log.Warn().Err(err).Str("job_id", job.ID).Msg("job lock unavailable; releasing claim")
			job.Status = model.CaptureJobStatusPending
			_ = p.jobs.Save(context.Background(), nil, job)
			return
		}
		defer func() { _ = p.locker.Unlock(context.Background(), red.JobLockKey(job.ID), token) }()
	}

	p.log.Info().Str("job_id", job.ID).Int("attempt", job.Attempts).Msg("processing capture job")
	start := time.Now()

	outcome := p.analysisUC.RunAttempt(ctx, job)
	p.apply(ctx, job, outcome)

	p.log.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Dur("duration_ms", time.Since(start)).
		Msg("capture job attempt finished")
}

func (p *CaptureJobProcessor) apply(ctx context.Context, job *model.CaptureJob, outcome usecase.AttemptOutcome) {
	now := time.Now()
	job.LastErrorKind = string(outcome.Class.Kind)
	job.LastError = outcome.Class.MessageKey

	switch outcome.Status {
	case model.CaptureJobStatusPending:
		job.Status = model.CaptureJobStatusPending
		job.NextAttemptAt = now.Add(outcome.RetryDelay)
		job.Attempts++
		metrics.IncRetryScheduled(string(outcome.Class.Kind))

	case model.CaptureJobStatusSucceeded:
		job.Status = model.CaptureJobStatusSucceeded
		job.RecordID = outcome.Record.ID
		job.LastErrorKind = ""
		job.LastError = ""

	default:
		job.Status = outcome.Status
	}

	// The record (if any) is already durable; artifact cleanup may happen
	// before the job row update without risking data loss.
	if outcome.DeleteArtifact {
		if err := p.artifacts.Delete(ctx, job.PhotoKey); err != nil {
			p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to delete artifact")
		}
	}

	// Use background context for the final update so a cancelled attempt
	// context cannot lose the transition.
	if err := p.jobs.Save(context.Background(), nil, job); err != nil {
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to save capture job")
	}

	if job.Status.Terminal() {
		metrics.IncJobTerminal(string(job.Status), string(outcome.Class.Kind))
		p.notify(ctx, job, outcome)
	}
}

// notify raises exactly one notification per terminal state.
func (p *CaptureJobProcessor) notify(ctx context.Context, job *model.CaptureJob, outcome usecase.AttemptOutcome) {
	if p.notifier == nil {
		return
	}
	var err error
	if job.Status == model.CaptureJobStatusSucceeded {
		err = p.notifier.NotifySuccess(ctx, job, outcome.Record)
	} else {
		err = p.notifier.NotifyFailure(ctx, job, outcome.Class)
	}
	if err != nil {
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to notify user")
	}
}
