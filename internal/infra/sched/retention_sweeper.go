package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
	"foodie/internal/domain/ports/repository"
	"foodie/internal/domain/ports/storage"
	"foodie/internal/infra/metrics"
)

// staleClaimAge bounds how long a 'processing' claim may go without a
// save before its worker is presumed dead. It comfortably exceeds the
// per-attempt lock TTL and the vision read timeout, so a live attempt
// can never look stale.
const staleClaimAge = 5 * time.Minute

// RetentionSweeper enforces the no-permanent-leak guarantee: artifacts
// older than the retention window are removed regardless of job state,
// pending jobs whose artifact was swept are exhausted so they never hit
// the network again, and processing claims orphaned by a dead worker are
// re-armed.
type RetentionSweeper struct {
	interval  time.Duration
	retention time.Duration
	artifacts storage.ArtifactStore
	jobs      repository.CaptureJobRepository
	notifier  adapter.Notifier
	log       *zerolog.Logger
}

func NewRetentionSweeper(
	interval, retention time.Duration,
	artifacts storage.ArtifactStore,
	jobs repository.CaptureJobRepository,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *RetentionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "RetentionSweeper").Logger()
	return &RetentionSweeper{
		interval:  interval,
		retention: retention,
		artifacts: artifacts,
		jobs:      jobs,
		notifier:  notifier,
		log:       &l,
	}
}

func (w *RetentionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("starting retention sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping retention sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs one sweep cycle. Exported for tests and for a final
// sweep on shutdown.
func (w *RetentionSweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)
	removed, err := w.artifacts.SweepOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("artifact sweep error")
	}
	if len(removed) > 0 {
		metrics.AddArtifactsSwept(len(removed))
		w.log.Info().Int("count", len(removed)).Msg("artifacts swept")
	}

	w.recoverStale(ctx)
	w.exhaustOrphans(ctx)
	w.updateQueueDepth(ctx)
}

// recoverStale puts quiet processing jobs back in the queue, so a worker
// crash between the claim and the outcome save cannot strand a job. The
// re-armed job keeps its attempt count; the next attempt is due at once.
func (w *RetentionSweeper) recoverStale(ctx context.Context) {
	jobs, err := w.jobs.ListByStatus(ctx, nil, model.CaptureJobStatusProcessing, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list processing jobs")
		return
	}
	cutoff := time.Now().Add(-staleClaimAge)
	for _, job := range jobs {
		if job.UpdatedAt.After(cutoff) {
			continue
		}
		job.Status = model.CaptureJobStatusPending
		job.NextAttemptAt = time.Now()
		if err := w.jobs.Save(ctx, nil, job); err != nil {
			w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to re-arm stale job")
			continue
		}
		w.log.Warn().Str("job_id", job.ID).Msg("stale processing claim re-armed")
	}
}

// exhaustOrphans moves pending jobs whose artifact is gone straight to
// failed_exhausted, before any worker wastes a network call on them.
func (w *RetentionSweeper) exhaustOrphans(ctx context.Context) {
	jobs, err := w.jobs.ListByStatus(ctx, nil, model.CaptureJobStatusPending, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list pending jobs")
		return
	}
	for _, job := range jobs {
		exists, err := w.artifacts.Exists(ctx, job.PhotoKey)
		if err != nil || exists {
			continue
		}
		job.Status = model.CaptureJobStatusFailedExhausted
		job.LastErrorKind = string(failure.KindUnknown)
		job.LastError = "analysis.artifact_missing"
		if err := w.jobs.Save(ctx, nil, job); err != nil {
			w.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to exhaust orphaned job")
			continue
		}
		metrics.IncJobTerminal(string(job.Status), job.LastErrorKind)
		if w.notifier != nil {
			_ = w.notifier.NotifyFailure(ctx, job, failure.Classification{
				Kind:       failure.KindUnknown,
				Retryable:  false,
				MessageKey: "analysis.artifact_missing",
			})
		}
		w.log.Warn().Str("job_id", job.ID).Msg("pending job exhausted; artifact swept")
	}
}

func (w *RetentionSweeper) updateQueueDepth(ctx context.Context) {
	counts, err := w.jobs.CountByStatus(ctx, nil)
	if err != nil {
		return
	}
	for _, status := range []model.CaptureJobStatus{
		model.CaptureJobStatusPending,
		model.CaptureJobStatusProcessing,
		model.CaptureJobStatusSucceeded,
		model.CaptureJobStatusFailedPermanent,
		model.CaptureJobStatusFailedExhausted,
	} {
		metrics.SetQueueDepth(string(status), counts[status])
	}
}
