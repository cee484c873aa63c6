// File: internal/infra/sched/retention_sweeper_test.go
package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"foodie/internal/domain"
	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/repository"
)

type stubJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.CaptureJob
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: make(map[string]*model.CaptureJob)}
}

func (m *stubJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.CaptureJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *stubJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CaptureJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *stubJobRepo) FetchDueAndMarkProcessing(ctx context.Context, now time.Time) (*model.CaptureJob, error) {
	return nil, domain.ErrNotFound
}

func (m *stubJobRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.CaptureJobStatus, limit int) ([]*model.CaptureJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CaptureJob
	for _, j := range m.jobs {
		if j.Status == status {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *stubJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CaptureJobStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.CaptureJobStatus]int)
	for _, j := range m.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

type stubArtifacts struct {
	mu    sync.Mutex
	blobs map[string]time.Time
}

func newStubArtifacts() *stubArtifacts {
	return &stubArtifacts{blobs: make(map[string]time.Time)}
}

func (m *stubArtifacts) put(key string, storedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = storedAt
}

func (m *stubArtifacts) Save(ctx context.Context, key string, data []byte, mime string) error {
	m.put(key, time.Now())
	return nil
}

func (m *stubArtifacts) Load(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return nil, "", domain.ErrArtifactMissing
	}
	return []byte("x"), "image/jpeg", nil
}

func (m *stubArtifacts) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *stubArtifacts) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *stubArtifacts) SweepOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for key, at := range m.blobs {
		if at.Before(cutoff) {
			delete(m.blobs, key)
			removed = append(removed, key)
		}
	}
	return removed, nil
}

type stubNotifier struct {
	mu       sync.Mutex
	failures []string
}

func (n *stubNotifier) NotifySuccess(ctx context.Context, job *model.CaptureJob, record *model.MealRecord) error {
	return nil
}

func (n *stubNotifier) NotifyFailure(ctx context.Context, job *model.CaptureJob, class failure.Classification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, job.ID)
	return nil
}

func testLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestSweepOnceRemovesExpiredArtifacts(t *testing.T) {
	jobs := newStubJobRepo()
	artifacts := newStubArtifacts()
	artifacts.put("old.jpg", time.Now().Add(-100*time.Hour))
	artifacts.put("fresh.jpg", time.Now())

	sw := NewRetentionSweeper(time.Hour, 72*time.Hour, artifacts, jobs, nil, testLogger())
	sw.SweepOnce(context.Background())

	if ok, _ := artifacts.Exists(context.Background(), "old.jpg"); ok {
		t.Error("expired artifact must be swept")
	}
	if ok, _ := artifacts.Exists(context.Background(), "fresh.jpg"); !ok {
		t.Error("fresh artifact must survive the sweep")
	}
}

func TestSweepOnceExhaustsOrphanedPendingJobs(t *testing.T) {
	jobs := newStubJobRepo()
	artifacts := newStubArtifacts()
	notifier := &stubNotifier{}

	orphan := &model.CaptureJob{ID: "orphan", Status: model.CaptureJobStatusPending, PhotoKey: "gone.jpg"}
	healthy := &model.CaptureJob{ID: "healthy", Status: model.CaptureJobStatusPending, PhotoKey: "live.jpg"}
	_ = jobs.Save(context.Background(), nil, orphan)
	_ = jobs.Save(context.Background(), nil, healthy)
	artifacts.put("live.jpg", time.Now())

	sw := NewRetentionSweeper(time.Hour, 72*time.Hour, artifacts, jobs, notifier, testLogger())
	sw.SweepOnce(context.Background())

	got, _ := jobs.FindByID(context.Background(), nil, "orphan")
	if got.Status != model.CaptureJobStatusFailedExhausted {
		t.Fatalf("orphan status = %s, want failed_exhausted", got.Status)
	}
	if got.LastError != "analysis.artifact_missing" {
		t.Errorf("lastError = %q", got.LastError)
	}
	kept, _ := jobs.FindByID(context.Background(), nil, "healthy")
	if kept.Status != model.CaptureJobStatusPending {
		t.Errorf("healthy status = %s, want pending", kept.Status)
	}
	if len(notifier.failures) != 1 || notifier.failures[0] != "orphan" {
		t.Errorf("failure notifications = %v, want exactly [orphan]", notifier.failures)
	}
}

func TestSweepOnceRecoversStaleClaims(t *testing.T) {
	jobs := newStubJobRepo()
	artifacts := newStubArtifacts()

	stale := &model.CaptureJob{
		ID:        "stale",
		Status:    model.CaptureJobStatusProcessing,
		PhotoKey:  "stale.jpg",
		Attempts:  1,
		UpdatedAt: time.Now().Add(-10 * time.Minute),
	}
	fresh := &model.CaptureJob{
		ID:        "fresh",
		Status:    model.CaptureJobStatusProcessing,
		PhotoKey:  "fresh.jpg",
		UpdatedAt: time.Now(),
	}
	_ = jobs.Save(context.Background(), nil, stale)
	_ = jobs.Save(context.Background(), nil, fresh)
	artifacts.put("stale.jpg", time.Now())
	artifacts.put("fresh.jpg", time.Now())

	sw := NewRetentionSweeper(time.Hour, 72*time.Hour, artifacts, jobs, nil, testLogger())
	sw.SweepOnce(context.Background())

	rearmed, _ := jobs.FindByID(context.Background(), nil, "stale")
	if rearmed.Status != model.CaptureJobStatusPending {
		t.Fatalf("stale status = %s, want pending", rearmed.Status)
	}
	if rearmed.NextAttemptAt.After(time.Now()) {
		t.Errorf("re-armed job must be due immediately, got %v", rearmed.NextAttemptAt)
	}
	if rearmed.Attempts != 1 {
		t.Errorf("attempts = %d, want the count preserved", rearmed.Attempts)
	}
	kept, _ := jobs.FindByID(context.Background(), nil, "fresh")
	if kept.Status != model.CaptureJobStatusProcessing {
		t.Errorf("fresh status = %s, want processing left alone", kept.Status)
	}
}

func TestSweepOnceIsIdempotentForOrphans(t *testing.T) {
	jobs := newStubJobRepo()
	artifacts := newStubArtifacts()
	notifier := &stubNotifier{}
	_ = jobs.Save(context.Background(), nil, &model.CaptureJob{
		ID: "orphan", Status: model.CaptureJobStatusPending, PhotoKey: "gone.jpg",
	})

	sw := NewRetentionSweeper(time.Hour, 72*time.Hour, artifacts, jobs, notifier, testLogger())
	sw.SweepOnce(context.Background())
	sw.SweepOnce(context.Background())

	if len(notifier.failures) != 1 {
		t.Errorf("notifications = %d, want 1; an exhausted job must not re-notify", len(notifier.failures))
	}
}
