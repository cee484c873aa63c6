// File: internal/usecase/capture_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodie/internal/domain"
	"foodie/internal/domain/model"
)

func captureFixture() (CaptureUseCase, *memJobRepo, *memArtifacts) {
	jobs := newMemJobRepo()
	artifacts := newMemArtifacts()
	uc := NewCaptureUseCase(jobs, artifacts, nil, 10, newLogger())
	return uc, jobs, artifacts
}

func TestEnqueueCreatesPendingJobAndArtifact(t *testing.T) {
	uc, jobs, artifacts := captureFixture()
	capturedAt := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	job, err := uc.Enqueue(context.Background(), []byte("jpeg-bytes"), "image/jpeg", capturedAt)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if job.Status != model.CaptureJobStatusPending {
		t.Errorf("status = %s, want pending", job.Status)
	}
	if job.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", job.Attempts)
	}
	if job.NextAttemptAt.After(time.Now()) {
		t.Error("first attempt must be due immediately")
	}
	if !job.CapturedAt.Equal(capturedAt) {
		t.Errorf("capturedAt = %v", job.CapturedAt)
	}

	stored, err := jobs.FindByID(context.Background(), nil, job.ID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	exists, _ := artifacts.Exists(context.Background(), stored.PhotoKey)
	if !exists {
		t.Error("artifact must exist for a pending job")
	}
}

func TestEnqueueRejectsEmptyPhoto(t *testing.T) {
	uc, _, _ := captureFixture()
	if _, err := uc.Enqueue(context.Background(), nil, "image/jpeg", time.Time{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestEnqueueDefaultsCapturedAt(t *testing.T) {
	uc, _, _ := captureFixture()
	before := time.Now()
	job, err := uc.Enqueue(context.Background(), []byte("x"), "image/jpeg", time.Time{})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.CapturedAt.Before(before) || job.CapturedAt.After(time.Now()) {
		t.Errorf("capturedAt = %v, want roughly now", job.CapturedAt)
	}
}

func TestEnqueueRollsBackArtifactOnSaveFailure(t *testing.T) {
	uc, jobs, artifacts := captureFixture()
	jobs.saveErr = errors.New("db down")

	if _, err := uc.Enqueue(context.Background(), []byte("x"), "image/jpeg", time.Time{}); err == nil {
		t.Fatal("want error when job save fails")
	}
	if artifacts.count() != 0 {
		t.Error("artifact must be rolled back when the job row cannot be written")
	}
}

func TestRetryExhaustedReArmsJob(t *testing.T) {
	uc, jobs, artifacts := captureFixture()
	job := &model.CaptureJob{
		ID:            "job-1",
		Status:        model.CaptureJobStatusFailedExhausted,
		PhotoKey:      "job-1.jpg",
		Attempts:      4,
		LastErrorKind: "server_transient",
		LastError:     "failure.server_transient",
	}
	_ = jobs.Save(context.Background(), nil, job)
	_ = artifacts.Save(context.Background(), job.PhotoKey, []byte("x"), "image/jpeg")

	got, err := uc.RetryExhausted(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.Status != model.CaptureJobStatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.Attempts != 0 {
		t.Errorf("attempts = %d, want reset to 0", got.Attempts)
	}
	if got.LastErrorKind != "" || got.LastError != "" {
		t.Error("manual retry must clear the last error")
	}
}

func TestRetryExhaustedRejectsOtherStatuses(t *testing.T) {
	uc, jobs, artifacts := captureFixture()
	for _, status := range []model.CaptureJobStatus{
		model.CaptureJobStatusPending,
		model.CaptureJobStatusProcessing,
		model.CaptureJobStatusSucceeded,
		model.CaptureJobStatusFailedPermanent,
	} {
		job := &model.CaptureJob{ID: "job-" + string(status), Status: status, PhotoKey: "k.jpg"}
		_ = jobs.Save(context.Background(), nil, job)
		_ = artifacts.Save(context.Background(), "k.jpg", []byte("x"), "image/jpeg")

		if _, err := uc.RetryExhausted(context.Background(), job.ID); !errors.Is(err, domain.ErrJobNotRetryable) {
			t.Errorf("status %s: err = %v, want ErrJobNotRetryable", status, err)
		}
	}
}

func TestRetryExhaustedRequiresArtifact(t *testing.T) {
	uc, jobs, _ := captureFixture()
	job := &model.CaptureJob{ID: "job-1", Status: model.CaptureJobStatusFailedExhausted, PhotoKey: "gone.jpg"}
	_ = jobs.Save(context.Background(), nil, job)

	if _, err := uc.RetryExhausted(context.Background(), "job-1"); !errors.Is(err, domain.ErrArtifactMissing) {
		t.Fatalf("err = %v, want ErrArtifactMissing", err)
	}
}

func TestMealLogUpdateValidatesBounds(t *testing.T) {
	meals := newMemMealRepo()
	rec := &model.MealRecord{Calories: 400, Description: "Soup", EatenAt: time.Now()}
	_ = meals.Save(context.Background(), nil, rec)
	uc := NewMealLogUseCase(meals, newLogger())

	if _, err := uc.Update(context.Background(), rec.ID, 0, "Soup", time.Time{}); err == nil {
		t.Fatal("want validation error for zero calories")
	}
	got, err := uc.Update(context.Background(), rec.ID, 450, "Thick soup", time.Time{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Calories != 450 || got.Description != "Thick soup" {
		t.Errorf("updated = %+v", got)
	}
	if got.EatenAt.IsZero() {
		t.Error("zero eatenAt must keep the original timestamp")
	}
}
