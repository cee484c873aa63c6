// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"foodie/internal/domain"
	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/repository"
)

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.CaptureJob
	saveErr error // used by tests to simulate save failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.CaptureJob)}
}

func (m *memJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.CaptureJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CaptureJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FetchDueAndMarkProcessing(ctx context.Context, now time.Time) (*model.CaptureJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*model.CaptureJob
	for _, j := range m.store {
		if j.Status == model.CaptureJobStatusPending && !j.NextAttemptAt.After(now) {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(due, func(i, k int) bool { return due[i].NextAttemptAt.Before(due[k].NextAttemptAt) })
	due[0].Status = model.CaptureJobStatusProcessing
	cp := *due[0]
	return &cp, nil
}

func (m *memJobRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.CaptureJobStatus, limit int) ([]*model.CaptureJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CaptureJob
	for _, j := range m.store {
		if j.Status == status {
			cp := *j
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CaptureJobStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[model.CaptureJobStatus]int)
	for _, j := range m.store {
		counts[j.Status]++
	}
	return counts, nil
}

// memMealRepo stores meal records in memory. Setting permissionDenied
// makes every write surface a PermissionError, like a store whose access
// grant was revoked.
type memMealRepo struct {
	mu               sync.RWMutex
	store            map[string]*model.MealRecord
	seq              int
	saveErr          error
	permissionDenied bool
}

func newMemMealRepo() *memMealRepo {
	return &memMealRepo{store: make(map[string]*model.MealRecord)}
}

func (m *memMealRepo) Save(ctx context.Context, tx repository.Tx, rec *model.MealRecord) error {
	if m.permissionDenied {
		return &failure.PermissionError{Op: "save meal record"}
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		m.seq++
		rec.ID = "rec-" + strconv.Itoa(m.seq)
	}
	cp := *rec
	m.store[rec.ID] = &cp
	return nil
}

func (m *memMealRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memMealRepo) ListBetween(ctx context.Context, tx repository.Tx, from, to time.Time, limit int) ([]*model.MealRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.MealRecord
	for _, r := range m.store {
		if !r.EatenAt.Before(from) && r.EatenAt.Before(to) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].EatenAt.After(out[k].EatenAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memMealRepo) Update(ctx context.Context, tx repository.Tx, rec *model.MealRecord) error {
	if m.permissionDenied {
		return &failure.PermissionError{Op: "update meal record"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[rec.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *rec
	m.store[rec.ID] = &cp
	return nil
}

func (m *memMealRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// memArtifacts keeps artifacts in a map keyed by artifact key.
type memArtifacts struct {
	mu      sync.RWMutex
	blobs   map[string]memBlob
	saveErr error
	loadErr error
}

type memBlob struct {
	data     []byte
	mime     string
	storedAt time.Time
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{blobs: make(map[string]memBlob)}
}

func (m *memArtifacts) Save(ctx context.Context, key string, data []byte, mime string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = memBlob{data: data, mime: mime, storedAt: time.Now()}
	return nil
}

func (m *memArtifacts) Load(ctx context.Context, key string) ([]byte, string, error) {
	if m.loadErr != nil {
		return nil, "", m.loadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, "", domain.ErrArtifactMissing
	}
	return b.data, b.mime, nil
}

func (m *memArtifacts) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memArtifacts) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memArtifacts) SweepOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for key, b := range m.blobs {
		if b.storedAt.Before(cutoff) {
			delete(m.blobs, key)
			removed = append(removed, key)
		}
	}
	return removed, nil
}

func (m *memArtifacts) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// fakeVision returns a scripted result or error and counts calls.
type fakeVision struct {
	mu     sync.Mutex
	result *model.NutritionResult
	err    error
	calls  int
}

func (f *fakeVision) AnalyzeMealPhoto(ctx context.Context, image []byte, mime string) (*model.NutritionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.result
	return &cp, nil
}

func (f *fakeVision) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// nopTxManager runs the function directly with a nil tx handle.
type nopTxManager struct{}

func (nopTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}
