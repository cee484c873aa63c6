package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"foodie/internal/domain"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/repository"
)

var _ repository.CaptureJobRepository = (*captureJobRepo)(nil)

type captureJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewCaptureJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *captureJobRepo {
	return &captureJobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, status, photo_key, photo_mime, captured_at, attempts, next_attempt_at,
  last_error_kind, last_error, record_id, created_at, updated_at`

func (r *captureJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.CaptureJob) error {
	now := time.Now()
	if job.ID == "" {
		job.ID = ulid.Make().String()
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	const q = `
INSERT INTO capture_jobs (id, status, photo_key, photo_mime, captured_at, attempts, next_attempt_at,
  last_error_kind, last_error, record_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  attempts = EXCLUDED.attempts,
  next_attempt_at = EXCLUDED.next_attempt_at,
  last_error_kind = EXCLUDED.last_error_kind,
  last_error = EXCLUDED.last_error,
  record_id = EXCLUDED.record_id,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.Status, job.PhotoKey, job.PhotoMIME, job.CapturedAt, job.Attempts, job.NextAttemptAt,
		job.LastErrorKind, job.LastError, nullIfEmpty(job.RecordID), job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *captureJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CaptureJob, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM capture_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// FetchDueAndMarkProcessing atomically claims the oldest due pending job
// and flips it to 'processing' so no other worker picks it up.
func (r *captureJobRepo) FetchDueAndMarkProcessing(ctx context.Context, now time.Time) (*model.CaptureJob, error) {
	var job *model.CaptureJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + jobColumns + `
FROM capture_jobs
WHERE status = 'pending' AND next_attempt_at <= $1
ORDER BY next_attempt_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery, now)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		fetched.Status = model.CaptureJobStatusProcessing
		if err := r.Save(ctx, tx, fetched); err != nil {
			return err
		}
		job = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *captureJobRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.CaptureJobStatus, limit int) ([]*model.CaptureJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM capture_jobs WHERE status = $1 ORDER BY created_at LIMIT $2`,
		status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CaptureJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *captureJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CaptureJobStatus]int, error) {
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT status, COUNT(*) FROM capture_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.CaptureJobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.CaptureJobStatus(status)] = n
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*model.CaptureJob, error) {
	var j model.CaptureJob
	var statusStr string
	var recordID *string
	err := row.Scan(
		&j.ID, &statusStr, &j.PhotoKey, &j.PhotoMIME, &j.CapturedAt, &j.Attempts, &j.NextAttemptAt,
		&j.LastErrorKind, &j.LastError, &recordID, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.CaptureJobStatus(statusStr)
	if recordID != nil {
		j.RecordID = *recordID
	}
	return &j, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
