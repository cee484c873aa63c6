package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"foodie/internal/domain"
	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/repository"
)

var _ repository.MealRecordRepository = (*mealRecordRepo)(nil)

// mealRecordRepo is the service-of-record for nutrition entries.
// Permission denials (SQLSTATE 42501) surface as *failure.PermissionError
// so the classifier can tell revoked access apart from other failures.
type mealRecordRepo struct {
	pool *pgxpool.Pool
}

func NewMealRecordRepo(pool *pgxpool.Pool) *mealRecordRepo {
	return &mealRecordRepo{pool: pool}
}

func (r *mealRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.MealRecord) error {
	now := time.Now()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	const q = `
INSERT INTO meal_records (id, calories, description, eaten_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.Calories, rec.Description, rec.EatenAt, rec.CreatedAt, rec.UpdatedAt)
	return wrapStoreErr("save meal record", err)
}

func (r *mealRecordRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MealRecord, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT id, calories, description, eaten_at, created_at, updated_at
FROM meal_records WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return scanRecord(row)
}

func (r *mealRecordRepo) ListBetween(ctx context.Context, tx repository.Tx, from, to time.Time, limit int) ([]*model.MealRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT id, calories, description, eaten_at, created_at, updated_at
FROM meal_records
WHERE eaten_at >= $1 AND eaten_at < $2
ORDER BY eaten_at DESC
LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MealRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *mealRecordRepo) Update(ctx context.Context, tx repository.Tx, rec *model.MealRecord) error {
	rec.UpdatedAt = time.Now()
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE meal_records SET calories = $2, description = $3, eaten_at = $4, updated_at = $5
WHERE id = $1`,
		rec.ID, rec.Calories, rec.Description, rec.EatenAt, rec.UpdatedAt)
	if err != nil {
		return wrapStoreErr("update meal record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *mealRecordRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM meal_records WHERE id = $1`, id)
	if err != nil {
		return wrapStoreErr("delete meal record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*model.MealRecord, error) {
	var rec model.MealRecord
	err := row.Scan(&rec.ID, &rec.Calories, &rec.Description, &rec.EatenAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &rec, nil
}

func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if insufficientPrivilege(err) {
		return &failure.PermissionError{Op: op, Err: err}
	}
	return err
}
