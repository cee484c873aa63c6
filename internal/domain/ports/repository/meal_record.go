package repository

import (
	"context"
	"time"

	"foodie/internal/domain/model"
)

// MealRecordRepository is the service-of-record for nutrition entries
// (the health-data store of the original app). Implementations translate
// permission denials into *failure.PermissionError so the classifier can
// tell "re-grant access" apart from a transient store hiccup.
type MealRecordRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.MealRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MealRecord, error)
	// ListBetween returns records with EatenAt in [from, to), newest first.
	ListBetween(ctx context.Context, tx Tx, from, to time.Time, limit int) ([]*model.MealRecord, error)
	Update(ctx context.Context, tx Tx, rec *model.MealRecord) error
	Delete(ctx context.Context, tx Tx, id string) error
}
