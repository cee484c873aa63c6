package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager provides a thin abstraction to execute a function
// within a database transaction, passing the underlying handle via `tx`.
// Keeps use-case interfaces clean: the concrete type of `tx` is
// infra-defined (pgx.Tx for Postgres) and repositories must gracefully
// accept nil (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
