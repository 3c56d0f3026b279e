package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// Concrete type is infra-defined (pgx.Tx for Postgres); repositories must
// gracefully accept nil (non-transactional path).
type Tx interface{}

// TransactionManager executes a function inside one database transaction,
// passing the handle via tx. Keeps use-case interfaces clean: no transaction
// types leak out, and every multi-row mutation in the enrollment orchestrator
// runs under a single commit.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
