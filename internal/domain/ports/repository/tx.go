package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// Callers outside a transaction pass NoTX.
type Tx interface{}

// NoTX marks repository calls that should run on the shared pool.
var NoTX Tx = nil

// TransactionManager runs a function inside a database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TransactionManager interface {
	WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
