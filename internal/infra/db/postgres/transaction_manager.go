package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/ports/repository"
)

// executor is the query surface shared by the pool, a pooled connection
// and a transaction.
type executor interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// getExecutor resolves the repository Tx handle to something that can run
// queries. NoTX falls back to the shared pool.
func getExecutor(pool *pgxpool.Pool, tx repository.Tx) (executor, error) {
	switch v := tx.(type) {
	case nil:
		return pool, nil
	case pgx.Tx:
		return v, nil
	case *pgxpool.Conn:
		return v, nil
	case *pgxpool.Pool:
		return v, nil
	default:
		return nil, domain.ErrInvalidExecContext
	}
}

// mapError folds driver errors into the domain error taxonomy.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
}

type TxManager struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.TransactionManager = (*TxManager)(nil)

func NewTxManager(pool *pgxpool.Pool, logger *zerolog.Logger) *TxManager {
	return &TxManager{
		pool:   pool,
		logger: logger.With().Str("component", "tx_manager").Logger(),
	}
}

// WithTx begins a transaction, runs fn with the handle, and commits when fn
// returns nil. Any error from fn rolls the transaction back untouched.
func (m *TxManager) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrOperationFailed, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.logger.Error().Err(rbErr).Msg("rollback failed")
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrOperationFailed, err)
	}
	return nil
}
