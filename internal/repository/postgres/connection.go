package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/cutout-server/database"
	"github.com/dtroode/cutout-server/internal/model"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrCheckViolation      = "23514"
	pgErrSerializationFail   = "40001"
	pgErrDeadlockDetected    = "40P01"

	maxConflictRetries = 5
)

type Connection struct {
	*pgxpool.Pool
}

func NewConection(ctx context.Context, dsn string) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := database.Migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{
		Pool: pool,
	}, nil
}

func (s *Connection) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Connection) Ping(ctx context.Context) error {
	if s.Pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	return s.Pool.Ping(ctx)
}

// inTx runs fn in a transaction. Serialization failures, deadlocks and
// errors wrapping model.ErrLedgerConflict restart the whole transaction.
func (s *Connection) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return retryConflicts(ctx, func() error {
		return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, fn)
	})
}

func retryConflicts(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	var lastErr error
	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isConflict(err) {
			lastErr = err
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, maxConflictRetries), ctx))
	if err != nil && isConflict(err) && lastErr != nil {
		return fmt.Errorf("%w: retries exhausted: %v", model.ErrLedgerConflict, lastErr)
	}
	return err
}

func isConflict(err error) bool {
	if errors.Is(err, model.ErrLedgerConflict) {
		return true
	}
	return hasSQLState(err, pgErrSerializationFail) || hasSQLState(err, pgErrDeadlockDetected)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
