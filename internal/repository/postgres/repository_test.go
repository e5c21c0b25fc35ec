package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/cutout-server/internal/model"
)

func TestNewRepositories(t *testing.T) {
	db := &Connection{}

	accounts := NewAccountRepository(db)
	assert.NotNil(t, accounts)
	assert.Equal(t, db, accounts.db)

	ledger := NewLedgerRepository(db)
	assert.NotNil(t, ledger)
	assert.Equal(t, db, ledger.db)

	purchases := NewPurchaseRepository(db)
	assert.NotNil(t, purchases)
	assert.Equal(t, db, purchases.db)
}

func TestConnection_NilPool(t *testing.T) {
	db := &Connection{}
	assert.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: pgErrSerializationFail}, want: true},
		{name: "deadlock", err: fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgErrDeadlockDetected}), want: true},
		{name: "ledger conflict sentinel", err: fmt.Errorf("%w: x", model.ErrLedgerConflict), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: pgErrUniqueViolation}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConflict(tt.err))
		})
	}
}

func TestRetryConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls := 0
		err := retryConflicts(ctx, func() error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: pgErrSerializationFail}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		err := retryConflicts(ctx, func() error {
			calls++
			return model.ErrInsufficientCredit
		})
		require.ErrorIs(t, err, model.ErrInsufficientCredit)
		assert.Equal(t, 1, calls)
	})

	t.Run("reports ledger conflict when retries run out", func(t *testing.T) {
		calls := 0
		err := retryConflicts(ctx, func() error {
			calls++
			return &pgconn.PgError{Code: pgErrDeadlockDetected}
		})
		require.ErrorIs(t, err, model.ErrLedgerConflict)
		assert.Equal(t, maxConflictRetries+1, calls)
	})
}

func TestMapUpsertError(t *testing.T) {
	assert.NoError(t, mapUpsertError(nil))
	assert.ErrorIs(t, mapUpsertError(&pgconn.PgError{Code: pgErrUniqueViolation}), model.ErrLedgerConflict)

	err := mapUpsertError(errors.New("boom"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrLedgerConflict)
}

func TestMapEmailChangeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{
			name: "email taken",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: emailConstraint},
			want: model.ErrIdentityConflict,
		},
		{
			name: "identity race",
			err:  &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "accounts_identity_key"},
			want: model.ErrLedgerConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapEmailChangeError(tt.err)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
