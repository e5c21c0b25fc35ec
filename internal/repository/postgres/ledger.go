package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/cutout-server/internal/model"
)

var _ model.Ledger = (*LedgerRepository)(nil)

type LedgerRepository struct {
	db *Connection
}

func NewLedgerRepository(db *Connection) *LedgerRepository {
	return &LedgerRepository{
		db: db,
	}
}

func (r *LedgerRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT credit_balance FROM accounts WHERE id = $1 AND deleted_at IS NULL`, accountID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Reserve debits amount with a single conditional update, so two concurrent
// reservations can never both pass the balance check.
func (r *LedgerRepository) Reserve(ctx context.Context, accountID uuid.UUID, amount int64) (model.Reservation, error) {
	if amount <= 0 {
		return model.Reservation{}, model.ErrInvalidAmount
	}

	reservation := model.Reservation{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		Status:    model.ReservationPending,
	}

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE accounts SET credit_balance = credit_balance - $2, updated_at = NOW()
			 WHERE id = $1 AND deleted_at IS NULL AND credit_balance >= $2
			 RETURNING credit_balance`,
			accountID, amount,
		).Scan(&reservation.BalanceAfter)
		if errors.Is(err, pgx.ErrNoRows) {
			return classifyDebitMiss(ctx, tx, accountID)
		}
		if err != nil {
			return fmt.Errorf("failed to debit account: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO credit_reservations (id, account_id, amount, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			reservation.ID, accountID, amount, string(model.ReservationPending),
		).Scan(&reservation.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	return reservation, nil
}

// Settle finalizes a pending reservation. Settling an already settled
// reservation changes nothing and reports the current balance, unless a
// refunded reservation is being committed.
func (r *LedgerRepository) Settle(ctx context.Context, reservation model.Reservation, outcome model.Outcome) (int64, error) {
	status := model.ReservationCommitted
	if outcome == model.OutcomeFailure {
		status = model.ReservationRefunded
	}

	var balance int64
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		var (
			accountID uuid.UUID
			amount    int64
		)
		err := tx.QueryRow(ctx,
			`UPDATE credit_reservations SET status = $2, settled_at = NOW()
			 WHERE id = $1 AND status = 'pending'
			 RETURNING account_id, amount`,
			reservation.ID, string(status),
		).Scan(&accountID, &amount)
		if errors.Is(err, pgx.ErrNoRows) {
			balance, err = settledBalance(ctx, tx, reservation.ID, outcome)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to settle reservation: %w", err)
		}

		if status == model.ReservationCommitted {
			return tx.QueryRow(ctx,
				`SELECT credit_balance FROM accounts WHERE id = $1`, accountID,
			).Scan(&balance)
		}

		err = tx.QueryRow(ctx,
			`UPDATE accounts SET credit_balance = credit_balance + $2, updated_at = NOW()
			 WHERE id = $1
			 RETURNING credit_balance`,
			accountID, amount,
		).Scan(&balance)
		if err != nil {
			return fmt.Errorf("failed to refund reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrReservationReleased) {
			return balance, err
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrAccountNotFound
		}
		return 0, err
	}

	return balance, nil
}

func (r *LedgerRepository) Credit(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.ErrInvalidAmount
	}

	var balance int64
	err := retryConflicts(ctx, func() error {
		return r.db.QueryRow(ctx,
			`UPDATE accounts SET credit_balance = credit_balance + $2, updated_at = NOW()
			 WHERE id = $1 AND deleted_at IS NULL
			 RETURNING credit_balance`,
			accountID, amount,
		).Scan(&balance)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to credit account: %w", err)
	}
	return balance, nil
}

// ReleaseStale refunds every reservation still pending that was created
// before cutoff and returns how many were released.
func (r *LedgerRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int, error) {
	var released int
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`WITH released AS (
			   UPDATE credit_reservations SET status = 'refunded', settled_at = NOW()
			   WHERE status = 'pending' AND created_at < $1
			   RETURNING account_id, amount
			 ), refunded AS (
			   UPDATE accounts a SET credit_balance = a.credit_balance + t.amount, updated_at = NOW()
			   FROM (SELECT account_id, SUM(amount) AS amount FROM released GROUP BY account_id) t
			   WHERE a.id = t.account_id
			   RETURNING a.id
			 )
			 SELECT COUNT(*) FROM released`,
			cutoff,
		).Scan(&released)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to release stale reservations: %w", err)
	}
	return released, nil
}

// settledBalance handles a settle that found no pending reservation.
func settledBalance(ctx context.Context, tx pgx.Tx, reservationID uuid.UUID, outcome model.Outcome) (int64, error) {
	var (
		status  string
		balance int64
	)
	err := tx.QueryRow(ctx,
		`SELECT r.status, a.credit_balance
		 FROM credit_reservations r JOIN accounts a ON a.id = r.account_id
		 WHERE r.id = $1`,
		reservationID,
	).Scan(&status, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load reservation: %w", err)
	}

	if outcome == model.OutcomeSuccess && model.ReservationStatus(status) == model.ReservationRefunded {
		return balance, model.ErrReservationReleased
	}
	return balance, nil
}

func classifyDebitMiss(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND deleted_at IS NULL)`, accountID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if !exists {
		return model.ErrAccountNotFound
	}
	return model.ErrInsufficientCredit
}
