package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/cutout-server/internal/model"
)

var _ model.PurchaseStore = (*PurchaseRepository)(nil)

type PurchaseRepository struct {
	db *Connection
}

func NewPurchaseRepository(db *Connection) *PurchaseRepository {
	return &PurchaseRepository{
		db: db,
	}
}

// ApplyPurchase records the purchase and credits the account once per
// reference. A replayed reference reports applied=false with the current
// balance.
func (r *PurchaseRepository) ApplyPurchase(ctx context.Context, purchase model.Purchase) (int64, bool, error) {
	if purchase.Credits <= 0 {
		return 0, false, model.ErrInvalidAmount
	}
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}

	var (
		balance int64
		applied bool
	)
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO credit_purchases (id, account_id, reference, plan_id, credits, amount, currency)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (reference) DO NOTHING
			 RETURNING id`,
			purchase.ID, purchase.AccountID, purchase.Reference, purchase.PlanID,
			purchase.Credits, purchase.Amount.StringFixed(2), purchase.Currency,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			applied = false
			return tx.QueryRow(ctx,
				`SELECT credit_balance FROM accounts WHERE id = $1`, purchase.AccountID,
			).Scan(&balance)
		}
		if err != nil {
			if hasSQLState(err, pgErrForeignKeyViolation) {
				return model.ErrAccountNotFound
			}
			return fmt.Errorf("failed to insert purchase: %w", err)
		}

		err = tx.QueryRow(ctx,
			`UPDATE accounts SET credit_balance = credit_balance + $2, updated_at = NOW()
			 WHERE id = $1 AND deleted_at IS NULL
			 RETURNING credit_balance`,
			purchase.AccountID, purchase.Credits,
		).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to credit purchase: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, model.ErrAccountNotFound
		}
		return 0, false, err
	}

	return balance, applied, nil
}
