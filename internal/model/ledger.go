package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger owns account credit balances. Every mutation is atomic per account
// at the storage layer.
type Ledger interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error)
	// Reserve debits amount if the balance allows it. It returns
	// ErrInsufficientCredit when it does not.
	Reserve(ctx context.Context, accountID uuid.UUID, amount int64) (Reservation, error)
	// Settle finalizes or refunds a reservation and returns the balance after
	// settlement. Settling an already settled reservation changes nothing,
	// except that committing a refunded one returns ErrReservationReleased
	// along with the current balance. Unknown reservations give ErrNotFound.
	Settle(ctx context.Context, reservation Reservation, outcome Outcome) (int64, error)
	Credit(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error)
	// ReleaseStale refunds pending reservations created before cutoff.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int, error)
}

// PurchaseStore applies credit purchases exactly once per payment reference.
type PurchaseStore interface {
	ApplyPurchase(ctx context.Context, purchase Purchase) (balance int64, applied bool, err error)
}

// Outcome is the result of the work a reservation paid for.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ReservationStatus enumerates reservation lifecycle states.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationCommitted ReservationStatus = "committed"
	ReservationRefunded  ReservationStatus = "refunded"
)

// JobCost is the amount reserved for a single job.
const JobCost int64 = 1

// Reservation is a provisional debit pending settlement.
type Reservation struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Amount       int64
	Status       ReservationStatus
	BalanceAfter int64
	CreatedAt    time.Time
	SettledAt    *time.Time
}
