package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable credit bundle.
type Plan struct {
	ID       string
	Name     string
	Credits  int64
	Price    decimal.Decimal
	Currency string
}

// Purchase records credits bought through the payment provider.
type Purchase struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Reference string
	PlanID    string
	Credits   int64
	Amount    decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// DefaultPlans is the catalog offered when none is configured.
func DefaultPlans() []Plan {
	return []Plan{
		{ID: "basic", Name: "Basic", Credits: 100, Price: decimal.NewFromInt(10), Currency: "USD"},
		{ID: "advanced", Name: "Advanced", Credits: 500, Price: decimal.NewFromInt(50), Currency: "USD"},
		{ID: "business", Name: "Business", Credits: 5000, Price: decimal.NewFromInt(250), Currency: "USD"},
	}
}
