package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

type Account struct {
	accountStore   model.AccountStore
	ledger         model.Ledger
	purchaseStore  model.PurchaseStore
	plans          []model.Plan
	initialCredits int64
	logger         *logger.Logger
}

func NewAccount(
	accountStore model.AccountStore,
	ledger model.Ledger,
	purchaseStore model.PurchaseStore,
	plans []model.Plan,
	initialCredits int64,
	logger *logger.Logger,
) *Account {
	if len(plans) == 0 {
		plans = model.DefaultPlans()
	}
	return &Account{
		accountStore:   accountStore,
		ledger:         ledger,
		purchaseStore:  purchaseStore,
		plans:          plans,
		initialCredits: initialCredits,
		logger:         logger,
	}
}

func (s *Account) Profile(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	account, err := s.accountStore.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *Account) Credits(ctx context.Context, accountID uuid.UUID) (int64, error) {
	balance, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// SyncIdentity applies a verified identity-sync event. Deleting an unknown
// identity is not an error.
func (s *Account) SyncIdentity(ctx context.Context, event model.IdentityEvent) error {
	identity := event.Identity
	identity.Email = normalizeEmail(identity.Email)

	s.logger.Info("Account service: identity event received",
		"type", string(event.Type),
		"provider", identity.Provider,
		"subject", identity.Subject)

	switch event.Type {
	case model.IdentityCreated, model.IdentityUpdated:
		_, err := s.accountStore.UpsertFederated(ctx, identity, s.initialCredits)
		if err != nil {
			if errors.Is(err, model.ErrIdentityConflict) {
				s.logger.Warn("Account service: identity conflicts with existing account",
					"provider", identity.Provider,
					"subject", identity.Subject)
				return err
			}
			return fmt.Errorf("failed to upsert federated account: %w", err)
		}
	case model.IdentityDeleted:
		err := s.accountStore.SoftDeleteByIdentity(ctx, identity.Provider, identity.Subject)
		if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
			return fmt.Errorf("failed to delete account: %w", err)
		}
	default:
		s.logger.Debug("Account service: ignoring identity event",
			"type", string(event.Type))
	}

	return nil
}

func (s *Account) Plans() []model.Plan {
	plans := make([]model.Plan, len(s.plans))
	copy(plans, s.plans)
	return plans
}

func (s *Account) Plan(planID string) (model.Plan, error) {
	for _, p := range s.plans {
		if strings.EqualFold(p.ID, planID) {
			return p, nil
		}
	}
	return model.Plan{}, model.ErrPlanNotFound
}

// Purchase credits the plan's credits once per payment reference and
// returns the resulting balance.
func (s *Account) Purchase(ctx context.Context, accountID uuid.UUID, planID, reference string) (int64, bool, error) {
	plan, err := s.Plan(planID)
	if err != nil {
		return 0, false, err
	}

	balance, applied, err := s.purchaseStore.ApplyPurchase(ctx, model.Purchase{
		ID:        uuid.New(),
		AccountID: accountID,
		Reference: reference,
		PlanID:    plan.ID,
		Credits:   plan.Credits,
		Amount:    plan.Price,
		Currency:  plan.Currency,
	})
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return 0, false, err
		}
		s.logger.Error("Account service: failed to apply purchase",
			"account_id", accountID,
			"reference", reference,
			"error", err.Error())
		return 0, false, fmt.Errorf("failed to apply purchase: %w", err)
	}

	if applied {
		s.logger.Info("Account service: purchase applied",
			"account_id", accountID,
			"plan", plan.ID,
			"credits", plan.Credits,
			"amount", plan.Price.StringFixed(2))
	} else {
		s.logger.Info("Account service: purchase already applied",
			"account_id", accountID,
			"reference", reference)
	}

	return balance, applied, nil
}
