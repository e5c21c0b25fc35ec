// Package memory keeps accounts, reservations and purchases in process
// memory. A single mutex serializes every mutation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/model"
)

var (
	_ model.AccountStore  = (*Store)(nil)
	_ model.Ledger        = (*Store)(nil)
	_ model.PurchaseStore = (*Store)(nil)
)

type Store struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*model.Account
	reservations map[uuid.UUID]*model.Reservation
	purchases    map[string]model.Purchase
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[uuid.UUID]*model.Account),
		reservations: make(map[uuid.UUID]*model.Reservation),
		purchases:    make(map[string]model.Purchase),
		now:          time.Now,
	}
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.DeletedAt != nil {
		return model.Account{}, model.ErrAccountNotFound
	}
	return *a, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findByEmail(email)
	if a == nil || a.DeletedAt != nil {
		return model.Account{}, model.ErrNotFound
	}
	return *a, nil
}

func (s *Store) Create(_ context.Context, account model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmail(account.Email) != nil {
		return model.Account{}, model.ErrEmailTaken
	}
	if account.IsFederated() && s.findByIdentity(account.IdentityProvider, account.IdentitySubject) != nil {
		return model.Account{}, model.ErrIdentityConflict
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := s.now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	stored := account
	s.accounts[stored.ID] = &stored
	return stored, nil
}

func (s *Store) UpsertFederated(_ context.Context, identity model.FederatedIdentity, initialCredits int64) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if a := s.findByIdentity(identity.Provider, identity.Subject); a != nil {
		if identity.Email != "" && identity.Email != a.Email {
			if owner := s.findByEmail(identity.Email); owner != nil && owner.ID != a.ID {
				return model.Account{}, model.ErrIdentityConflict
			}
			a.Email = identity.Email
		}
		if identity.FirstName != "" {
			a.FirstName = identity.FirstName
		}
		if identity.LastName != "" {
			a.LastName = identity.LastName
		}
		if identity.Photo != "" {
			a.Photo = identity.Photo
		}
		a.DeletedAt = nil
		a.UpdatedAt = now
		return *a, nil
	}

	if a := s.findByEmail(identity.Email); a != nil {
		if a.IsFederated() || !identity.EmailVerified {
			return model.Account{}, model.ErrIdentityConflict
		}
		a.IdentityProvider = identity.Provider
		a.IdentitySubject = identity.Subject
		if a.FirstName == "" && a.LastName == "" {
			a.FirstName = identity.FirstName
			a.LastName = identity.LastName
		}
		if (a.Photo == "" || a.Photo == model.DefaultPhoto) && identity.Photo != "" {
			a.Photo = identity.Photo
		}
		a.DeletedAt = nil
		a.UpdatedAt = now
		return *a, nil
	}

	photo := identity.Photo
	if photo == "" {
		photo = model.DefaultPhoto
	}
	a := &model.Account{
		ID:               uuid.New(),
		Email:            identity.Email,
		FirstName:        identity.FirstName,
		LastName:         identity.LastName,
		Photo:            photo,
		IdentityProvider: identity.Provider,
		IdentitySubject:  identity.Subject,
		CreditBalance:    initialCredits,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.accounts[a.ID] = a
	return *a, nil
}

func (s *Store) SoftDeleteByIdentity(_ context.Context, provider, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findByIdentity(provider, subject)
	if a == nil || a.DeletedAt != nil {
		return model.ErrAccountNotFound
	}
	now := s.now()
	a.DeletedAt = &now
	a.UpdatedAt = now
	return nil
}

func (s *Store) GetBalance(_ context.Context, accountID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.active(accountID)
	if err != nil {
		return 0, err
	}
	return a.CreditBalance, nil
}

func (s *Store) Reserve(_ context.Context, accountID uuid.UUID, amount int64) (model.Reservation, error) {
	if amount <= 0 {
		return model.Reservation{}, model.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.active(accountID)
	if err != nil {
		return model.Reservation{}, err
	}
	if a.CreditBalance < amount {
		return model.Reservation{}, model.ErrInsufficientCredit
	}

	now := s.now()
	a.CreditBalance -= amount
	a.UpdatedAt = now

	r := &model.Reservation{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       amount,
		Status:       model.ReservationPending,
		BalanceAfter: a.CreditBalance,
		CreatedAt:    now,
	}
	s.reservations[r.ID] = r
	return *r, nil
}

func (s *Store) Settle(_ context.Context, reservation model.Reservation, outcome model.Outcome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[reservation.ID]
	if !ok {
		return 0, model.ErrNotFound
	}
	a, ok := s.accounts[r.AccountID]
	if !ok {
		return 0, model.ErrAccountNotFound
	}
	if r.Status != model.ReservationPending {
		if outcome == model.OutcomeSuccess && r.Status == model.ReservationRefunded {
			return a.CreditBalance, model.ErrReservationReleased
		}
		return a.CreditBalance, nil
	}

	s.settle(r, a, outcome)
	return a.CreditBalance, nil
}

func (s *Store) Credit(_ context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.active(accountID)
	if err != nil {
		return 0, err
	}
	a.CreditBalance += amount
	a.UpdatedAt = s.now()
	return a.CreditBalance, nil
}

func (s *Store) ReleaseStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := 0
	for _, r := range s.reservations {
		if r.Status != model.ReservationPending || !r.CreatedAt.Before(cutoff) {
			continue
		}
		a, ok := s.accounts[r.AccountID]
		if !ok {
			continue
		}
		s.settle(r, a, model.OutcomeFailure)
		released++
	}
	return released, nil
}

func (s *Store) ApplyPurchase(_ context.Context, purchase model.Purchase) (int64, bool, error) {
	if purchase.Credits <= 0 {
		return 0, false, model.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.active(purchase.AccountID)
	if err != nil {
		return 0, false, err
	}
	if _, seen := s.purchases[purchase.Reference]; seen {
		return a.CreditBalance, false, nil
	}

	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	now := s.now()
	purchase.CreatedAt = now
	s.purchases[purchase.Reference] = purchase

	a.CreditBalance += purchase.Credits
	a.UpdatedAt = now
	return a.CreditBalance, true, nil
}

func (s *Store) settle(r *model.Reservation, a *model.Account, outcome model.Outcome) {
	now := s.now()
	r.SettledAt = &now
	if outcome == model.OutcomeFailure {
		r.Status = model.ReservationRefunded
		a.CreditBalance += r.Amount
		a.UpdatedAt = now
		return
	}
	r.Status = model.ReservationCommitted
}

func (s *Store) active(id uuid.UUID) (*model.Account, error) {
	a, ok := s.accounts[id]
	if !ok || a.DeletedAt != nil {
		return nil, model.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) findByEmail(email string) *model.Account {
	if email == "" {
		return nil
	}
	for _, a := range s.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

func (s *Store) findByIdentity(provider, subject string) *model.Account {
	for _, a := range s.accounts {
		if a.IdentityProvider == provider && a.IdentitySubject == subject {
			return a
		}
	}
	return nil
}
