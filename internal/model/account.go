package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	// UpsertFederated resolves an account by its federated identity, links
	// it to a local account with the same email, or creates a new one.
	UpsertFederated(ctx context.Context, identity FederatedIdentity, initialCredits int64) (Account, error)
	SoftDeleteByIdentity(ctx context.Context, provider, subject string) error
}

// Account represents a user account with its credit balance.
type Account struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     []byte
	FirstName        string
	LastName         string
	Photo            string
	IdentityProvider string
	IdentitySubject  string
	CreditBalance    int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// IsFederated reports whether the account was established by an external identity provider.
func (a Account) IsFederated() bool {
	return a.IdentityProvider != "" && a.IdentitySubject != ""
}

// HasPassword reports whether the account can sign in with a local password.
func (a Account) HasPassword() bool {
	return len(a.PasswordHash) > 0
}

// Identity providers known to the service.
const (
	ProviderGoogle = "google"
	ProviderClerk  = "clerk"
)

// FederatedIdentity is a normalized identity asserted by an external provider.
type FederatedIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Photo         string
}

// DefaultPhoto is assigned to accounts created without a picture.
const DefaultPhoto = "https://via.placeholder.com/150"

// Session is returned after a successful sign up or sign in.
type Session struct {
	Account     Account
	AccessToken string
}

// IDTokenVerifier validates an identity token issued by an external provider.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (FederatedIdentity, error)
}

// IdentityEventType enumerates identity-sync notifications.
type IdentityEventType string

const (
	IdentityCreated IdentityEventType = "user.created"
	IdentityUpdated IdentityEventType = "user.updated"
	IdentityDeleted IdentityEventType = "user.deleted"
)

// IdentityEvent is a verified identity-sync notification from a provider.
type IdentityEvent struct {
	Type     IdentityEventType
	Identity FederatedIdentity
}

// SignUpParams carries a local registration request.
type SignUpParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
