package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/cutout-server/internal/mocks"
	"github.com/dtroode/cutout-server/internal/model"
	"github.com/dtroode/cutout-server/internal/testutil"
)

func newTestAuth(t *testing.T) (*Auth, *mocks.AccountStore, *mocks.TokenManager, *mocks.IDTokenVerifier) {
	t.Helper()
	accounts := mocks.NewAccountStore(t)
	tokens := mocks.NewTokenManager(t)
	google := mocks.NewIDTokenVerifier(t)
	a := NewAuth(accounts, tokens, google, 10, testutil.MakeNoopLogger())
	a.bcryptCost = bcrypt.MinCost
	return a, accounts, tokens, google
}

func TestAuth_SignUp(t *testing.T) {
	ctx := context.Background()
	a, accounts, tokens, _ := newTestAuth(t)

	accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(model.Account{}, model.ErrNotFound)
	accounts.On("Create", mock.Anything, mock.MatchedBy(func(acc model.Account) bool {
		return acc.Email == "ada@example.com" &&
			acc.CreditBalance == 10 &&
			acc.Photo == model.DefaultPhoto &&
			bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte("secret123")) == nil
	})).Return(func(_ context.Context, acc model.Account) (model.Account, error) {
		return acc, nil
	})
	tokens.On("GenerateAccessToken", mock.AnythingOfType("uuid.UUID")).Return("access", nil)

	session, err := a.SignUp(ctx, model.SignUpParams{
		Email:     "  Ada@Example.com ",
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, "ada@example.com", session.Account.Email)
	assert.Equal(t, int64(10), session.Account.CreditBalance)
}

func TestAuth_SignUp_EmailTaken(t *testing.T) {
	a, accounts, _, _ := newTestAuth(t)
	accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(model.Account{ID: uuid.New()}, nil)

	_, err := a.SignUp(context.Background(), model.SignUpParams{Email: "ada@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestAuth_SignUp_StoreError(t *testing.T) {
	a, accounts, _, _ := newTestAuth(t)
	accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(model.Account{}, errors.New("db down"))

	_, err := a.SignUp(context.Background(), model.SignUpParams{Email: "ada@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrEmailTaken)
}

func TestAuth_SignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	local := model.Account{ID: uuid.New(), Email: "ada@example.com", PasswordHash: hash}
	federated := model.Account{ID: uuid.New(), Email: "fed@example.com", IdentityProvider: model.ProviderGoogle, IdentitySubject: "g1"}

	tests := []struct {
		name     string
		email    string
		password string
		setup    func(accounts *mocks.AccountStore, tokens *mocks.TokenManager)
		wantErr  error
	}{
		{
			name:     "valid password",
			email:    "ADA@example.com",
			password: "secret123",
			setup: func(accounts *mocks.AccountStore, tokens *mocks.TokenManager) {
				accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(local, nil)
				tokens.On("GenerateAccessToken", local.ID).Return("access", nil)
			},
		},
		{
			name:     "wrong password",
			email:    "ada@example.com",
			password: "nope",
			setup: func(accounts *mocks.AccountStore, _ *mocks.TokenManager) {
				accounts.On("GetByEmail", mock.Anything, "ada@example.com").Return(local, nil)
			},
			wantErr: model.ErrInvalidPassword,
		},
		{
			name:     "unknown email",
			email:    "who@example.com",
			password: "secret123",
			setup: func(accounts *mocks.AccountStore, _ *mocks.TokenManager) {
				accounts.On("GetByEmail", mock.Anything, "who@example.com").Return(model.Account{}, model.ErrNotFound)
			},
			wantErr: model.ErrInvalidPassword,
		},
		{
			name:     "federated only account",
			email:    "fed@example.com",
			password: "secret123",
			setup: func(accounts *mocks.AccountStore, _ *mocks.TokenManager) {
				accounts.On("GetByEmail", mock.Anything, "fed@example.com").Return(federated, nil)
			},
			wantErr: model.ErrFederatedOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, accounts, tokens, _ := newTestAuth(t)
			tt.setup(accounts, tokens)

			session, err := a.SignIn(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "access", session.AccessToken)
			assert.Equal(t, local.ID, session.Account.ID)
		})
	}
}

func TestAuth_GoogleSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts the verified identity", func(t *testing.T) {
		a, accounts, tokens, google := newTestAuth(t)
		identity := model.FederatedIdentity{Provider: model.ProviderGoogle, Subject: "g1", Email: "Ada@Example.com", EmailVerified: true}
		account := model.Account{ID: uuid.New(), Email: "ada@example.com"}

		google.On("Verify", mock.Anything, "id-token").Return(identity, nil)
		accounts.On("UpsertFederated", mock.Anything, mock.MatchedBy(func(fi model.FederatedIdentity) bool {
			return fi.Email == "ada@example.com" && fi.Subject == "g1"
		}), int64(10)).Return(account, nil)
		tokens.On("GenerateAccessToken", account.ID).Return("access", nil)

		session, err := a.GoogleSignIn(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, account.ID, session.Account.ID)
		assert.Equal(t, "access", session.AccessToken)
	})

	t.Run("rejected id token", func(t *testing.T) {
		a, _, _, google := newTestAuth(t)
		google.On("Verify", mock.Anything, "bad").Return(model.FederatedIdentity{}, model.ErrInvalidCredential)

		_, err := a.GoogleSignIn(ctx, "bad")
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("identity conflict", func(t *testing.T) {
		a, accounts, _, google := newTestAuth(t)
		google.On("Verify", mock.Anything, "id-token").Return(model.FederatedIdentity{Provider: model.ProviderGoogle, Subject: "g1", Email: "a@example.com"}, nil)
		accounts.On("UpsertFederated", mock.Anything, mock.Anything, int64(10)).Return(model.Account{}, model.ErrIdentityConflict)

		_, err := a.GoogleSignIn(ctx, "id-token")
		assert.ErrorIs(t, err, model.ErrIdentityConflict)
	})
}
