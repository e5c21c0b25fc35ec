package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

type Auth struct {
	accountStore   model.AccountStore
	tokenManager   model.TokenManager
	idVerifier     model.IDTokenVerifier
	initialCredits int64
	bcryptCost     int
	logger         *logger.Logger
}

func NewAuth(
	accountStore model.AccountStore,
	tokenManager model.TokenManager,
	idVerifier model.IDTokenVerifier,
	initialCredits int64,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		accountStore:   accountStore,
		tokenManager:   tokenManager,
		idVerifier:     idVerifier,
		initialCredits: initialCredits,
		bcryptCost:     bcrypt.DefaultCost,
		logger:         logger,
	}
}

func (a *Auth) SignUp(ctx context.Context, params model.SignUpParams) (model.Session, error) {
	email := normalizeEmail(params.Email)
	a.logger.Debug("Auth service: starting sign up",
		"email", email)

	_, err := a.accountStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: email already taken",
			"email", email)
		return model.Session{}, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), a.bcryptCost)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account, err := a.accountStore.Create(ctx, model.Account{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(params.FirstName),
		LastName:      strings.TrimSpace(params.LastName),
		Photo:         model.DefaultPhoto,
		CreditBalance: a.initialCredits,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.Session{}, err
		}
		a.logger.Error("Auth service: failed to create account",
			"email", email,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to create account: %w", err)
	}

	a.logger.Info("Auth service: account created",
		"account_id", account.ID)

	return a.session(account)
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email = normalizeEmail(email)

	account, err := a.accountStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.Session{}, model.ErrInvalidPassword
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	if !account.HasPassword() {
		return model.Session{}, model.ErrFederatedOnly
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		a.logger.Debug("Auth service: password mismatch",
			"account_id", account.ID)
		return model.Session{}, model.ErrInvalidPassword
	}

	return a.session(account)
}

// GoogleSignIn verifies a Google ID token and signs the holder in, creating
// or linking the account when needed.
func (a *Auth) GoogleSignIn(ctx context.Context, idToken string) (model.Session, error) {
	identity, err := a.idVerifier.Verify(ctx, idToken)
	if err != nil {
		a.logger.Debug("Auth service: google id token rejected",
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to verify id token: %w", err)
	}
	identity.Email = normalizeEmail(identity.Email)

	account, err := a.accountStore.UpsertFederated(ctx, identity, a.initialCredits)
	if err != nil {
		if errors.Is(err, model.ErrIdentityConflict) {
			return model.Session{}, err
		}
		a.logger.Error("Auth service: failed to upsert federated account",
			"provider", identity.Provider,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to resolve account: %w", err)
	}

	return a.session(account)
}

func (a *Auth) session(account model.Account) (model.Session, error) {
	accessToken, err := a.tokenManager.GenerateAccessToken(account.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to generate access token",
			"account_id", account.ID,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return model.Session{
		Account:     account,
		AccessToken: accessToken,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
