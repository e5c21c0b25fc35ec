package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

// Identity turns a bearer credential into an account id. It never touches
// the ledger.
type Identity struct {
	tokenManager model.TokenManager
	logger       *logger.Logger
}

func NewIdentity(tokenManager model.TokenManager, logger *logger.Logger) *Identity {
	return &Identity{
		tokenManager: tokenManager,
		logger:       logger,
	}
}

func (i *Identity) Verify(ctx context.Context, credential string) (uuid.UUID, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return uuid.Nil, model.ErrMissingCredential
	}

	accountID, err := i.tokenManager.ParseAccessToken(credential)
	if err != nil {
		i.logger.Debug("Identity service: credential rejected",
			"kind", string(model.AuthErrorKindOf(err)),
			"error", err.Error())
		return uuid.Nil, fmt.Errorf("failed to verify credential: %w", err)
	}

	return accountID, nil
}
