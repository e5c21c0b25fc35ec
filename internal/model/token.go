package model

import "github.com/google/uuid"

// TokenManager issues and validates access tokens.
type TokenManager interface {
	GenerateAccessToken(accountID uuid.UUID) (string, error)
	// ParseAccessToken returns the account id or an AuthError describing why
	// the token was rejected.
	ParseAccessToken(token string) (uuid.UUID, error)
}
