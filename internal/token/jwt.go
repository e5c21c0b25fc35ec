package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/model"
)

// Claims represents JWT claims with token type and account ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string, accessTTL time.Duration) *JWT {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &JWT{secretKey: secretKey, accessTTL: accessTTL, now: time.Now}
}

var _ model.TokenManager = (*JWT)(nil)

const (
	defaultAccessTTL = 7 * 24 * time.Hour
	typeAccess       = "access"
)

// GenerateAccessToken creates an access token for the account.
func (j *JWT) GenerateAccessToken(accountID uuid.UUID) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		UserID:    accountID,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates the token and extracts the account ID.
// Signature and structure failures map to ErrInvalidCredential, a passed
// expiry to ErrExpiredCredential and absent claims to ErrMalformedCredential.
func (j *JWT) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return uuid.Nil, fmt.Errorf("%w: %v", model.ErrExpiredCredential, err)
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return uuid.Nil, fmt.Errorf("%w: %v", model.ErrMalformedCredential, err)
		default:
			return uuid.Nil, fmt.Errorf("%w: %v", model.ErrInvalidCredential, err)
		}
	}

	if claims.TokenType == "" || claims.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing user_id or typ claim", model.ErrMalformedCredential)
	}
	if claims.TokenType != typeAccess {
		return uuid.Nil, fmt.Errorf("%w: token type mismatch: %s", model.ErrInvalidCredential, claims.TokenType)
	}

	return claims.UserID, nil
}
