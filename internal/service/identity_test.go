package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/cutout-server/internal/mocks"
	"github.com/dtroode/cutout-server/internal/model"
	"github.com/dtroode/cutout-server/internal/testutil"
	"github.com/dtroode/cutout-server/internal/token"
)

func TestIdentity_Verify(t *testing.T) {
	lg := testutil.MakeNoopLogger()
	issuer := token.NewJWT("secret", time.Hour)
	accountID := uuid.New()
	valid, err := issuer.GenerateAccessToken(accountID)
	require.NoError(t, err)
	otherIssuer := token.NewJWT("other-secret", time.Hour)
	forged, err := otherIssuer.GenerateAccessToken(accountID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		wantID     uuid.UUID
		wantKind   model.AuthErrorKind
	}{
		{name: "valid", credential: valid, wantID: accountID},
		{name: "valid with whitespace", credential: " " + valid + "\n", wantID: accountID},
		{name: "empty", credential: "", wantKind: model.AuthMissing},
		{name: "garbage", credential: "abc.def", wantKind: model.AuthInvalid},
		{name: "wrong signature", credential: forged, wantKind: model.AuthInvalid},
	}

	identity := NewIdentity(issuer, lg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := identity.Verify(context.Background(), tt.credential)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrUnauthorized)
				assert.Equal(t, tt.wantKind, model.AuthErrorKindOf(err))
				assert.Equal(t, uuid.Nil, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestIdentity_Verify_Expired(t *testing.T) {
	tokens := mocks.NewTokenManager(t)
	tokens.On("ParseAccessToken", "old").Return(uuid.Nil, model.ErrExpiredCredential)

	_, err := NewIdentity(tokens, testutil.MakeNoopLogger()).Verify(context.Background(), "old")
	require.Error(t, err)
	assert.Equal(t, model.AuthExpired, model.AuthErrorKindOf(err))
}
