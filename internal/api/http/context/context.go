package context

import (
	"context"

	"github.com/google/uuid"
)

type accountIDKey struct{}

// Manager stores the authenticated account id in a request context.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SetAccountIDToContext(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// GetAccountIDFromContext reports false when no account id was set or it is nil.
func (m *Manager) GetAccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	accountID, ok := ctx.Value(accountIDKey{}).(uuid.UUID)
	if !ok || accountID == uuid.Nil {
		return uuid.Nil, false
	}
	return accountID, true
}
