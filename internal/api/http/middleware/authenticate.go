package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

// CredentialVerifier resolves account id from bearer credentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (uuid.UUID, error)
}

// Authenticate validates the request credential and injects the account id
// into the request context.
type Authenticate struct {
	verifier       CredentialVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(verifier CredentialVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, err := m.verifier.Verify(r.Context(), Credential(r))
		if err != nil {
			m.logger.Debug("Authenticate middleware: request rejected",
				"path", r.URL.Path,
				"kind", string(model.AuthErrorKindOf(err)))
			Unauthorized(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetAccountIDToContext(r.Context(), accountID)))
	})
}

// Credential reads the "token" header first and falls back to
// Authorization. A Bearer scheme prefix is stripped from either.
func Credential(r *http.Request) string {
	raw := r.Header.Get("token")
	if strings.TrimSpace(raw) == "" {
		raw = r.Header.Get("Authorization")
	}
	raw = strings.TrimSpace(raw)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

// Unauthorized writes the coarse 401 body shared by every protected route.
func Unauthorized(w http.ResponseWriter, err error) {
	message := "Invalid token"
	switch model.AuthErrorKindOf(err) {
	case model.AuthMissing:
		message = "Not authorized"
	case model.AuthExpired:
		message = "Token expired"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
