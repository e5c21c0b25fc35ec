package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/api/http/middleware"
	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

// AuthService issues sessions.
type AuthService interface {
	SignUp(ctx context.Context, params model.SignUpParams) (model.Session, error)
	SignIn(ctx context.Context, email, password string) (model.Session, error)
	GoogleSignIn(ctx context.Context, idToken string) (model.Session, error)
}

// AccountService reads accounts and applies account-level changes.
type AccountService interface {
	Profile(ctx context.Context, accountID uuid.UUID) (model.Account, error)
	Credits(ctx context.Context, accountID uuid.UUID) (int64, error)
	Plans() []model.Plan
	Purchase(ctx context.Context, accountID uuid.UUID, planID, reference string) (int64, bool, error)
	SyncIdentity(ctx context.Context, event model.IdentityEvent) error
}

type User struct {
	authService    AuthService
	accountService AccountService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewUser(authService AuthService, accountService AccountService, contextManager model.ContextManager, logger *logger.Logger) *User {
	return &User{
		authService:    authService,
		accountService: accountService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type signUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstname" validate:"required"`
	LastName  string `json:"lastname"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type creditsResponse struct {
	Success bool  `json:"success"`
	Credits int64 `json:"credits"`
}

type profileResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}

func (h *User) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := bindJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.authService.SignUp(r.Context(), model.SignUpParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleError(w, err, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Success: true,
		Message: "User created successfully",
		User:    newUserResponse(session.Account),
		Token:   session.AccessToken,
	})
}

func (h *User) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := bindJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err, "Failed to sign in")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Message: "Sign in successful",
		User:    newUserResponse(session.Account),
		Token:   session.AccessToken,
	})
}

func (h *User) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req googleSignInRequest
	if err := bindJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.authService.GoogleSignIn(r.Context(), req.IDToken)
	if err != nil {
		handleError(w, err, "Failed to sign in with Google")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Message: "Google sign in successful",
		User:    newUserResponse(session.Account),
		Token:   session.AccessToken,
	})
}

func (h *User) Credits(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, model.ErrMissingCredential)
		return
	}

	credits, err := h.accountService.Credits(r.Context(), accountID)
	if err != nil {
		handleError(w, err, "Failed to load credits")
		return
	}

	writeJSON(w, http.StatusOK, creditsResponse{Success: true, Credits: credits})
}

func (h *User) Profile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, model.ErrMissingCredential)
		return
	}

	h.writeProfile(w, r, accountID)
}

// GetByID is the public profile lookup.
func (h *User) GetByID(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	h.writeProfile(w, r, accountID)
}

func (h *User) writeProfile(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) {
	account, err := h.accountService.Profile(r.Context(), accountID)
	if err != nil {
		handleError(w, err, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Success: true, User: newUserResponse(account)})
}
