package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/cutout-server/internal/api/http/middleware"
	"github.com/dtroode/cutout-server/internal/model"
)

// handleError maps domain errors to coarse client messages. Anything
// unrecognized becomes a 500 with fallback.
func handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		middleware.Unauthorized(w, err)
	case errors.Is(err, model.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, model.ErrInvalidPassword):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, model.ErrFederatedOnly):
		writeMessage(w, http.StatusUnauthorized, "This account was created with Google. Please use Google Sign In.")
	case errors.Is(err, model.ErrIdentityConflict):
		writeMessage(w, http.StatusConflict, "Email is linked to another sign in method")
	case errors.Is(err, model.ErrAccountNotFound), errors.Is(err, model.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, model.ErrPlanNotFound):
		writeMessage(w, http.StatusBadRequest, "Plan not found")
	case errors.Is(err, model.ErrEmptyImage):
		writeMessage(w, http.StatusBadRequest, "No image uploaded")
	case errors.Is(err, model.ErrInvalidAmount):
		writeMessage(w, http.StatusBadRequest, "Invalid amount")
	default:
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
