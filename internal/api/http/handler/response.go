package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/model"
)

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// userResponse is the public account shape. It never carries the password hash.
type userResponse struct {
	ID            uuid.UUID `json:"_id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstname"`
	LastName      string    `json:"lastname"`
	Photo         string    `json:"photo"`
	CreditBalance int64     `json:"creditBalance"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserResponse(a model.Account) userResponse {
	return userResponse{
		ID:            a.ID,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Photo:         a.Photo,
		CreditBalance: a.CreditBalance,
		CreatedAt:     a.CreatedAt,
	}
}

type sessionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: false, Message: message})
}
