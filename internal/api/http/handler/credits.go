package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dtroode/cutout-server/internal/logger"
)

// PaymentSecretHeader authenticates payment provider callbacks.
const PaymentSecretHeader = "X-Payment-Secret"

type Credits struct {
	accountService AccountService
	paymentSecret  string
	logger         *logger.Logger
}

func NewCredits(accountService AccountService, paymentSecret string, logger *logger.Logger) *Credits {
	return &Credits{
		accountService: accountService,
		paymentSecret:  paymentSecret,
		logger:         logger,
	}
}

type planResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Credits  int64           `json:"credits"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

type plansResponse struct {
	Success bool           `json:"success"`
	Plans   []planResponse `json:"plans"`
}

type purchaseRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	PlanID    string `json:"planId" validate:"required"`
	Reference string `json:"reference" validate:"required"`
}

type purchaseResponse struct {
	Success bool  `json:"success"`
	Applied bool  `json:"applied"`
	Credits int64 `json:"credits"`
}

func (h *Credits) Plans(w http.ResponseWriter, r *http.Request) {
	plans := h.accountService.Plans()
	resp := plansResponse{Success: true, Plans: make([]planResponse, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, planResponse{
			ID:       p.ID,
			Name:     p.Name,
			Credits:  p.Credits,
			Price:    p.Price,
			Currency: p.Currency,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Purchase applies a confirmed payment. Replays of the same reference
// return the current balance without crediting again.
func (h *Credits) Purchase(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req purchaseRequest
	if err := bindJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	accountID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "userId is invalid")
		return
	}

	balance, applied, err := h.accountService.Purchase(r.Context(), accountID, req.PlanID, req.Reference)
	if err != nil {
		handleError(w, err, "Failed to apply purchase")
		return
	}

	h.logger.Info("Credits handler: purchase processed",
		"account_id", accountID,
		"plan_id", req.PlanID,
		"applied", applied)

	writeJSON(w, http.StatusOK, purchaseResponse{Success: true, Applied: applied, Credits: balance})
}

// authorized rejects every callback when no secret is configured.
func (h *Credits) authorized(r *http.Request) bool {
	if h.paymentSecret == "" {
		return false
	}
	got := r.Header.Get(PaymentSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.paymentSecret)) == 1
}
