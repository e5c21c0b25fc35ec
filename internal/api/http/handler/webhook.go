package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
	"github.com/dtroode/cutout-server/internal/webhook"
)

const maxWebhookBody = 1 << 20

// WebhookVerifier authenticates a signed webhook delivery.
type WebhookVerifier interface {
	Verify(header http.Header, payload []byte) error
}

type Webhook struct {
	verifier       WebhookVerifier
	accountService AccountService
	logger         *logger.Logger
}

func NewWebhook(verifier WebhookVerifier, accountService AccountService, logger *logger.Logger) *Webhook {
	return &Webhook{
		verifier:       verifier,
		accountService: accountService,
		logger:         logger,
	}
}

// Identity handles identity-sync deliveries.
func (h *Webhook) Identity(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.verifier.Verify(r.Header, payload); err != nil {
		h.logger.Warn("Webhook handler: signature rejected",
			"error", err.Error())
		writeMessage(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	event, err := webhook.ParseClerkEvent(payload)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.accountService.SyncIdentity(r.Context(), event); err != nil {
		if errors.Is(err, model.ErrIdentityConflict) {
			writeMessage(w, http.StatusConflict, "Email is linked to another sign in method")
			return
		}
		h.logger.Error("Webhook handler: failed to sync identity",
			"type", string(event.Type),
			"error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Webhook received"})
}
