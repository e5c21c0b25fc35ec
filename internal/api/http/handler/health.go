package handler

import (
	"context"
	"net/http"
)

// Pinger reports backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	pinger Pinger
}

// NewHealth accepts a nil pinger for backends with nothing to probe.
func NewHealth(pinger Pinger) *Health {
	return &Health{pinger: pinger}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			writeMessage(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "OK"})
}
