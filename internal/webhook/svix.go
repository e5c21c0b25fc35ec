// Package webhook verifies Svix-signed identity webhooks and decodes Clerk
// user events.
package webhook

import (
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

var (
	ErrMissingHeaders   = errors.New("missing webhook headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verifier checks deliveries against a "whsec_" secret. Timestamps older or
// newer than five minutes are rejected.
type Verifier struct {
	wh *svix.Webhook
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

func (v *Verifier) Verify(header http.Header, payload []byte) error {
	if header.Get(HeaderID) == "" || header.Get(HeaderTimestamp) == "" || header.Get(HeaderSignature) == "" {
		return ErrMissingHeaders
	}
	if err := v.wh.Verify(payload, header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// ErrDisabled is returned by Disabled for every delivery.
var ErrDisabled = errors.New("webhook secret is not configured")

// Disabled rejects all deliveries. It stands in when no secret is set.
type Disabled struct{}

func (Disabled) Verify(http.Header, []byte) error {
	return ErrDisabled
}
