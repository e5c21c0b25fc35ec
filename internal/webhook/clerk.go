package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dtroode/cutout-server/internal/model"
)

type clerkEvent struct {
	Type string    `json:"type"`
	Data clerkUser `json:"data"`
}

type clerkUser struct {
	ID                    string       `json:"id"`
	EmailAddresses        []clerkEmail `json:"email_addresses"`
	PrimaryEmailAddressID string       `json:"primary_email_address_id"`
	FirstName             string       `json:"first_name"`
	LastName              string       `json:"last_name"`
	ImageURL              string       `json:"image_url"`
}

type clerkEmail struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

// ParseClerkEvent decodes a Clerk user event. The primary email is used
// when present, otherwise the first one.
func ParseClerkEvent(payload []byte) (model.IdentityEvent, error) {
	var ev clerkEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return model.IdentityEvent{}, fmt.Errorf("failed to decode clerk event: %w", err)
	}
	if ev.Type == "" {
		return model.IdentityEvent{}, errors.New("clerk event has no type")
	}
	if ev.Data.ID == "" {
		return model.IdentityEvent{}, errors.New("clerk event has no user id")
	}

	identity := model.FederatedIdentity{
		Provider:  model.ProviderClerk,
		Subject:   ev.Data.ID,
		FirstName: ev.Data.FirstName,
		LastName:  ev.Data.LastName,
		Photo:     ev.Data.ImageURL,
	}

	var email *clerkEmail
	for i := range ev.Data.EmailAddresses {
		e := &ev.Data.EmailAddresses[i]
		if email == nil || e.ID == ev.Data.PrimaryEmailAddressID {
			email = e
		}
	}
	if email != nil {
		identity.Email = email.EmailAddress
		identity.EmailVerified = email.Verification != nil && email.Verification.Status == "verified"
	}

	eventType := model.IdentityEventType(ev.Type)
	if (eventType == model.IdentityCreated || eventType == model.IdentityUpdated) && identity.Email == "" {
		return model.IdentityEvent{}, errors.New("clerk user event has no email")
	}

	return model.IdentityEvent{
		Type:     eventType,
		Identity: identity,
	}, nil
}
