package webhook

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/dtroode/cutout-server/internal/model"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("super-secret-key"))

func signedHeader(t *testing.T, id string, ts time.Time, payload []byte) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(testSecret)
	require.NoError(t, err)
	signature, err := wh.Sign(id, ts, payload)
	require.NoError(t, err)

	h := http.Header{}
	h.Set(HeaderID, id)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts.Unix(), 10))
	h.Set(HeaderSignature, "v1,bogus "+signature)
	return h
}

func TestVerifier_Verify(t *testing.T) {
	now := time.Now()
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"type":"user.created"}`)

	tests := []struct {
		name    string
		header  func() http.Header
		payload []byte
		wantErr error
	}{
		{name: "valid", header: func() http.Header { return signedHeader(t, "msg_1", now, payload) }, payload: payload},
		{name: "tampered payload", header: func() http.Header { return signedHeader(t, "msg_1", now, payload) }, payload: []byte(`{"type":"user.deleted"}`), wantErr: ErrInvalidSignature},
		{name: "old timestamp", header: func() http.Header { return signedHeader(t, "msg_1", now.Add(-10*time.Minute), payload) }, payload: payload, wantErr: ErrInvalidSignature},
		{name: "future timestamp", header: func() http.Header { return signedHeader(t, "msg_1", now.Add(10*time.Minute), payload) }, payload: payload, wantErr: ErrInvalidSignature},
		{name: "missing headers", header: func() http.Header { return http.Header{} }, payload: payload, wantErr: ErrMissingHeaders},
		{name: "bad timestamp", header: func() http.Header {
			h := signedHeader(t, "msg_1", now, payload)
			h.Set(HeaderTimestamp, "yesterday")
			return h
		}, payload: payload, wantErr: ErrInvalidSignature},
		{name: "other secret", header: func() http.Header {
			other, err := svix.NewWebhook("whsec_" + base64.StdEncoding.EncodeToString([]byte("another-key")))
			require.NoError(t, err)
			signature, err := other.Sign("msg_1", now, payload)
			require.NoError(t, err)
			h := signedHeader(t, "msg_1", now, payload)
			h.Set(HeaderSignature, signature)
			return h
		}, payload: payload, wantErr: ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.header(), tt.payload)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewVerifier_BadSecret(t *testing.T) {
	_, err := NewVerifier("whsec_%%%")
	assert.Error(t, err)

	_, err = NewVerifier("")
	assert.Error(t, err)
}

func TestParseClerkEvent(t *testing.T) {
	payload := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_29w83sxmDNGwOuEthce5gg56FcC",
			"first_name": "Ada",
			"last_name": "Lovelace",
			"image_url": "https://img.clerk.com/ada",
			"primary_email_address_id": "idn_2",
			"email_addresses": [
				{"id": "idn_1", "email_address": "old@example.com", "verification": {"status": "unverified"}},
				{"id": "idn_2", "email_address": "ada@example.com", "verification": {"status": "verified"}}
			]
		}
	}`)

	ev, err := ParseClerkEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, model.IdentityCreated, ev.Type)
	assert.Equal(t, model.FederatedIdentity{
		Provider:      model.ProviderClerk,
		Subject:       "user_29w83sxmDNGwOuEthce5gg56FcC",
		Email:         "ada@example.com",
		EmailVerified: true,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Photo:         "https://img.clerk.com/ada",
	}, ev.Identity)
}

func TestParseClerkEvent_Deleted(t *testing.T) {
	ev, err := ParseClerkEvent([]byte(`{"type":"user.deleted","data":{"id":"user_1","deleted":true}}`))
	require.NoError(t, err)
	assert.Equal(t, model.IdentityDeleted, ev.Type)
	assert.Equal(t, "user_1", ev.Identity.Subject)
}

func TestParseClerkEvent_Invalid(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":         `{`,
		"no type":          `{"data":{"id":"user_1"}}`,
		"no user id":       `{"type":"user.created","data":{}}`,
		"created no email": `{"type":"user.created","data":{"id":"user_1"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseClerkEvent([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestDisabled_Verify(t *testing.T) {
	err := Disabled{}.Verify(http.Header{}, []byte("{}"))
	assert.ErrorIs(t, err, ErrDisabled)
}
