// Package google verifies Google Sign-In ID tokens against Google's JWKS.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/cutout-server/internal/model"
)

const (
	DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultIssuer  = "https://accounts.google.com"

	keysTTL = time.Hour
	// minRefresh bounds how often an unknown kid can trigger a fetch.
	minRefresh = 30 * time.Second
)

var _ model.IDTokenVerifier = (*Verifier)(nil)

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Claims are the ID token claims the service reads.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

type Verifier struct {
	issuers    []string
	clientID   string
	jwksURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetched   time.Time
	attempted time.Time
}

func NewVerifier(issuer, clientID, jwksURL string) *Verifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}
	issuers := []string{issuer}
	if issuer == DefaultIssuer {
		issuers = append(issuers, strings.TrimPrefix(DefaultIssuer, "https://"))
	}
	return &Verifier{
		issuers:    issuers,
		clientID:   clientID,
		jwksURL:    jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		keys:       make(map[string]*rsa.PublicKey),
	}
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (model.FederatedIdentity, error) {
	if strings.TrimSpace(idToken) == "" {
		return model.FederatedIdentity{}, model.ErrMissingCredential
	}
	if v.clientID == "" {
		return model.FederatedIdentity{}, errors.New("google: client id is not configured")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.FederatedIdentity{}, fmt.Errorf("%w: %v", model.ErrExpiredCredential, err)
		}
		return model.FederatedIdentity{}, fmt.Errorf("%w: %v", model.ErrInvalidCredential, err)
	}

	if !v.validIssuer(claims.Issuer) {
		return model.FederatedIdentity{}, fmt.Errorf("%w: invalid issuer %q", model.ErrInvalidCredential, claims.Issuer)
	}
	if claims.Subject == "" || claims.Email == "" {
		return model.FederatedIdentity{}, fmt.Errorf("%w: missing sub or email", model.ErrMalformedCredential)
	}

	return model.FederatedIdentity{
		Provider:      model.ProviderGoogle,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
		Photo:         claims.Picture,
	}, nil
}

func (v *Verifier) validIssuer(iss string) bool {
	for _, allowed := range v.issuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

// key returns the cached key for kid, refreshing the set once when it is
// stale or the kid is unknown. Refreshes start at most once per minRefresh.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	pk, ok := v.keys[kid]
	fresh := time.Since(v.fetched) < keysTTL
	throttled := time.Since(v.attempted) < minRefresh
	if !throttled && !(ok && fresh) {
		v.attempted = time.Now()
	}
	v.mu.Unlock()
	if ok && fresh {
		return pk, nil
	}
	if throttled {
		if ok {
			return pk, nil
		}
		return nil, fmt.Errorf("unknown kid %q", kid)
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	pk, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return pk, nil
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build jwks request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch jwks: http %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.fetched = time.Now()
	v.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
