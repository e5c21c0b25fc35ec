package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccountNotFound is returned when an account id or identity cannot be resolved.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientCredit is an expected outcome of Reserve, not a failure of the ledger.
	ErrInsufficientCredit = errors.New("insufficient credit")
	// ErrLedgerConflict marks concurrent-update contention. Ledger implementations retry it.
	ErrLedgerConflict = errors.New("ledger conflict")
	// ErrInvalidAmount is returned for non-positive credit amounts.
	ErrInvalidAmount = errors.New("amount must be a positive integer")
	// ErrReservationReleased is returned when committing a reservation that
	// was already refunded, for example by the stale sweeper.
	ErrReservationReleased = errors.New("reservation was released before commit")
	// ErrEmptyImage is returned when a job is submitted without image data.
	ErrEmptyImage = errors.New("image is empty")

	ErrEmailTaken       = errors.New("email is already taken")
	ErrInvalidPassword  = errors.New("invalid email or password")
	ErrFederatedOnly    = errors.New("account uses federated sign in")
	ErrIdentityConflict = errors.New("email is linked to another identity")
	ErrPlanNotFound     = errors.New("plan not found")
)

// ErrUnauthorized matches every AuthError via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// AuthErrorKind classifies credential verification failures.
type AuthErrorKind string

const (
	AuthMissing   AuthErrorKind = "missing"
	AuthInvalid   AuthErrorKind = "invalid"
	AuthExpired   AuthErrorKind = "expired"
	AuthMalformed AuthErrorKind = "malformed"
)

// AuthError is returned by the identity verifier.
type AuthError struct {
	Kind AuthErrorKind
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s credential", e.Kind)
}

// Is makes every AuthError match ErrUnauthorized.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

var (
	ErrMissingCredential   error = &AuthError{Kind: AuthMissing}
	ErrInvalidCredential   error = &AuthError{Kind: AuthInvalid}
	ErrExpiredCredential   error = &AuthError{Kind: AuthExpired}
	ErrMalformedCredential error = &AuthError{Kind: AuthMalformed}
)

// AuthErrorKindOf extracts the kind of a wrapped AuthError. It returns
// AuthInvalid for errors that carry no kind.
func AuthErrorKindOf(err error) AuthErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return AuthInvalid
}

// TransformationError wraps any failure of the external image processor.
// StatusCode is zero for network faults and timeouts.
type TransformationError struct {
	Cause      error
	StatusCode int
}

func (e *TransformationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transformation failed with status %d: %v", e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("transformation failed: %v", e.Cause)
}

func (e *TransformationError) Unwrap() error {
	return e.Cause
}
