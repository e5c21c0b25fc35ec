package model

import (
	"context"

	"github.com/google/uuid"
)

// Transformer removes the background of an image through an external provider.
type Transformer interface {
	Process(ctx context.Context, image []byte) (ProcessedImage, error)
}

// ProcessedImage is the provider output.
type ProcessedImage struct {
	Data        []byte
	ContentType string
}

// JobState enumerates orchestrator states. Completed and Failed are terminal.
type JobState string

const (
	JobStateAuthenticating JobState = "authenticating"
	JobStateReserving      JobState = "reserving"
	JobStateInvoking       JobState = "invoking"
	JobStateReconciling    JobState = "reconciling"
	JobStateCompleted      JobState = "completed"
	JobStateFailed         JobState = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// FailureReason tells the caller why a job failed.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonUnauthorized         FailureReason = "unauthorized"
	ReasonInsufficientCredit   FailureReason = "insufficient credit"
	ReasonTransformationFailed FailureReason = "transformation failed"
)

// Job is a single submission. It lives for one request.
type Job struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Image     []byte
	State     JobState
}

// JobResult is the tagged outcome of a job. Balance is always the balance
// after the job reached its terminal state.
type JobResult struct {
	JobID     uuid.UUID
	AccountID uuid.UUID
	State     JobState
	Outcome   Outcome
	Balance   int64
	Image     ProcessedImage
	ResultKey string
	Reason    FailureReason
	Cause     error
}

// Succeeded reports whether the job completed.
func (r JobResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}
