package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

// CredentialVerifier resolves a bearer credential to an account id.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (uuid.UUID, error)
}

// JobObserver receives job outcomes for metrics.
type JobObserver interface {
	JobFinished(outcome model.Outcome, reason model.FailureReason, elapsed time.Duration)
	CreditsRefunded(count int)
}

type nopObserver struct{}

func (nopObserver) JobFinished(model.Outcome, model.FailureReason, time.Duration) {}
func (nopObserver) CreditsRefunded(int)                                           {}

// Job runs one background-removal request: authenticate, reserve a credit,
// call the gateway once, then commit or refund the reservation.
type Job struct {
	verifier CredentialVerifier
	ledger   model.Ledger
	gateway  model.Transformer
	archive  model.Storage
	observer JobObserver
	logger   *logger.Logger
}

// NewJob builds the orchestrator. archive and observer may be nil.
func NewJob(
	verifier CredentialVerifier,
	ledger model.Ledger,
	gateway model.Transformer,
	archive model.Storage,
	observer JobObserver,
	logger *logger.Logger,
) *Job {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Job{
		verifier: verifier,
		ledger:   ledger,
		gateway:  gateway,
		archive:  archive,
		observer: observer,
		logger:   logger,
	}
}

// Submit returns a result for every expected outcome, including
// insufficient credit and gateway failure. A non-nil error means the request
// was rejected (unauthorized, empty image) or the ledger failed.
func (j *Job) Submit(ctx context.Context, credential string, image []byte) (model.JobResult, error) {
	started := time.Now()
	job := model.Job{
		ID:    uuid.New(),
		Image: image,
		State: model.JobStateAuthenticating,
	}

	accountID, err := j.verifier.Verify(ctx, credential)
	if err != nil {
		result := j.fail(job, 0, model.ReasonUnauthorized, err)
		j.observer.JobFinished(result.Outcome, result.Reason, time.Since(started))
		return result, fmt.Errorf("failed to authenticate job: %w", err)
	}
	job.AccountID = accountID

	if len(image) == 0 {
		return model.JobResult{JobID: job.ID, AccountID: accountID, State: model.JobStateFailed, Outcome: model.OutcomeFailure}, model.ErrEmptyImage
	}

	job.State = model.JobStateReserving
	reservation, err := j.ledger.Reserve(ctx, accountID, model.JobCost)
	if err != nil {
		if !errors.Is(err, model.ErrInsufficientCredit) {
			j.logger.Error("Job service: failed to reserve credit",
				"job_id", job.ID,
				"account_id", accountID,
				"error", err.Error())
			return model.JobResult{JobID: job.ID, AccountID: accountID, State: model.JobStateFailed, Outcome: model.OutcomeFailure},
				fmt.Errorf("failed to reserve credit: %w", err)
		}

		balance, balanceErr := j.ledger.GetBalance(ctx, accountID)
		if balanceErr != nil {
			return model.JobResult{JobID: job.ID, AccountID: accountID, State: model.JobStateFailed, Outcome: model.OutcomeFailure},
				fmt.Errorf("failed to get balance: %w", balanceErr)
		}

		j.logger.Info("Job service: insufficient credit",
			"job_id", job.ID,
			"account_id", accountID,
			"balance", balance)
		result := j.fail(job, balance, model.ReasonInsufficientCredit, err)
		j.observer.JobFinished(result.Outcome, result.Reason, time.Since(started))
		return result, nil
	}

	job.State = model.JobStateInvoking
	processed, gatewayErr := j.gateway.Process(ctx, image)

	// The reservation must be settled even if the caller went away.
	job.State = model.JobStateReconciling
	settleCtx := context.WithoutCancel(ctx)

	if gatewayErr != nil {
		balance, err := j.ledger.Settle(settleCtx, reservation, model.OutcomeFailure)
		if err != nil {
			j.logger.Error("Job service: failed to refund reservation",
				"job_id", job.ID,
				"reservation_id", reservation.ID,
				"error", err.Error())
			return model.JobResult{JobID: job.ID, AccountID: accountID, State: model.JobStateFailed, Outcome: model.OutcomeFailure},
				fmt.Errorf("failed to settle reservation: %w", err)
		}

		j.logger.Warn("Job service: transformation failed, credit refunded",
			"job_id", job.ID,
			"account_id", accountID,
			"balance", balance,
			"error", gatewayErr.Error())
		j.observer.CreditsRefunded(1)
		result := j.fail(job, balance, model.ReasonTransformationFailed, gatewayErr)
		j.observer.JobFinished(result.Outcome, result.Reason, time.Since(started))
		return result, nil
	}

	balance, err := j.ledger.Settle(settleCtx, reservation, model.OutcomeSuccess)
	if errors.Is(err, model.ErrReservationReleased) {
		j.logger.Warn("Job service: reservation released before commit, debiting again",
			"job_id", job.ID,
			"reservation_id", reservation.ID)
		balance, err = j.redebit(settleCtx, accountID)
		if errors.Is(err, model.ErrInsufficientCredit) {
			result := j.fail(job, balance, model.ReasonInsufficientCredit, err)
			j.observer.JobFinished(result.Outcome, result.Reason, time.Since(started))
			return result, nil
		}
	}
	if err != nil {
		j.logger.Error("Job service: failed to commit reservation",
			"job_id", job.ID,
			"reservation_id", reservation.ID,
			"error", err.Error())
		return model.JobResult{JobID: job.ID, AccountID: accountID, State: model.JobStateFailed, Outcome: model.OutcomeFailure},
			fmt.Errorf("failed to settle reservation: %w", err)
	}

	job.State = model.JobStateCompleted
	result := model.JobResult{
		JobID:     job.ID,
		AccountID: accountID,
		State:     job.State,
		Outcome:   model.OutcomeSuccess,
		Balance:   balance,
		Image:     processed,
	}
	result.ResultKey = j.store(settleCtx, job, processed)

	j.logger.Info("Job service: job completed",
		"job_id", job.ID,
		"account_id", accountID,
		"balance", balance)
	j.observer.JobFinished(result.Outcome, result.Reason, time.Since(started))

	return result, nil
}

// Result opens an archived result. Accounts can only read their own jobs.
func (j *Job) Result(ctx context.Context, accountID, jobID uuid.UUID) (io.ReadCloser, error) {
	if j.archive == nil {
		return nil, model.ErrNotFound
	}

	key := ResultKey(accountID, jobID)
	exists, err := j.archive.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check result: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}

	rc, err := j.archive.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download result: %w", err)
	}
	return rc, nil
}

// redebit charges a job whose reservation was released while the gateway
// was running. On ErrInsufficientCredit the returned balance is current.
func (j *Job) redebit(ctx context.Context, accountID uuid.UUID) (int64, error) {
	reservation, err := j.ledger.Reserve(ctx, accountID, model.JobCost)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientCredit) {
			balance, balanceErr := j.ledger.GetBalance(ctx, accountID)
			if balanceErr != nil {
				return 0, fmt.Errorf("failed to get balance: %w", balanceErr)
			}
			return balance, err
		}
		return 0, err
	}
	return j.ledger.Settle(ctx, reservation, model.OutcomeSuccess)
}

// ResultKey is the object key of an archived job result.
func ResultKey(accountID, jobID uuid.UUID) string {
	return fmt.Sprintf("results/%s/%s.png", accountID, jobID)
}

// store archives the processed image. Failures are logged only, since the
// credit is already committed.
func (j *Job) store(ctx context.Context, job model.Job, processed model.ProcessedImage) string {
	if j.archive == nil {
		return ""
	}

	key := ResultKey(job.AccountID, job.ID)
	contentType := processed.ContentType
	if contentType == "" {
		contentType = "image/png"
	}

	err := j.archive.Upload(ctx, key, bytes.NewReader(processed.Data), int64(len(processed.Data)), contentType)
	if err != nil {
		j.logger.Warn("Job service: failed to archive result",
			"job_id", job.ID,
			"key", key,
			"error", err.Error())
		return ""
	}
	return key
}

func (j *Job) fail(job model.Job, balance int64, reason model.FailureReason, cause error) model.JobResult {
	return model.JobResult{
		JobID:     job.ID,
		AccountID: job.AccountID,
		State:     model.JobStateFailed,
		Outcome:   model.OutcomeFailure,
		Balance:   balance,
		Reason:    reason,
		Cause:     cause,
	}
}
