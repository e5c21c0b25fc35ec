package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/cutout-server/internal/api/http/middleware"
	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/model"
)

const multipartOverhead = 1 << 20

// JobService runs background removal jobs.
type JobService interface {
	Submit(ctx context.Context, credential string, image []byte) (model.JobResult, error)
	Result(ctx context.Context, accountID, jobID uuid.UUID) (io.ReadCloser, error)
}

type Image struct {
	jobService     JobService
	contextManager model.ContextManager
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewImage(jobService JobService, contextManager model.ContextManager, maxUploadBytes int64, logger *logger.Logger) *Image {
	return &Image{
		jobService:     jobService,
		contextManager: contextManager,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type removeBgResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	ResultImage   string `json:"resultImage,omitempty"`
	CreditBalance int64  `json:"creditBalance"`
	JobID         string `json:"jobId,omitempty"`
	ResultKey     string `json:"resultKey,omitempty"`
}

// RemoveBackground authenticates inside the job, so it is mounted without
// the Authenticate middleware.
func (h *Image) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	image, err := h.readImage(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, errImageTooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		h.logger.Debug("Image handler: no image in request",
			"error", err.Error())
	}

	result, err := h.jobService.Submit(r.Context(), middleware.Credential(r), image)
	if err != nil {
		handleError(w, err, "Failed to process image")
		return
	}

	if !result.Succeeded() {
		writeJSON(w, http.StatusOK, removeBgResponse{
			Success:       false,
			Message:       string(result.Reason),
			CreditBalance: result.Balance,
			JobID:         result.JobID.String(),
		})
		return
	}

	contentType := result.Image.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	writeJSON(w, http.StatusOK, removeBgResponse{
		Success:       true,
		Message:       "Background removed",
		ResultImage:   fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(result.Image.Data)),
		CreditBalance: result.Balance,
		JobID:         result.JobID.String(),
		ResultKey:     result.ResultKey,
	})
}

// Result streams an archived result of the caller's own job.
func (h *Image) Result(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		middleware.Unauthorized(w, model.ErrMissingCredential)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	rc, err := h.jobService.Result(r.Context(), accountID, jobID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Result not found")
			return
		}
		h.logger.Error("Image handler: failed to open result",
			"job_id", jobID,
			"error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to load result")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Image handler: result stream interrupted",
			"job_id", jobID,
			"error", err.Error())
	}
}

var errImageTooLarge = errors.New("image is too large")

// readImage returns the "image" multipart field. A missing field yields a
// nil slice so the job can still report authentication failures first.
func (h *Image) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}
