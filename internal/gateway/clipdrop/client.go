// Package clipdrop calls the ClipDrop remove-background API.
package clipdrop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dtroode/cutout-server/internal/model"
)

const (
	defaultBaseURL = "https://clipdrop-api.co"
	removeBgPath   = "/remove-background/v1"
	maxErrorBody   = 4 << 10
)

var _ model.Transformer = (*Client)(nil)

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
	}
}

// Process sends the image once. Every failure, including timeouts and
// non-2xx replies, is returned as *model.TransformationError.
func (c *Client) Process(ctx context.Context, image []byte) (model.ProcessedImage, error) {
	if c.apiKey == "" {
		return model.ProcessedImage{}, &model.TransformationError{Cause: errors.New("clipdrop: API key is missing")}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image_file", "image")
	if err != nil {
		return model.ProcessedImage{}, &model.TransformationError{Cause: err}
	}
	if _, err := part.Write(image); err != nil {
		return model.ProcessedImage{}, &model.TransformationError{Cause: err}
	}
	if err := writer.Close(); err != nil {
		return model.ProcessedImage{}, &model.TransformationError{Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+removeBgPath, &body)
	if err != nil {
		return model.ProcessedImage{}, &model.TransformationError{Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.ProcessedImage{}, &model.TransformationError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return model.ProcessedImage{}, &model.TransformationError{
			Cause:      fmt.Errorf("clipdrop: http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			StatusCode: resp.StatusCode,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ProcessedImage{}, &model.TransformationError{Cause: fmt.Errorf("clipdrop: read body: %w", err)}
	}
	if len(data) == 0 {
		return model.ProcessedImage{}, &model.TransformationError{Cause: errors.New("clipdrop: empty response")}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return model.ProcessedImage{
		Data:        data,
		ContentType: contentType,
	}, nil
}
