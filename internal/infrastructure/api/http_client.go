package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
)

// HTTPClient implements service.HTTPClient on top of net/http
type HTTPClient struct {
	client *http.Client
	logger logger.Logger
}

var _ service.HTTPClient = (*HTTPClient)(nil)

// NewHTTPClient creates a client with the given timeout. Outbound requests carry the
// context's request ID and are logged.
func NewHTTPClient(timeout time.Duration, log logger.Logger) *HTTPClient {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := middleware.RequestIDTransport(
		middleware.LoggingTransport(log, http.DefaultTransport),
	)

	return &HTTPClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: log,
	}
}

// Get issues a GET request and returns the status code and the full body
func (c *HTTPClient) Get(ctx context.Context, url string) (*service.HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"url":   url,
				"error": closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &service.HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
