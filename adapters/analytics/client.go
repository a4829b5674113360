// Package analytics implements the AnalyticsBackend port over HTTP. The
// backend is a separate statistics service; this client only ships prepared
// data and declarative specifications and maps failures onto the engine's
// error taxonomy.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"semflow/domain/analytics"
	"semflow/domain/core"
	"semflow/ports"
)

// Config holds client settings.
type Config struct {
	BaseURL       string
	HealthTimeout time.Duration
	RunTimeout    time.Duration
}

// Client is an HTTP JSON client for the statistics backend.
type Client struct {
	baseURL       string
	healthTimeout time.Duration
	httpClient    *http.Client
}

// NewClient creates a backend client. RunTimeout zero means no client-side
// deadline on Run: estimation can take tens of seconds and cancellation is
// the caller's context's job.
func NewClient(config Config) (ports.AnalyticsBackend, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing analytics backend URL")
	}
	healthTimeout := config.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		healthTimeout: healthTimeout,
		httpClient:    &http.Client{Timeout: config.RunTimeout},
	}, nil
}

// Health probes GET /health with a bounded timeout. Any failure maps to the
// unavailable error so callers get actionable remediation, not a generic
// network error.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return core.NewBackendUnavailableError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.NewBackendUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.NewBackendUnavailableError(fmt.Errorf("health endpoint returned %s", resp.Status))
	}
	return nil
}

// Run posts one analysis request. 4xx replies are rejections carrying the
// backend's diagnostic and are not retried; transport failures and 5xx are
// unavailability.
func (c *Client) Run(ctx context.Context, request *analytics.Request) (*analytics.Result, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewBackendUnavailableError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewBackendUnavailableError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewBackendUnavailableError(err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, core.NewBackendRejectedError(diagnosticFrom(payload, resp.Status))
	default:
		return nil, core.NewBackendUnavailableError(fmt.Errorf("backend returned %s", resp.Status))
	}

	var result analytics.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, core.NewBackendRejectedError(fmt.Sprintf("unreadable backend response: %v", err))
	}
	result.Kind = request.Config.Kind
	result.Raw = payload
	return &result, nil
}

// diagnosticFrom pulls the backend's error message out of a rejection body,
// falling back to the HTTP status line.
func diagnosticFrom(payload []byte, status string) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return status
}
