// Package graph holds the shared plumbing for Microsoft Graph calls. The
// bearer token is supplied per request because every call runs on behalf of a
// signed-in user.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/nverhoeven/taskpilot/internal/config"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New creates a Graph client. The limiter keeps bursts of drive traversal and
// batch requests under Graph's per-app throttling thresholds.
func New(cfg config.MicrosoftConfig, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    cfg.GetGraphBaseURL(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Do issues one authenticated request against a Graph path (leading slash,
// query included) and returns the raw body. Non-2xx responses become
// UpstreamError; 401 additionally wraps ErrReauthRequired.
func (c *Client) Do(ctx context.Context, method, path, accessToken string, payload any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "graph rate limiter")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "graph encode payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "graph new request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "graph do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "graph read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &apperrors.UpstreamAuthError{StatusCode: resp.StatusCode, Body: raw}
		}
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, nil
}

// Get is Do without a payload.
func (c *Client) Get(ctx context.Context, path, accessToken string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, accessToken, nil)
}
