// Package remote implements the typed HTTP adapters for the backend REST API:
// one adapter per entity family, all sharing a [Client]. The synchronizer
// layer consumes these through the interfaces it declares; this package is
// the production implementation.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/retry"
)

// APIError is a structured remote failure carrying the HTTP status code the
// backend answered with.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// transientFailure reports whether an error is worth retrying: transport
// failures and 5xx responses, never client errors.
func transientFailure(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	return true
}

// httpRetry is the policy applied to every request.
var httpRetry = retry.Policy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    5 * time.Second,
	Backoff:     retry.Exponential,
	Retryable:   transientFailure,
}

// Client is the shared HTTP core for all entity adapters: base URL, bearer
// auth, JSON codec, bounded retry, and the unauthorized hook.
type Client struct {
	hc      *http.Client
	baseURL string
	token   string
	log     *slog.Logger

	// onUnauthorized fires when the backend answers 401 or 403, regardless of
	// which adapter made the call. The session layer registers the local
	// logout here.
	onUnauthorized func()
}

// NewClient creates a Client for the given API base URL. Per-request timeout
// lives here; the synchronizer layer treats timeouts like any other remote
// failure.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		log:     logger,
	}
}

// OnUnauthorized registers the callback fired on a 401/403 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Probe checks backend reachability for the connectivity oracle. Any HTTP
// response counts as connected; a transport failure is a definitive offline
// answer, not a probe error.
func (c *Client) Probe(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("creating probe request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false, nil
	}
	_ = resp.Body.Close()
	return true, nil
}

// request performs one JSON round trip with retry. in is marshalled as the
// request body when non-nil; the response body is decoded into out when
// non-nil. Non-2xx responses become [*APIError].
func (c *Client) request(ctx context.Context, method, path string, in, out any) error {
	return httpRetry.Do(ctx, func() error {
		return c.doOnce(ctx, method, path, in, out)
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.log.Warn("remote rejected credentials, tearing down session", "status", resp.StatusCode)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &APIError{Status: resp.StatusCode, Message: "unauthorized"}
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(payload))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
