package api

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

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
	"github.com/leaveapproval/attendance-client-go/internal/pkg/session"
)

// TokenSource supplies the bearer token attached to API requests.
// *session.Store implements it.
type TokenSource interface {
	Token() string
}

// Client talks to the leave-and-attendance backend. baseURL is the API
// root (".../api"); endpoint paths are appended to it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				tokens: tokens,
				next:   http.DefaultTransport,
			},
		},
		logger: logger,
	}
}

var _ TokenSource = (*session.Store)(nil)

// authTransport attaches the bearer token to every request whose path
// contains /api/. Without a token the request goes out unauthenticated;
// the backend answers 401 and the caller sees an auth failure.
type authTransport struct {
	tokens TokenSource
	next   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.tokens.Token(); token != "" && strings.Contains(req.URL.Path, "/api/") {
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+token)
		return t.next.RoundTrip(clone)
	}
	return t.next.RoundTrip(req)
}

// Error is a non-2xx backend response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, user.ErrNotAuthenticated) match 401s.
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return user.ErrNotAuthenticated
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// asSentinel rewraps a backend error as a domain sentinel when the
// status code identifies it unambiguously. The original error stays in
// the chain.
func asSentinel(err error, status int, sentinel error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == status {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	c.logger.Debug("api request", "method", req.Method, "path", req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		c.logger.Warn("api error", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// readErrorMessage pulls a human-readable message out of an error body.
// The backend answers either {"message": "..."} or plain text.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
