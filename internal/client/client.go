// Package client is the API client layer: typed calls for every backend
// route, bound to an explicit Session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthenticated is returned before any network call when the session
// has no token.
var ErrUnauthenticated = errors.New("not signed in")

// RequestFailedError is any non-2xx response.
type RequestFailedError struct {
	Status     int
	StatusText string
	Message    string // the server's {"error"} field, if any
}

func (e *RequestFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed: %d %s: %s", e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("request failed: %d %s", e.Status, e.StatusText)
}

type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func New(baseURL string, session *Session, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// AuthenticatedRequest sends body as JSON with the session's bearer token
// and decodes a 2xx response into out. It does not wait for a token to
// appear and it never retries.
func (c *Client) AuthenticatedRequest(ctx context.Context, method, path string, body, out any) error {
	token := c.session.Token()
	if token == "" {
		return ErrUnauthenticated
	}
	return c.do(ctx, method, path, token, body, out)
}

// AnonymousRequest POSTs body without credentials.
func (c *Client) AnonymousRequest(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, "", body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rf := &RequestFailedError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
		var env struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &env) == nil {
			rf.Message = env.Error
		}
		c.logger.Debug("api request failed", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return rf
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// IsStatus reports whether err is a RequestFailedError with the given code.
func IsStatus(err error, status int) bool {
	var rf *RequestFailedError
	return errors.As(err, &rf) && rf.Status == status
}
