// Package client is a typed Go client for the board HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/requestid"
	"github.com/p-blackswan/kanban-board/internal/retry"
)

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the board REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	retry      retry.Config
	logger     zerolog.Logger
}

// NewClient creates a new API client. token may be empty when the server runs without auth.
func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry.DefaultConfig(),
		logger:     logger.With().Str("component", "api_client").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// SetRetry replaces the retry policy applied to reads.
func (c *Client) SetRetry(cfg retry.Config) {
	c.retry = cfg
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Success   bool             `json:"success"`
	Data      json.RawMessage  `json:"data"`
	Error     *string          `json:"error"`
	ErrorCode kerrors.Code     `json:"errorCode"`
	Details   *kerrors.Details `json:"details"`
}

type call struct {
	method  string
	path    string
	body    any
	out     any
	headers map[string]string
}

// do executes one request and decodes the envelope into cl.out.
// Error envelopes come back as *kerrors.APIError carrying the HTTP status.
func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(requestid.Header, requestid.FromContext(ctx))
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("executing request: %w: %w", kerrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &kerrors.APIError{
				Code:       kerrors.CodeInternal,
				StatusCode: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
			}
		}
		return fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := http.StatusText(resp.StatusCode)
		if env.Error != nil {
			msg = *env.Error
		}
		c.logger.Debug().
			Str("method", cl.method).
			Str("path", cl.path).
			Int("status", resp.StatusCode).
			Str("code", string(env.ErrorCode)).
			Msg("api error")
		return &kerrors.APIError{
			Code:       env.ErrorCode,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Details:    env.Details,
		}
	}

	if cl.out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, cl.out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

// get performs an idempotent read with the configured retry policy.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.do(ctx, call{method: http.MethodGet, path: path, out: out})
	})
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, call{method: method, path: path, body: body, out: out})
}

func escape(s string) string {
	return url.PathEscape(s)
}

func versionHeader(version int64) map[string]string {
	if version <= 0 {
		return nil
	}
	return map[string]string{"If-Match": strconv.Quote(strconv.FormatInt(version, 10))}
}
