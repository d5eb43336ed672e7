// Package client is the single point of contact with the club scheduler API.
//
// Every operation attaches the stored bearer token, unwraps the response
// envelope and reports failures as *RequestError with a displayable message.
// An unauthorized response from any endpoint clears the stored token and
// cached profile and invokes the unauthorized handler before the error is
// returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/example/club-scheduler/internal/clientstore"
)

// DefaultTimeout bounds every request when no HTTP client is supplied.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     clientstore.TokenJar
	Profiles   clientstore.ProfileCache
	// OnUnauthorized runs after the stored session was cleared because the
	// backend answered 401. It plays the role of navigating to the login screen.
	OnUnauthorized func()
	Logger         *slog.Logger
}

// Client calls the club scheduler API.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	tokens   clientstore.TokenJar
	profiles clientstore.ProfileCache
	logger   *slog.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// New validates opts and returns a ready client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", opts.BaseURL)
	}
	if opts.Tokens == nil {
		return nil, errors.New("client: token jar is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        base,
		http:           httpClient,
		tokens:         opts.Tokens,
		profiles:       opts.Profiles,
		logger:         logger.With("component", "client"),
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// SetUnauthorizedHandler replaces the handler run after a 401 response.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

// call performs one request. fallback is the message used when the backend
// supplies none. out receives the envelope data and may be nil.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any, fallback string) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return &RequestError{Message: fallback, err: err}
	}

	logger := c.logger.With("method", method, "path", path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.DebugContext(ctx, "request failed", "error", err)
		return &RequestError{Message: fallback, err: err}
	}
	defer resp.Body.Close()
	logger.DebugContext(ctx, "request completed", "status", resp.StatusCode, "duration", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &RequestError{Status: resp.StatusCode, Message: fallback, err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	message := fallback
	if decodeErr == nil && strings.TrimSpace(env.Message) != "" {
		message = env.Message
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.signOut(ctx)
		return &RequestError{Status: resp.StatusCode, Message: message, err: ErrAuthRequired}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Status: resp.StatusCode, Message: message, Fields: fieldErrors(env.Errors)}
	}
	if decodeErr != nil {
		return &RequestError{Status: resp.StatusCode, Message: fallback, err: decodeErr}
	}
	if !env.Success {
		return &RequestError{Status: resp.StatusCode, Message: message, Fields: fieldErrors(env.Errors)}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &RequestError{Status: resp.StatusCode, Message: fallback, err: err}
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, ok, err := c.tokens.Token()
	if err != nil {
		c.logger.WarnContext(ctx, "failed to read stored token", "error", err)
	}
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// signOut clears the persisted session and runs the unauthorized handler.
func (c *Client) signOut(ctx context.Context) {
	if err := c.tokens.ClearToken(); err != nil {
		c.logger.WarnContext(ctx, "failed to clear stored token", "error", err)
	}
	if c.profiles != nil {
		if err := c.profiles.ClearProfile(); err != nil {
			c.logger.WarnContext(ctx, "failed to clear cached profile", "error", err)
		}
	}

	c.mu.RLock()
	handler := c.onUnauthorized
	c.mu.RUnlock()
	if handler != nil {
		handler()
	}
}

func fieldErrors(raw json.RawMessage) []FieldError {
	if len(raw) == 0 {
		return nil
	}
	var fields []FieldError
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}
