// Package transport issues signed HTTP requests against the enable banking
// API and decodes JSON responses into generic mappings.
//
// Every request carries a fresh bearer JWT from the configured TokenSource.
// The session header is attached automatically once a session id is set;
// the initial consent and exchange calls opt out with WithoutSession.
// Non-2xx responses are surfaced as *APIError — retry policy belongs to the
// caller, never to this layer.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionHeader carries the session id on all account-data calls.
const SessionHeader = "X-EnableBanking-Session"

const defaultTimeout = 30 * time.Second

// ErrDecode is returned when a 2xx response body is not valid JSON.
var ErrDecode = errors.New("undecodable response body")

// TokenSource supplies a fresh bearer credential per request.
type TokenSource interface {
	Token() (string, error)
}

// APIError is a non-2xx response returned to the caller undecoded; callers
// decide retry/fatal policy.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	body := string(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, body)
}

// Client defines the signed HTTP transport used by goBanking APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource

	mu      sync.RWMutex
	session string
}

// New builds a Client for the given API base URL.
//
// New may return an error when input validation fails.
func New(base string, tokens TokenSource, httpClient *http.Client) (*Client, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("api base url must be absolute")
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: u, http: httpClient, tokens: tokens}, nil
}

// Host returns the API host, used as the JWT audience.
func (c *Client) Host() string {
	return c.base.Host
}

// SetSession attaches the session id to subsequent requests.
func (c *Client) SetSession(id string) {
	c.mu.Lock()
	c.session = id
	c.mu.Unlock()
}

// ClearSession removes the session id from subsequent requests.
func (c *Client) ClearSession() {
	c.SetSession("")
}

// Session returns the currently attached session id, if any.
func (c *Client) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

type requestOptions struct {
	withoutSession bool
}

// Option adjusts a single request.
type Option func(*requestOptions)

// WithoutSession suppresses the session header. Used only for the initial
// consent and exchange calls, where no session exists yet.
func WithoutSession() Option {
	return func(o *requestOptions) { o.withoutSession = true }
}

// Do issues one signed request and decodes the JSON response.
//
// JSON bodies are serialized with stable key ordering for reproducibility.
// A non-2xx status returns a *APIError carrying the raw body. A 2xx body
// that is not valid JSON returns an error wrapping ErrDecode.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, opts ...Option) (map[string]any, error) {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		// encoding/json emits map keys in sorted order, which keeps
		// request bodies reproducible in tests.
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !options.withoutSession {
		if sid := c.Session(); sid != "" {
			req.Header.Set(SessionHeader, sid)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: respBody}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return map[string]any{}, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return decoded, nil
}
