// Package api is the client for the pixelfit backend: authentication,
// session and the image resize endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pixelfit/pixelfit/internal/env"
)

const (
	pathLogin       = "/api/login"
	pathSignup      = "/api/signup"
	pathOAuthStart  = "/api/auth/google/start"
	pathOAuthLink   = "/api/auth/google/link/start"
	pathMe          = "/api/me"
	pathUsername    = "/api/username"
	pathLogout      = "/api/logout"
	pathResize      = "/resize"
	pathHealth      = "/health"
	pathSizes       = "/sizes"
	defaultTimeout  = 2 * time.Minute
	maxErrorBodyLen = 64 << 10
)

// Client talks to one backend. Every request carries the cookie jar, so a
// session established by Login is sent on later calls.
type Client struct {
	env    env.Environment
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithJar sets the cookie jar used for the session.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.http.Jar = jar }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the backend of e.
func New(e env.Environment, opts ...Option) *Client {
	c := &Client{
		env:    e,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Environment returns the environment the client was built for.
func (c *Client) Environment() env.Environment { return c.env }

// Paths of the credential endpoints accepted by SubmitCredentials.
const (
	LoginPath  = pathLogin
	SignupPath = pathSignup
)

// SubmitCredentials posts payload as JSON to a credential endpoint. A 2xx
// answer means the backend set the session cookie.
func (c *Client) SubmitCredentials(ctx context.Context, path string, payload any) error {
	_, err := c.postJSON(ctx, path, payload, nil)
	return err
}

// Login starts a session with email and password.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	return c.SubmitCredentials(ctx, pathLogin, req)
}

// Signup creates an account and starts a session for it.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.SubmitCredentials(ctx, pathSignup, req)
}

// OAuthStartURL is where a browser is sent to sign in with Google.
func (c *Client) OAuthStartURL() string {
	return c.env.Endpoint(pathOAuthStart)
}

// GoogleLinkURL asks the backend to start linking a Google account to the
// session user and returns the Google consent URL it redirects to.
func (c *Client) GoogleLinkURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.env.Endpoint(pathOAuthLink), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	hc := *c.http
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logger.DebugContext(ctx, "request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, nil
		}
	}
	if resp.StatusCode >= 400 {
		return "", readError(resp)
	}
	return "", fmt.Errorf("%s: backend answered %d without a redirect", pathOAuthLink, resp.StatusCode)
}

// Me returns the current session user. Any non-2xx answer, or a 2xx answer
// without a user, yields ErrNotAuthenticated.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.getJSON(ctx, pathMe, &resp); err != nil {
		if _, ok := AsError(err); ok {
			return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrNotAuthenticated
	}
	return resp.User, nil
}

// UpdateUsername changes the username of the session user and returns the
// username the backend stored.
func (c *Client) UpdateUsername(ctx context.Context, username string) (string, error) {
	var resp usernameResponse
	if _, err := c.postJSON(ctx, pathUsername, usernameRequest{Username: username}, &resp); err != nil {
		return "", err
	}
	if resp.Username == "" {
		return username, nil
	}
	return resp.Username, nil
}

// Logout asks the backend to end the session and returns the HTTP status.
// Session invalidation is the backend's business, so non-2xx answers are
// not errors here.
func (c *Client) Logout(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.env.Endpoint(pathLogout), nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, pathHealth, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

// Sizes lists the output formats the backend renders for each image.
func (c *Client) Sizes(ctx context.Context) ([]Size, error) {
	var resp sizesResponse
	if err := c.getJSON(ctx, pathSizes, &resp); err != nil {
		return nil, err
	}
	return resp.Sizes, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.env.Endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	_, err = c.roundTrip(req, out)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshalling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.env.Endpoint(path), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.roundTrip(req, out)
}

// roundTrip sends req, turns non-2xx answers into *Error and decodes a 2xx
// JSON body into out when out is non-nil.
func (c *Client) roundTrip(req *http.Request, out any) (int, error) {
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return resp.StatusCode, readError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return resp.StatusCode, fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(req.Context(), "request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	c.logger.DebugContext(req.Context(), "request",
		"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}

func readError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	if err != nil {
		return fmt.Errorf("%w: reading error body: %w", ErrUnavailable, err)
	}
	return newError(resp.StatusCode, body)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// contentTypeOf strips parameters from a Content-Type header value.
func contentTypeOf(h http.Header) string {
	ct := h.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
