// Package apiclient is the storefront's HTTP client for the auth
// service: it caches the access token, attaches it to every outbound
// request, and transparently renews it once per expiry via a
// single-flight refresh coordinator. The refresh token stays inside the
// client's cookie jar and is never readable by callers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const refreshPath = "/auth/refresh"

type Client struct {
	baseURL string
	http    *http.Client

	Store       *TokenStore
	Events      *EventBus
	Coordinator *Coordinator
}

// New builds a client for the given API base URL, e.g.
// "https://shop.example.com/api/v1". The timeout applies per request;
// a timeout is treated like any other network failure (non-terminal).
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	httpClient := &http.Client{
		Jar:     jar,
		Timeout: timeout,
	}

	store := NewTokenStore()
	events := NewEventBus()
	base := strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:     base,
		http:        httpClient,
		Store:       store,
		Events:      events,
		Coordinator: NewCoordinator(store, events, httpClient, base+refreshPath),
	}, nil
}

// Do sends the request with the access token attached. On a 401 from
// any endpoint except refresh itself, it runs one refresh cycle and
// retries the original request exactly once with the new token; if the
// refresh fails the original 401 is returned untouched.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	token, hadToken := c.Store.Get()
	if hadToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	// A 401 without a token attached is a plain credential failure
	// (e.g. wrong login password), not an expired access token.
	if resp.StatusCode != http.StatusUnauthorized || !hadToken || c.isRefreshRequest(req) {
		return resp, nil
	}

	// The server rejected a token the cache still considered fresh, so
	// the cache is wrong. Dropping it forces the coordinator past its
	// fast path; a token already rotated in by a concurrent refresh is
	// left alone.
	c.Store.Invalidate(token)

	result := c.Coordinator.EnsureFresh(req.Context())
	if !result.Success {
		return resp, nil
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return resp, nil
	}
	retry.Header.Set("Authorization", "Bearer "+result.AccessToken)

	retryResp, err := c.http.Do(retry)
	if err != nil {
		return resp, nil
	}

	resp.Body.Close()
	return retryResp, nil
}

// Refresh requests never recurse through the interceptor.
func (c *Client) isRefreshRequest(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, refreshPath)
}

// cloneRequest rebuilds a request so its body can be sent again.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// Credentials for Login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the client-visible login result.
type Session struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	User        json.RawMessage `json:"user"`
}

// Login authenticates and primes the token store and cookie jar.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	var session Session
	if err := c.postJSON(ctx, "/auth/login", creds, &session); err != nil {
		return nil, err
	}

	c.Store.Set(session.AccessToken, session.ExpiresIn)
	c.Events.emit(EventTokensUpdated, nil)
	return &session, nil
}

// Logout ends the session server-side and clears local token state.
func (c *Client) Logout(ctx context.Context, all bool) error {
	err := c.postJSON(ctx, "/auth/logout", map[string]bool{"logout_all": all}, nil)
	c.Store.Clear()
	return err
}

// Profile fetches the current user through the interceptor, so an
// expired access token is renewed transparently.
func (c *Client) Profile(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/profile", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile: %s", env.Message)
	}
	return env.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", path, env.Message)
	}
	if out != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func decodeEnvelope(r io.Reader) (*envelope, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}
