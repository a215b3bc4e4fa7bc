package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// RefreshResult is the settled outcome of one refresh cycle, shared by
// every caller that waited on it.
type RefreshResult struct {
	Success     bool
	Terminal    bool // true means re-login is required; do not retry
	AccessToken string
	ExpiresIn   int64
}

type flight struct {
	done   chan struct{}
	result RefreshResult
}

// Coordinator collapses concurrent refresh demands into a single
// network call. The first caller to find no flight in progress starts
// one and publishes its pending result; everyone else waits on the same
// flight. Once settled the slot clears and a future cycle can start.
type Coordinator struct {
	mu      sync.Mutex
	current *flight

	store      *TokenStore
	events     *EventBus
	httpClient *http.Client
	refreshURL string

	routeMu sync.Mutex
	route   string
}

func NewCoordinator(store *TokenStore, events *EventBus, httpClient *http.Client, refreshURL string) *Coordinator {
	return &Coordinator{
		store:      store,
		events:     events,
		httpClient: httpClient,
		refreshURL: refreshURL,
	}
}

// SetRoute records the route the UI currently shows, so a terminal
// failure can preserve it for the post-login redirect.
func (c *Coordinator) SetRoute(route string) {
	c.routeMu.Lock()
	c.route = route
	c.routeMu.Unlock()
}

func (c *Coordinator) currentRoute() string {
	c.routeMu.Lock()
	defer c.routeMu.Unlock()
	return c.route
}

// EnsureFresh guarantees at most one in-flight refresh call regardless
// of how many callers invoke it concurrently. A cached unexpired token
// short-circuits without any network traffic.
func (c *Coordinator) EnsureFresh(ctx context.Context) RefreshResult {
	if !c.store.Expired() {
		token, _ := c.store.Get()
		return RefreshResult{Success: true, AccessToken: token}
	}

	c.mu.Lock()
	if c.current != nil {
		f := c.current
		c.mu.Unlock()
		return c.wait(ctx, f)
	}

	// Re-check under the lock: a flight that settled between the fast
	// path and here already refreshed the store.
	if !c.store.Expired() {
		c.mu.Unlock()
		token, _ := c.store.Get()
		return RefreshResult{Success: true, AccessToken: token}
	}

	f := &flight{done: make(chan struct{})}
	c.current = f
	c.mu.Unlock()

	f.result = c.refresh(ctx)

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	close(f.done)

	return f.result
}

func (c *Coordinator) wait(ctx context.Context, f *flight) RefreshResult {
	select {
	case <-f.done:
		return f.result
	case <-ctx.Done():
		return RefreshResult{Success: false}
	}
}

// refresh performs the actual network call. The cookie jar on the
// shared http.Client carries the refresh cookie; the request body
// stays empty.
func (c *Coordinator) refresh(ctx context.Context) RefreshResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL, nil)
	if err != nil {
		return RefreshResult{Success: false}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level failure is non-terminal: keep local state so a
		// later cycle can retry.
		return RefreshResult{Success: false}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var envelope struct {
			Data struct {
				AccessToken string `json:"access_token"`
				ExpiresIn   int64  `json:"expires_in"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return RefreshResult{Success: false}
		}

		c.store.Set(envelope.Data.AccessToken, envelope.Data.ExpiresIn)
		c.events.emit(EventTokensUpdated, nil)

		return RefreshResult{
			Success:     true,
			AccessToken: envelope.Data.AccessToken,
			ExpiresIn:   envelope.Data.ExpiresIn,
		}

	case http.StatusForbidden:
		// Terminal: the refresh token was rotated out, expired, or the
		// session was revoked. Clear everything and tell the app.
		c.store.Clear()
		c.events.emit(EventAuthExpired, AuthExpiredPayload{Route: c.currentRoute()})
		return RefreshResult{Success: false, Terminal: true}

	default:
		return RefreshResult{Success: false}
	}
}
