package ratelimit

import (
	"context"
	"fmt"
	"time"
)

type RateLimitType string

const (
	RateLimitTypeDefault RateLimitType = "default"
	RateLimitTypeAuth    RateLimitType = "auth"
	RateLimitTypeGeneral RateLimitType = "general"
)

// Config for the fixed-window limiter. Auth endpoints get a much
// tighter budget than general traffic.
type Config struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	AuthRequests    int           `json:"auth_requests"`
	GeneralRequests int           `json:"general_requests"`
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RetryAfter returns the seconds until the window resets, floored at 1
// so callers always see a positive wait.
func (r *Result) RetryAfter(now time.Time) int64 {
	retry := r.ResetTime - now.Unix()
	if retry < 1 {
		retry = 1
	}
	return retry
}

// Store is the counter backend. Hit performs the atomic
// read-increment-write for one key inside one window: it returns the
// count after this request and the window reset time, without
// incrementing past the limit once the window is full.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (count int, resetTime int64, err error)
}

// RateLimiter applies fixed-window counting per (client, class) key.
// State lives entirely in the injected Store, so tests and replicas can
// own isolated instances.
type RateLimiter struct {
	store  Store
	config *Config
}

func NewRateLimiter(store Store, config *Config) *RateLimiter {
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

// IsAllowed checks whether a request from clientIP is within the budget
// for the given class.
func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)

	if !r.config.Enabled {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := fmt.Sprintf("shopino:ratelimit:%s:%s", clientIP, limitType)

	count, resetTime, err := r.store.Hit(ctx, key, limit, r.config.WindowDuration)
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}, nil
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypeAuth:
		return r.config.AuthRequests
	case RateLimitTypeGeneral:
		return r.config.GeneralRequests
	default:
		return r.config.DefaultRequests
	}
}
