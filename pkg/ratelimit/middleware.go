package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"shopino/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// Middleware applies the limiter to every request, classifying routes
// into auth and general budgets.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "Rate limit check failed")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			retryAfter := result.RetryAfter(time.Now())
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			response.ErrorWithDetails(c, http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests, please wait %d seconds", retryAfter),
				map[string]interface{}{
					"retry_after": retryAfter,
					"limit":       result.Limit,
					"reset_time":  result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth
	case path == "":
		return RateLimitTypeDefault
	default:
		return RateLimitTypeGeneral
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	xRealIP := c.GetHeader("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return ip
}
