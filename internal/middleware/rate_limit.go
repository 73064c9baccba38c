package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/anonto42/reddit-feed/backend/internal/ratelimit"
	"github.com/labstack/echo/v4"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) ratelimit.Decision
}

// RateLimit throttles per authenticated user, falling back to the client IP.
func RateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if id, ok := auth.UserIDFromContext(c.Request().Context()); ok {
				key = "user:" + strconv.FormatUint(uint64(id), 10)
			}

			d := limiter.Allow(c.Request().Context(), key)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many votes, slow down")
			}
			return next(c)
		}
	}
}
