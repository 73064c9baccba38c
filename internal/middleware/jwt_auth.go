package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/labstack/echo/v4"
)

// JWTAuthMiddleware resolves the caller from a bearer token when one is sent.
// Requests without an Authorization header continue anonymously; a malformed
// or invalid token is rejected.
func JWTAuthMiddleware(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set("user", claims)
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithUserID(req.Context(), claims.UserID)))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := auth.UserIDFromContext(c.Request().Context()); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}
		return next(c)
	}
}
