package middleware

import (
	"github.com/anonto42/reddit-feed/backend/internal/loader"
	"github.com/labstack/echo/v4"
)

// Loaders gives every request its own batch loaders.
func Loaders(factory loader.Factory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(loader.WithLoaders(req.Context(), factory())))
			return next(c)
		}
	}
}
