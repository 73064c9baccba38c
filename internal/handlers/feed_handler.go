package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anonto42/reddit-feed/backend/internal/services"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the paginated post feed
type FeedHandler struct {
	feed *services.FeedService
	log  *slog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed, log: logging.GetLogger("handlers.feed")}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts", h.ListPosts)
}

// ListPosts returns one page of the feed. An unparsable or oversized limit is
// clamped rather than rejected.
func (h *FeedHandler) ListPosts(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	page, err := h.feed.ListPosts(c.Request().Context(), limit, c.QueryParam("cursor"))
	if err != nil {
		f := classify(err)
		if f.code == "UNAVAILABLE" {
			f.message = "feed temporarily unavailable, retry"
		}
		logFailure(c, h.log, f, err)
		return c.JSON(f.status, echo.Map{
			"success": false,
			"code":    f.code,
			"message": f.message,
		})
	}
	return c.JSON(http.StatusOK, page)
}
