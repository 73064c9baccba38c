package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/services"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

// VoteHandler handles votes on posts
type VoteHandler struct {
	feed *services.FeedService
	log  *slog.Logger
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(feed *services.FeedService) *VoteHandler {
	return &VoteHandler{feed: feed, log: logging.GetLogger("handlers.vote")}
}

// RegisterVoteRoutes registers vote routes with any extra middleware, such as
// a rate limiter.
func (h *VoteHandler) RegisterVoteRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.POST("/posts/:id/vote", h.Vote, m...)
}

// Vote casts, repeats or flips the caller's vote on a post
func (h *VoteHandler) Vote(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return postFailed(c, h.log, err)
	}
	var req models.VoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return postFailed(c, h.log, err)
	}

	post, err := h.feed.Vote(c.Request().Context(), id, req.Value)
	if err != nil {
		return postFailed(c, h.log, err)
	}
	return c.JSON(http.StatusOK, models.PostMutationResponse{
		Code:    http.StatusOK,
		Success: true,
		Message: "Vote recorded",
		Post:    post,
	})
}
