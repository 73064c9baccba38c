package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/services"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	feed *services.FeedService
	log  *slog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(feed *services.FeedService) *PostHandler {
	return &PostHandler{feed: feed, log: logging.GetLogger("handlers.post")}
}

// RegisterPostRoutes registers post-related routes. requireAuth guards the
// mutations.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts", h.CreatePost, requireAuth)
	g.PUT("/posts/:id", h.UpdatePost, requireAuth)
	g.DELETE("/posts/:id", h.DeletePost, requireAuth)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return postFailed(c, h.log, err)
	}

	post, err := h.feed.GetPost(c.Request().Context(), id)
	if err != nil {
		return postFailed(c, h.log, err)
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post owned by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return postFailed(c, h.log, err)
	}

	post, err := h.feed.CreatePost(c.Request().Context(), req.Title, req.Text)
	if err != nil {
		return postFailed(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, models.PostMutationResponse{
		Code:    http.StatusCreated,
		Success: true,
		Message: "Post created successfully",
		Post:    post,
	})
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return postFailed(c, h.log, err)
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return postFailed(c, h.log, err)
	}

	post, err := h.feed.UpdatePost(c.Request().Context(), id, req.Title, req.Text)
	if err != nil {
		return postFailed(c, h.log, err)
	}
	return c.JSON(http.StatusOK, models.PostMutationResponse{
		Code:    http.StatusOK,
		Success: true,
		Message: "Post updated successfully",
		Post:    post,
	})
}

// DeletePost deletes a post and its votes
func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return postFailed(c, h.log, err)
	}

	if err := h.feed.DeletePost(c.Request().Context(), id); err != nil {
		return postFailed(c, h.log, err)
	}
	return c.JSON(http.StatusOK, models.PostMutationResponse{
		Code:    http.StatusOK,
		Success: true,
		Message: "Post deleted successfully",
	})
}
