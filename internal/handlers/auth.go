package handlers

import (
	"log/slog"
	"net/http"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/services"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth *services.AuthService
	log  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService, log: logging.GetLogger("handlers.auth")}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/change-password", h.ChangePassword)
}

// RegisterProfileRoutes registers the routes about the caller's own account
func (h *AuthHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
}

// Register handles local user registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return userFailed(c, h.log, err)
	}

	session, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return userFailed(c, h.log, err)
	}
	return h.sessionResponse(c, http.StatusCreated, "User registration successful!", session)
}

// Login handles authentication by username or email and password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return userFailed(c, h.log, err)
	}

	session, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return userFailed(c, h.log, err)
	}
	return h.sessionResponse(c, http.StatusOK, "Logged in successfully", session)
}

// Logout always succeeds. Bearer tokens are stateless, so the client simply
// discards its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, true)
}

// FirebaseLogin handles Firebase ID token verification and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return userFailed(c, h.log, err)
	}

	session, err := h.auth.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return userFailed(c, h.log, err)
	}
	return h.sessionResponse(c, http.StatusOK, "Logged in successfully", session)
}

// ForgotPassword answers true whether or not the address is known.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return userFailed(c, h.log, err)
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return userFailed(c, h.log, err)
	}
	return c.JSON(http.StatusOK, true)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return userFailed(c, h.log, err)
	}

	session, err := h.auth.ChangePassword(c.Request().Context(), req)
	if err != nil {
		return userFailed(c, h.log, err)
	}
	return h.sessionResponse(c, http.StatusOK, "User password reset successful", session)
}

// Me returns the caller, or null for anonymous requests
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.auth.Me(c.Request().Context())
	if err != nil {
		return userFailed(c, h.log, err)
	}
	if user == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) sessionResponse(c echo.Context, status int, message string, s *services.Session) error {
	user := s.User.ForViewer(s.User.ID)
	return c.JSON(status, models.UserMutationResponse{
		Code:    status,
		Success: true,
		Message: message,
		Token:   s.Token,
		User:    &user,
	})
}
