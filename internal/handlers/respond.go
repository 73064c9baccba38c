package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// failure is the client-facing shape of an error.
type failure struct {
	status  int
	code    string
	message string
	fields  []models.FieldError
}

// classify maps domain errors onto HTTP. Anything unrecognised becomes a
// generic 500 so internal detail never leaves the process.
func classify(err error) failure {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return failure{http.StatusBadRequest, "BAD_REQUEST", verr.Message, verr.Fields}
	case errors.Is(err, models.ErrInvalidCursor), errors.Is(err, models.ErrInvalidVote):
		return failure{status: http.StatusBadRequest, code: "BAD_REQUEST", message: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		return failure{status: http.StatusNotFound, code: "NOT_FOUND", message: "Not found"}
	case errors.Is(err, models.ErrUnauthorized):
		return failure{status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "Not authorized"}
	case errors.Is(err, models.ErrInvalidToken):
		return failure{status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "Invalid or expired token"}
	case errors.Is(err, models.ErrConflict):
		return failure{status: http.StatusConflict, code: "CONFLICT", message: "Conflicting update, please retry"}
	case errors.Is(err, models.ErrUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failure{status: http.StatusServiceUnavailable, code: "UNAVAILABLE", message: "Temporarily unavailable, retry"}
	default:
		return failure{status: http.StatusInternalServerError, code: "INTERNAL", message: "Internal server error"}
	}
}

func logFailure(c echo.Context, log *slog.Logger, f failure, err error) {
	if f.status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request().Context(), "request failed",
			slog.String("path", c.Path()),
			slog.String("code", f.code),
			slog.Any("error", err))
	}
}

// postFailed renders a failed post mutation.
func postFailed(c echo.Context, log *slog.Logger, err error) error {
	f := classify(err)
	logFailure(c, log, f, err)
	return c.JSON(f.status, models.PostMutationResponse{
		Code:      f.status,
		Success:   false,
		Message:   f.message,
		ErrorCode: f.code,
		Errors:    f.fields,
	})
}

// userFailed renders a failed account mutation.
func userFailed(c echo.Context, log *slog.Logger, err error) error {
	f := classify(err)
	logFailure(c, log, f, err)
	return c.JSON(f.status, models.UserMutationResponse{
		Code:      f.status,
		Success:   false,
		Message:   f.message,
		ErrorCode: f.code,
		Errors:    f.fields,
	})
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return &models.ValidationError{Message: "Invalid request payload"}
	}
	return c.Validate(req)
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid id", name, "Must be a positive integer")
	}
	return uint(id), nil
}
