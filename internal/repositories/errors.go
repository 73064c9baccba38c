package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"gorm.io/gorm"
)

// GormConfig is the configuration every ledger connection is opened with.
// Timestamps are stored in UTC at the microsecond resolution of timestamptz.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         newSlogLogger(),
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

var domainErrors = []error{
	models.ErrNotFound,
	models.ErrUnauthorized,
	models.ErrConflict,
	models.ErrUnavailable,
	models.ErrInvalidVote,
}

// translate maps a gorm error onto the domain error taxonomy. Errors that
// already carry a domain sentinel pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(models.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(models.ErrNotFound, err)
	default:
		return errors.Join(models.ErrUnavailable, err)
	}
}
