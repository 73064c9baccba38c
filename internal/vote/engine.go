// Package vote applies vote intents to the ledger.
package vote

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
)

const maxAttempts = 3

// Engine keeps one vote per user and post and the post's cached points in
// step with the vote rows.
type Engine struct {
	ledger repositories.VoteLedger
	log    *slog.Logger
}

func NewEngine(ledger repositories.VoteLedger) *Engine {
	return &Engine{ledger: ledger, log: logging.GetLogger("vote.engine")}
}

// Vote records value for userID on postID and returns the post as committed.
// Racing first votes by the same user surface as a duplicate insert; those
// are retried, and the retry finds the committed row.
func (e *Engine) Vote(ctx context.Context, postID, userID uint, value int) (*models.Post, error) {
	if userID == 0 {
		return nil, models.ErrUnauthorized
	}
	if !models.ValidVoteValue(value) {
		return nil, models.ErrInvalidVote
	}

	var (
		post *models.Post
		err  error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		post, err = e.apply(ctx, postID, userID, value)
		if err == nil || !errors.Is(err, models.ErrConflict) {
			break
		}
		e.log.WarnContext(ctx, "vote conflict, retrying",
			slog.Uint64("post_id", uint64(postID)),
			slog.Uint64("user_id", uint64(userID)),
			slog.Int("attempt", attempt))
	}
	return post, err
}

func (e *Engine) apply(ctx context.Context, postID, userID uint, value int) (*models.Post, error) {
	var updated *models.Post
	err := e.ledger.WithinTx(ctx, func(tx repositories.VoteTx) error {
		post, err := tx.LockPost(postID)
		if err != nil {
			return err
		}

		existing, err := tx.GetVote(userID, postID)
		if err != nil {
			return err
		}

		var delta int
		switch {
		case existing == nil:
			if err := tx.InsertVote(&models.Vote{UserID: userID, PostID: postID, Value: value}); err != nil {
				return err
			}
			delta = value
		case existing.Value == value:
			updated = post
			return nil
		default:
			if err := tx.UpdateVoteValue(userID, postID, value); err != nil {
				return err
			}
			delta = 2 * value
		}

		updated, err = tx.AddPoints(postID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
