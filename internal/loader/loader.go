// Package loader batches per-request lookups of post authors and the
// caller's votes so a page of posts costs one query per field.
package loader

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/graph-gophers/dataloader/v7"
)

// UserFetcher loads users by id in one round trip.
type UserFetcher interface {
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

// VoteFetcher loads votes by (user, post) in one round trip.
type VoteFetcher interface {
	GetVotesByKeys(ctx context.Context, keys []models.VoteKey) ([]models.Vote, error)
}

// Loaders holds the batch loaders of a single request. The loaders cache
// what they fetch, so a Loaders value must never outlive its request.
type Loaders struct {
	Users *dataloader.Loader[uint, *models.User]
	Votes *dataloader.Loader[models.VoteKey, int]
}

// Factory builds a fresh Loaders for one request.
type Factory func() *Loaders

// NewFactory returns a Factory whose loaders collect keys for wait before
// issuing the bulk fetch.
func NewFactory(users UserFetcher, votes VoteFetcher, wait time.Duration) Factory {
	return func() *Loaders {
		return &Loaders{
			Users: dataloader.NewBatchedLoader(batchUsers(users), dataloader.WithWait[uint, *models.User](wait)),
			Votes: dataloader.NewBatchedLoader(batchVotes(votes), dataloader.WithWait[models.VoteKey, int](wait)),
		}
	}
}

func batchUsers(users UserFetcher) dataloader.BatchFunc[uint, *models.User] {
	return func(ctx context.Context, ids []uint) []*dataloader.Result[*models.User] {
		results := make([]*dataloader.Result[*models.User], len(ids))

		rows, err := users.GetUsersByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*models.User]{Error: err}
			}
			return results
		}

		byID := make(map[uint]*models.User, len(rows))
		for i := range rows {
			byID[rows[i].ID] = &rows[i]
		}
		for i, id := range ids {
			if u, ok := byID[id]; ok {
				results[i] = &dataloader.Result[*models.User]{Data: u}
			} else {
				results[i] = &dataloader.Result[*models.User]{Error: models.ErrNotFound}
			}
		}
		return results
	}
}

// batchVotes resolves a missing vote to 0.
func batchVotes(votes VoteFetcher) dataloader.BatchFunc[models.VoteKey, int] {
	return func(ctx context.Context, keys []models.VoteKey) []*dataloader.Result[int] {
		results := make([]*dataloader.Result[int], len(keys))

		rows, err := votes.GetVotesByKeys(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[int]{Error: err}
			}
			return results
		}

		byKey := make(map[models.VoteKey]int, len(rows))
		for _, v := range rows {
			byKey[models.VoteKey{UserID: v.UserID, PostID: v.PostID}] = v.Value
		}
		for i, k := range keys {
			results[i] = &dataloader.Result[int]{Data: byKey[k]}
		}
		return results
	}
}

// Enrich resolves the author and the viewer's vote of every post. Authors
// that no longer exist resolve to nil. viewerID 0 means anonymous, in which
// case no votes are fetched and every voteType is 0.
func (l *Loaders) Enrich(ctx context.Context, viewerID uint, posts []models.Post) ([]models.EnrichedPost, error) {
	authors := make([]dataloader.Thunk[*models.User], len(posts))
	votes := make([]dataloader.Thunk[int], len(posts))

	// Queue every key before waiting on any thunk so both batches fill.
	for i := range posts {
		authors[i] = l.Users.Load(ctx, posts[i].UserID)
		if viewerID != 0 {
			votes[i] = l.Votes.Load(ctx, models.VoteKey{UserID: viewerID, PostID: posts[i].ID})
		}
	}

	out := make([]models.EnrichedPost, len(posts))
	for i := range posts {
		out[i] = models.EnrichedPost{Post: posts[i], TextSnippet: posts[i].TextSnippet()}

		author, err := authors[i]()
		switch {
		case err == nil:
			compact := author.ToCompact(viewerID)
			out[i].Author = &compact
		case errors.Is(err, models.ErrNotFound):
		default:
			return nil, err
		}

		if votes[i] != nil {
			v, err := votes[i]()
			if err != nil {
				return nil, err
			}
			out[i].VoteType = v
		}
	}
	return out, nil
}

type ctxKey struct{}

// WithLoaders attaches l to ctx for the rest of the request.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request's loaders, or nil outside a request.
func FromContext(ctx context.Context) *Loaders {
	l, _ := ctx.Value(ctxKey{}).(*Loaders)
	return l
}
