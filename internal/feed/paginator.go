// Package feed pages through posts newest first.
package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
)

const (
	// MaxLimit caps every page regardless of what the caller asked for.
	MaxLimit     = 10
	DefaultLimit = MaxLimit
)

// Store is the slice of the ledger the paginator reads.
type Store interface {
	ListPosts(ctx context.Context, after *repositories.PostKey, limit int) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
}

// Page is one slice of the feed.
type Page struct {
	Items      []models.Post
	NextCursor string
	HasMore    bool
	TotalCount int64
}

type Paginator struct {
	store Store
	log   *slog.Logger
}

func NewPaginator(store Store) *Paginator {
	return &Paginator{store: store, log: logging.GetLogger("feed.paginator")}
}

// ClampLimit maps a requested page size onto [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ListPosts returns the page that follows cursor, or the first page when
// cursor is empty. One extra row is fetched to learn whether another page
// exists. Store failures are reported as models.ErrUnavailable.
func (p *Paginator) ListPosts(ctx context.Context, limit int, cursor string) (*Page, error) {
	limit = ClampLimit(limit)

	var after *repositories.PostKey
	if cursor != "" {
		key, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		after = &key
	}

	total, err := p.store.CountPosts(ctx)
	if err != nil {
		return nil, p.unavailable(ctx, "count posts", err)
	}

	posts, err := p.store.ListPosts(ctx, after, limit+1)
	if err != nil {
		return nil, p.unavailable(ctx, "list posts", err)
	}

	page := &Page{TotalCount: total, Items: posts}
	if len(posts) > limit {
		page.HasMore = true
		page.Items = posts[:limit]
	}
	if n := len(page.Items); n > 0 {
		page.NextCursor = EncodeCursor(repositories.KeyOf(&page.Items[n-1]))
	}
	return page, nil
}

func (p *Paginator) unavailable(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	p.log.ErrorContext(ctx, "feed query failed", slog.String("op", op), slog.Any("error", err))
	if errors.Is(err, models.ErrUnavailable) {
		return err
	}
	return errors.Join(models.ErrUnavailable, err)
}
