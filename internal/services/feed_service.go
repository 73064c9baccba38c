// Package services composes the ledger, the paginator, the vote engine and
// the batch loaders into the operations the HTTP layer exposes.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/anonto42/reddit-feed/backend/internal/feed"
	"github.com/anonto42/reddit-feed/backend/internal/loader"
	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/internal/vote"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
)

// FeedService is the only component that reads the caller identity. Every
// operation takes it from ctx.
type FeedService struct {
	posts     repositories.PostRepository
	paginator *feed.Paginator
	engine    *vote.Engine
	loaders   loader.Factory
	log       *slog.Logger
}

func NewFeedService(posts repositories.PostRepository, paginator *feed.Paginator, engine *vote.Engine, loaders loader.Factory) *FeedService {
	return &FeedService{
		posts:     posts,
		paginator: paginator,
		engine:    engine,
		loaders:   loaders,
		log:       logging.GetLogger("services.feed"),
	}
}

// ListPosts returns one enriched feed page. Any store failure is reported as
// models.ErrUnavailable so callers can tell it apart from an empty feed.
func (s *FeedService) ListPosts(ctx context.Context, limit int, cursor string) (*models.PaginatedPosts, error) {
	page, err := s.paginator.ListPosts(ctx, limit, cursor)
	if err != nil {
		return nil, err
	}

	items, err := s.enrich(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return &models.PaginatedPosts{
		TotalCount: page.TotalCount,
		Cursor:     page.NextCursor,
		HasMore:    page.HasMore,
		Items:      items,
	}, nil
}

func (s *FeedService) GetPost(ctx context.Context, id uint) (*models.EnrichedPost, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, post)
}

func (s *FeedService) CreatePost(ctx context.Context, title, text string) (*models.EnrichedPost, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, models.ErrUnauthorized
	}

	post := &models.Post{Title: title, Text: text, UserID: userID}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "post created", slog.Uint64("post_id", uint64(post.ID)), slog.Uint64("user_id", uint64(userID)))
	return s.enrichOne(ctx, post)
}

// UpdatePost changes title and text. Only the author may do so.
func (s *FeedService) UpdatePost(ctx context.Context, id uint, title, text string) (*models.EnrichedPost, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, models.ErrUnauthorized
	}

	post, err := s.posts.UpdatePost(ctx, id, func(p *models.Post) error {
		if p.UserID != userID {
			return models.ErrUnauthorized
		}
		p.Title = title
		p.Text = text
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, post)
}

// DeletePost removes the post and, through the ledger's cascade, its votes.
// Only the author may do so.
func (s *FeedService) DeletePost(ctx context.Context, id uint) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return models.ErrUnauthorized
	}

	err := s.posts.DeletePost(ctx, id, func(p *models.Post) error {
		if p.UserID != userID {
			return models.ErrUnauthorized
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "post deleted", slog.Uint64("post_id", uint64(id)), slog.Uint64("user_id", uint64(userID)))
	return nil
}

// Vote applies the caller's vote and returns the post as committed.
func (s *FeedService) Vote(ctx context.Context, postID uint, value int) (*models.EnrichedPost, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, models.ErrUnauthorized
	}

	post, err := s.engine.Vote(ctx, postID, userID, value)
	if err != nil {
		return nil, err
	}

	enriched, err := s.enrichOne(ctx, post)
	if err != nil {
		return nil, err
	}
	// The request's loader may already hold the vote as it was before.
	enriched.VoteType = value
	return enriched, nil
}

func (s *FeedService) enrichOne(ctx context.Context, post *models.Post) (*models.EnrichedPost, error) {
	items, err := s.enrich(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *FeedService) enrich(ctx context.Context, posts []models.Post) ([]models.EnrichedPost, error) {
	loaders := loader.FromContext(ctx)
	if loaders == nil {
		loaders = s.loaders()
	}

	items, err := loaders.Enrich(ctx, auth.CurrentUserID(ctx), posts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.log.ErrorContext(ctx, "resolve post fields", slog.Any("error", err))
		if errors.Is(err, models.ErrUnavailable) {
			return nil, err
		}
		return nil, errors.Join(models.ErrUnavailable, err)
	}
	return items, nil
}
