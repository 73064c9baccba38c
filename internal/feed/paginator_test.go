package feed

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	posts    []models.Post
	err      error
	listArgs []int
}

func (s *memoryStore) ListPosts(_ context.Context, after *repositories.PostKey, limit int) ([]models.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.listArgs = append(s.listArgs, limit)

	sorted := append([]models.Post(nil), s.posts...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	var out []models.Post
	for _, p := range sorted {
		if after != nil {
			older := p.CreatedAt.Before(after.CreatedAt) ||
				(p.CreatedAt.Equal(after.CreatedAt) && p.ID < after.ID)
			if !older {
				continue
			}
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) CountPosts(context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.posts)), nil
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func postsInOrder(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{ID: uint(i + 1), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return posts
}

func ids(posts []models.Post) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestPaginator_SevenPostsInPagesOfThree(t *testing.T) {
	ctx := context.Background()
	p := NewPaginator(&memoryStore{posts: postsInOrder(7)})

	first, err := p.ListPosts(ctx, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 6, 5}, ids(first.Items))
	assert.True(t, first.HasMore)
	assert.Equal(t, int64(7), first.TotalCount)

	key, err := DecodeCursor(first.NextCursor)
	require.NoError(t, err)
	assert.True(t, key.CreatedAt.Equal(base.Add(4*time.Minute)))
	assert.Equal(t, uint(5), key.ID)

	second, err := p.ListPosts(ctx, 3, first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 3, 2}, ids(second.Items))
	assert.True(t, second.HasMore)

	third, err := p.ListPosts(ctx, 3, second.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids(third.Items))
	assert.False(t, third.HasMore)
}

func TestPaginator_WalkVisitsEveryPostOnce(t *testing.T) {
	posts := postsInOrder(23)
	// Ties on the timestamp must still page cleanly.
	for i := 10; i < 16; i++ {
		posts[i].CreatedAt = base.Add(time.Hour)
	}
	store := &memoryStore{posts: posts}
	p := NewPaginator(store)

	seen := map[uint]int{}
	var order []models.Post
	cursor := ""
	for pages := 0; pages < 20; pages++ {
		page, err := p.ListPosts(context.Background(), 4, cursor)
		require.NoError(t, err)
		for _, item := range page.Items {
			seen[item.ID]++
		}
		order = append(order, page.Items...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	require.Len(t, seen, len(posts))
	for id, n := range seen {
		assert.Equal(t, 1, n, "post %d", id)
	}
	for i := 1; i < len(order); i++ {
		assert.False(t, order[i].CreatedAt.After(order[i-1].CreatedAt), "order broken at %d", i)
	}
}

func TestPaginator_ClampsLimit(t *testing.T) {
	store := &memoryStore{posts: postsInOrder(30)}
	p := NewPaginator(store)

	page, err := p.ListPosts(context.Background(), 500, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, MaxLimit)
	assert.True(t, page.HasMore)

	page, err = p.ListPosts(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, DefaultLimit)

	assert.Equal(t, []int{MaxLimit + 1, DefaultLimit + 1}, store.listArgs)
}

func TestPaginator_ExactFitHasNoMore(t *testing.T) {
	p := NewPaginator(&memoryStore{posts: postsInOrder(3)})

	page, err := p.ListPosts(context.Background(), 3, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
}

func TestPaginator_EmptyFeed(t *testing.T) {
	p := NewPaginator(&memoryStore{})

	page, err := p.ListPosts(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
	assert.False(t, page.HasMore)
	assert.Zero(t, page.TotalCount)
}

func TestPaginator_StoreFailureIsUnavailable(t *testing.T) {
	p := NewPaginator(&memoryStore{err: errors.New("connection refused")})

	page, err := p.ListPosts(context.Background(), 5, "")
	assert.Nil(t, page)
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestPaginator_InvalidCursor(t *testing.T) {
	p := NewPaginator(&memoryStore{posts: postsInOrder(3)})

	_, err := p.ListPosts(context.Background(), 5, "not-a-cursor!")
	assert.ErrorIs(t, err, models.ErrInvalidCursor)
}
