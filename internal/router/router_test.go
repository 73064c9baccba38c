package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories/repotest"
	"github.com/anonto42/reddit-feed/backend/internal/router"
	"github.com/anonto42/reddit-feed/backend/pkg/config"
	"github.com/anonto42/reddit-feed/backend/pkg/validators"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[uint]*models.PasswordResetToken
}

func (m *memoryTokens) ReplaceToken(_ context.Context, userID uint, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = &models.PasswordResetToken{UserID: userID, TokenHash: hash, CreatedAt: time.Now()}
	return nil
}

func (m *memoryTokens) GetToken(_ context.Context, userID uint) (*models.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[userID]; ok {
		return t, nil
	}
	return nil, models.ErrNotFound
}

func (m *memoryTokens) DeleteToken(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

type app struct {
	e  *echo.Echo
	db *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		ResetTokenTTL:  5 * time.Minute,
		AppURL:         "http://localhost:3000",
		VoteRateLimit:  100,
		VoteRateWindow: time.Minute,
		LoaderWait:     time.Millisecond,
	}
}

func newApp(t *testing.T, mutate func(*router.Dependencies)) *app {
	t.Helper()
	db := repotest.NewLedger(t)

	deps := router.Dependencies{
		Config:   testConfig(),
		Postgres: db,
		Tokens:   &memoryTokens{tokens: map[uint]*models.PasswordResetToken{}},
		Mailer:   auth.NewLogMailer(),
		Ping:     func(context.Context) error { return nil },
	}
	if mutate != nil {
		mutate(&deps)
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupRoutes(e, deps)
	return &app{e: e, db: db}
}

func (a *app) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// register signs up name through the API and returns the issued token.
func (a *app) register(t *testing.T, name string) (string, uint) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "",
		fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"secret"}`, name, name))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.UserMutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	a := newApp(t, nil)
	rec := a.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newApp(t, func(d *router.Dependencies) {
		d.Ping = func(context.Context) error { return fmt.Errorf("down") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health", "", "").Code)
}

func TestFeedPagination(t *testing.T) {
	a := newApp(t, nil)
	author := repotest.SeedUser(t, a.db, "alice")
	seeded := repotest.SeedPosts(t, a.db, author.ID, 12)

	rec := a.do(t, http.MethodGet, "/api/v1/posts?limit=50", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[models.PaginatedPosts](t, rec)
	assert.Len(t, first.Items, 10)
	assert.True(t, first.HasMore)
	assert.Equal(t, int64(12), first.TotalCount)
	assert.Equal(t, seeded[11].ID, first.Items[0].ID)
	require.NotEmpty(t, first.Cursor)

	// anonymous viewers see no email and no vote
	require.NotNil(t, first.Items[0].Author)
	assert.Equal(t, "alice", first.Items[0].Author.Username)
	assert.Empty(t, first.Items[0].Author.Email)
	assert.Zero(t, first.Items[0].VoteType)

	rec = a.do(t, http.MethodGet, "/api/v1/posts?cursor="+first.Cursor, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[models.PaginatedPosts](t, rec)
	require.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)
	// the last non-empty page still carries a cursor, which leads to an empty page
	require.NotEmpty(t, second.Cursor)
	assert.Equal(t, seeded[1].ID, second.Items[0].ID)
	assert.Equal(t, seeded[0].ID, second.Items[1].ID)

	rec = a.do(t, http.MethodGet, "/api/v1/posts?cursor="+second.Cursor, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tail := decode[models.PaginatedPosts](t, rec)
	assert.Empty(t, tail.Items)
	assert.False(t, tail.HasMore)
	assert.Empty(t, tail.Cursor)
	assert.Equal(t, int64(12), tail.TotalCount)

	rec = a.do(t, http.MethodGet, "/api/v1/posts?cursor=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "BAD_REQUEST", body["code"])
	assert.Equal(t, "invalid cursor", body["message"])
}

func TestFeedUnavailable(t *testing.T) {
	a := newApp(t, nil)
	sqlDB, err := a.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := a.do(t, http.MethodGet, "/api/v1/posts", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "feed temporarily unavailable, retry", body["message"])
}

func TestPostLifecycle(t *testing.T) {
	a := newApp(t, nil)
	aliceToken, aliceID := a.register(t, "alice")
	bobToken, _ := a.register(t, "bob")

	rec := a.do(t, http.MethodPost, "/api/v1/posts", "", `{"title":"hi","text":"there"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/posts", aliceToken, `{"title":"","text":"there"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/posts", aliceToken, `{"title":"hi","text":"there"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.PostMutationResponse](t, rec)
	require.NotNil(t, created.Post)
	assert.Equal(t, aliceID, created.Post.UserID)
	assert.Equal(t, "alice@example.com", created.Post.Author.Email)
	path := fmt.Sprintf("/api/v1/posts/%d", created.Post.ID)

	rec = a.do(t, http.MethodGet, path, bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.EnrichedPost](t, rec).Author.Email)

	rec = a.do(t, http.MethodPut, path, bobToken, `{"title":"mine","text":"now"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPut, path, aliceToken, `{"title":"edited","text":"now"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited", decode[models.PostMutationResponse](t, rec).Post.Title)

	rec = a.do(t, http.MethodDelete, path, bobToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodDelete, path, aliceToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/posts/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoting(t *testing.T) {
	a := newApp(t, nil)
	author := repotest.SeedUser(t, a.db, "author")
	post := repotest.SeedPostAt(t, a.db, author.ID, "votable", repotest.Epoch)
	token, _ := a.register(t, "voter")
	path := fmt.Sprintf("/api/v1/posts/%d/vote", post.ID)

	vote := func(value int) models.PostMutationResponse {
		rec := a.do(t, http.MethodPost, path, token, fmt.Sprintf(`{"value":%d}`, value))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[models.PostMutationResponse](t, rec)
	}

	resp := vote(1)
	assert.Equal(t, 1, resp.Post.Points)
	assert.Equal(t, 1, resp.Post.VoteType)

	resp = vote(1)
	assert.Equal(t, 1, resp.Post.Points)

	resp = vote(-1)
	assert.Equal(t, -1, resp.Post.Points)
	assert.Equal(t, -1, resp.Post.VoteType)

	// the feed reports the caller's vote
	rec := a.do(t, http.MethodGet, "/api/v1/posts", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.PaginatedPosts](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, -1, page.Items[0].VoteType)
	assert.Equal(t, -1, page.Items[0].Points)

	t.Run("rejections", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, path, "", `{"value":1}`).Code)
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, path, token, `{"value":2}`).Code)
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, path, token, `{"value":0}`).Code)

		missing := fmt.Sprintf("/api/v1/posts/%d/vote", post.ID+100)
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, missing, token, `{"value":1}`).Code)
	})
}

func TestVoteRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := newApp(t, func(d *router.Dependencies) {
		d.Redis = client
		d.Config.VoteRateLimit = 2
		d.Config.VoteRateWindow = time.Hour
	})
	author := repotest.SeedUser(t, a.db, "author")
	post := repotest.SeedPostAt(t, a.db, author.ID, "votable", repotest.Epoch)
	token, _ := a.register(t, "voter")
	path := fmt.Sprintf("/api/v1/posts/%d/vote", post.ID)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPost, path, token, `{"value":1}`).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPost, path, token, `{"value":-1}`).Code)

	rec := a.do(t, http.MethodPost, path, token, `{"value":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t, nil)
	token, id := a.register(t, "alice")

	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"alice","email":"other@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"usernameOrEmail":"alice@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[models.UserMutationResponse](t, rec).Token)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"usernameOrEmail":"alice","password":"wrong"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	failed := decode[models.UserMutationResponse](t, rec)
	assert.Equal(t, "BAD_REQUEST", failed.ErrorCode)
	require.Len(t, failed.Errors, 1)
	assert.Equal(t, "password", failed.Errors[0].Field)

	rec = a.do(t, http.MethodGet, "/api/v1/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.User](t, rec)
	assert.Equal(t, id, me.ID)

	rec = a.do(t, http.MethodGet, "/api/v1/me", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = a.do(t, http.MethodGet, "/api/v1/me", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/auth/firebase-login", "", `{"idToken":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
