package router

import (
	"context"
	"log/slog"

	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/anonto42/reddit-feed/backend/internal/feed"
	"github.com/anonto42/reddit-feed/backend/internal/handlers"
	"github.com/anonto42/reddit-feed/backend/internal/loader"
	"github.com/anonto42/reddit-feed/backend/internal/middleware"
	"github.com/anonto42/reddit-feed/backend/internal/ratelimit"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/internal/services"
	"github.com/anonto42/reddit-feed/backend/internal/vote"
	"github.com/anonto42/reddit-feed/backend/pkg/config"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the connections and collaborators the routes are built on.
type Dependencies struct {
	Config   *config.Config
	Postgres *gorm.DB
	Tokens   repositories.TokenRepository
	Mailer   auth.Mailer
	// Redis enables vote rate limiting when set.
	Redis *redis.Client
	// FirebaseAuth enables Firebase login when set.
	FirebaseAuth services.FirebaseVerifier
	Ping         func(ctx context.Context) error
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	log := logging.GetLogger("http")

	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			log.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	log := logging.GetLogger("router")
	cfg := deps.Config

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	postRepo := repositories.NewPostgresPostRepository(deps.Postgres)
	voteRepo := repositories.NewPostgresVoteRepository(deps.Postgres)

	// --- Initialize Services ---
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	loaders := loader.NewFactory(userRepo, voteRepo, cfg.LoaderWait)
	feedService := services.NewFeedService(postRepo, feed.NewPaginator(postRepo), vote.NewEngine(voteRepo), loaders)
	authService := services.NewAuthService(userRepo, deps.Tokens, issuer, deps.Mailer, deps.FirebaseAuth, cfg.AppURL)

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(deps.Ping).HealthCheck)

	// Identity is optional on every API route; mutations add RequireAuth.
	api := e.Group("/api/v1", middleware.JWTAuthMiddleware(issuer), middleware.Loaders(loaders))

	authHandler := handlers.NewAuthHandler(authService)
	authHandler.RegisterAuthRoutes(api.Group("/auth"))
	authHandler.RegisterProfileRoutes(api)
	log.Info("Auth routes configured.")

	handlers.NewFeedHandler(feedService).RegisterFeedRoutes(api)
	handlers.NewPostHandler(feedService).RegisterPostRoutes(api, middleware.RequireAuth)
	log.Info("Post routes configured.")

	voteMiddleware := []echo.MiddlewareFunc{middleware.RequireAuth}
	if deps.Redis != nil {
		limiter := ratelimit.NewRedisLimiter(deps.Redis, "ratelimit:vote", ratelimit.Rule{
			Limit:  cfg.VoteRateLimit,
			Window: cfg.VoteRateWindow,
		})
		voteMiddleware = append(voteMiddleware, middleware.RateLimit(limiter))
		log.Info("Vote rate limiting enabled.", slog.Int("limit", cfg.VoteRateLimit), slog.Duration("window", cfg.VoteRateWindow))
	}
	handlers.NewVoteHandler(feedService).RegisterVoteRoutes(api, voteMiddleware...)
	log.Info("Vote routes configured.")

	log.Info("All routes configured.")
}
