package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/anonto42/reddit-feed/backend/internal/auth"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/internal/router"
	"github.com/anonto42/reddit-feed/backend/internal/services"
	"github.com/anonto42/reddit-feed/backend/migrations"
	"github.com/anonto42/reddit-feed/backend/pkg/config"
	"github.com/anonto42/reddit-feed/backend/pkg/firebase"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/anonto42/reddit-feed/backend/pkg/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logging.Configure(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize databases", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	if err := migrations.Up(ctx, db.Postgres); err != nil {
		log.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	tokens := repositories.NewMongoTokenRepository(db.Mongo.Database(cfg.MongoDatabase), cfg.ResetTokenTTL)
	if err := tokens.EnsureIndexes(ctx); err != nil {
		log.Error("Failed to create token indexes", slog.Any("error", err))
		os.Exit(1)
	}

	// Firebase login is disabled when no credentials are configured.
	var verifier services.FirebaseVerifier
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Error("Failed to initialize Firebase", slog.Any("error", err))
			os.Exit(1)
		}
		verifier = firebaseApp.AuthClient
	} else {
		log.Warn("FIREBASE_CREDENTIALS_PATH not set, firebase login disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Validator
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Config:       cfg,
		Postgres:     db.Postgres,
		Tokens:       tokens,
		Mailer:       auth.NewLogMailer(),
		Redis:        db.Redis,
		FirebaseAuth: verifier,
		Ping:         db.Ping,
	})

	// Start server
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Error("Server stopped", slog.Any("error", err))
	}
}
