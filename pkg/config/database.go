package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/anonto42/reddit-feed/backend/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	// Redis is nil when REDIS_ADDR is unset.
	Redis *redis.Client
}

// InitDB initializes and returns the database connections
func InitDB(ctx context.Context, cfg *Config) (*DB, error) {
	log := logging.GetLogger("config.database")

	if cfg.PostgresConnStr == "" {
		return nil, errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI environment variable not set")
	}

	postgresDB, err := initPostgres(ctx, cfg.PostgresConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	log.Info("Successfully connected to PostgreSQL!")

	mongoClient, err := initMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	log.Info("Successfully connected to MongoDB!")

	db := &DB{Postgres: postgresDB, Mongo: mongoClient}

	if cfg.RedisAddr != "" {
		db.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := db.Redis.Ping(ctx).Err(); err != nil {
			// The rate limiter fails open, so an unreachable redis is not fatal.
			log.Warn("redis unreachable, vote rate limiting degraded", slog.Any("error", err))
		} else {
			log.Info("Successfully connected to Redis!")
		}
	}
	return db, nil
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(ctx context.Context, connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), repositories.GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Ping checks the relational ledger, which every request depends on.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.Postgres.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	log := logging.GetLogger("config.database")

	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			log.Error("Error getting SQL DB from GORM", slog.Any("error", err))
		} else if err := sqlDB.Close(); err != nil {
			log.Error("Error closing PostgreSQL connection", slog.Any("error", err))
		} else {
			log.Info("PostgreSQL connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Error("Error closing MongoDB connection", slog.Any("error", err))
		} else {
			log.Info("MongoDB connection closed.")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			log.Error("Error closing Redis connection", slog.Any("error", err))
		}
	}
}
