package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string

	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string
	RedisAddr       string
	RedisPassword   string

	JWTSecret               string
	JWTTTL                  time.Duration
	FirebaseCredentialsPath string
	ResetTokenTTL           time.Duration
	AppURL                  string

	VoteRateLimit  int
	VoteRateWindow time.Duration
	LoaderWait     time.Duration
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "text"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "reddit"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		JWTTTL:                  getDuration("JWT_TTL", 72*time.Hour),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		ResetTokenTTL:           getDuration("RESET_TOKEN_TTL", 5*time.Minute),
		AppURL:                  getEnv("APP_URL", "http://localhost:3000"),
		VoteRateLimit:           getInt("VOTE_RATE_LIMIT", 30),
		VoteRateWindow:          getDuration("VOTE_RATE_WINDOW", time.Minute),
		LoaderWait:              getDuration("LOADER_WAIT", 2*time.Millisecond),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return d
}
