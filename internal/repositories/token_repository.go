package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenRepository stores at most one password reset token per user
type TokenRepository interface {
	// ReplaceToken drops any previous token of the user and stores the new hash.
	ReplaceToken(ctx context.Context, userID uint, tokenHash string) error
	GetToken(ctx context.Context, userID uint) (*models.PasswordResetToken, error)
	DeleteToken(ctx context.Context, userID uint) error
}

// MongoTokenRepository implements TokenRepository for MongoDB
type MongoTokenRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
}

// NewMongoTokenRepository creates a new MongoTokenRepository
func NewMongoTokenRepository(db *mongo.Database, ttl time.Duration) *MongoTokenRepository {
	return &MongoTokenRepository{collection: db.Collection("password_reset_tokens"), ttl: ttl}
}

// EnsureIndexes creates the unique user index and the TTL index that expires
// tokens server side.
func (r *MongoTokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.ttl.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("create token indexes: %w", err)
	}
	return nil
}

func (r *MongoTokenRepository) ReplaceToken(ctx context.Context, userID uint, tokenHash string) error {
	token := models.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"user_id": userID},
		token,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(models.ErrUnavailable, err)
	}
	return nil
}

// GetToken returns ErrNotFound when no live token exists. The TTL monitor
// only runs once a minute, so expiry is checked here as well.
func (r *MongoTokenRepository) GetToken(ctx context.Context, userID uint) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(models.ErrUnavailable, err)
	}
	if token.Expired(time.Now(), r.ttl) {
		return nil, models.ErrNotFound
	}
	return &token, nil
}

func (r *MongoTokenRepository) DeleteToken(ctx context.Context, userID uint) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return errors.Join(models.ErrUnavailable, err)
	}
	return nil
}
