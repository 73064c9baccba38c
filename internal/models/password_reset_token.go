package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordResetToken is stored in MongoDB and expires through a TTL index.
type PasswordResetToken struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	TokenHash string             `json:"-" bson:"token_hash"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Expired reports whether the token is older than ttl at now.
func (t *PasswordResetToken) Expired(now time.Time, ttl time.Duration) bool {
	return now.After(t.CreatedAt.Add(ttl))
}
