package feed

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
)

// EncodeCursor turns an ordering key into an opaque page token.
func EncodeCursor(key repositories.PostKey) string {
	raw := strconv.FormatInt(key.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatUint(uint64(key.ID), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(cursor string) (repositories.PostKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return repositories.PostKey{}, models.ErrInvalidCursor
	}

	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return repositories.PostKey{}, models.ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return repositories.PostKey{}, models.ErrInvalidCursor
	}
	postID, err := strconv.ParseUint(id, 10, 64)
	if err != nil || postID == 0 {
		return repositories.PostKey{}, models.ErrInvalidCursor
	}

	return repositories.PostKey{
		CreatedAt: time.Unix(0, nanos).UTC(),
		ID:        uint(postID),
	}, nil
}
