package feed

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"github.com/anonto42/reddit-feed/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	key := repositories.PostKey{
		CreatedAt: time.Date(2024, 3, 9, 10, 11, 12, 345678000, time.UTC),
		ID:        77,
	}

	got, err := DecodeCursor(EncodeCursor(key))
	require.NoError(t, err)
	assert.True(t, key.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, key.ID, got.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for name, cursor := range map[string]string{
		"not base64":   "%%%",
		"no separator": base64.RawURLEncoding.EncodeToString([]byte("12345")),
		"bad time":     base64.RawURLEncoding.EncodeToString([]byte("abc:1")),
		"bad id":       base64.RawURLEncoding.EncodeToString([]byte("12345:x")),
		"zero id":      base64.RawURLEncoding.EncodeToString([]byte("12345:0")),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(cursor)
			assert.ErrorIs(t, err, models.ErrInvalidCursor)
		})
	}
}
