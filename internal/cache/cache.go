package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Taswoor2507/movie-api/internal/models"
)

// ErrMiss reports that a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// AllMoviesKey caches the full catalog listing.
const AllMoviesKey = "movies:all"

// Cache is the key-value store with expiration used for read-through lookups
// and transient records.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// MovieTitleKey addresses a movie cached by its case-folded title.
func MovieTitleKey(title string) string {
	return "movie:" + models.NormalizeKey(title)
}

// MovieIDKey addresses a movie cached by its identifier.
func MovieIDKey(id string) string {
	return "movie:" + id
}

// GenreKey addresses a cached genre listing.
func GenreKey(genre string) string {
	return "genre:" + models.NormalizeKey(genre)
}

// OTPKey addresses a pending registration.
func OTPKey(email string) string {
	return "otp:" + models.NormalizeKey(email)
}

// GetJSON decodes the cached value at key into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON stores value at key encoded as JSON.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
