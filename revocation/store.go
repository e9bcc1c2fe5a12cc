// Package revocation blacklists otherwise-valid tokens until their natural
// expiry. Entries are TTL'd Redis keys, so revocation records self-expire and
// never accumulate.
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "rvk"

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers must treat it as a connectivity failure, never as "not revoked".
var ErrUnavailable = errors.New("revocation store unavailable")

// Store marks token strings as revoked for a bounded TTL.
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore returns a Store writing under the given key prefix. An empty
// prefix selects the default.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

// Keys carry a digest of the token rather than the token itself, so a
// compromised Redis never yields usable credentials.
func (s *Store) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Revoke blacklists token for ttl, the token's remaining natural lifetime.
// A non-positive ttl is a no-op: the token is already expired and verifies
// as such without a revocation entry.
func (s *Store) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" {
		return errors.New("empty token")
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token has an unexpired revocation entry.
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}
