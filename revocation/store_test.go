package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, ""), mr
}

func TestRevokeAndIsRevoked(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "some.token.value")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("fresh token should not be revoked")
	}

	if err := store.Revoke(ctx, "some.token.value", time.Minute); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "some.token.value")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to be revoked")
	}

	// Different token, same store: no cross-talk.
	revoked, err = store.IsRevoked(ctx, "another.token.value")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("unrelated token reported revoked")
	}
}

func TestRevocationExpiresWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "short.lived.token", 30*time.Second); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	mr.FastForward(31 * time.Second)

	revoked, err := store.IsRevoked(ctx, "short.lived.token")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("revocation entry should have expired with its TTL")
	}
}

func TestRevokeNonPositiveTTLIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "expired.token", 0); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "expired.token")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("zero-TTL revoke should not create an entry")
	}
}

func TestUnavailableBackend(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	if err := store.Revoke(ctx, "any.token", time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if _, err := store.IsRevoked(ctx, "any.token"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}
