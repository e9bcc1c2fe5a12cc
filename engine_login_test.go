package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginSuccess(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)

	res, err := f.engine.Login(context.Background(), seeded.Email, testPassword, testTenant)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("token pair incomplete")
	}
	if res.User.PasswordHash != "" {
		t.Fatal("password hash leaked into result")
	}

	claims, err := f.engine.Authenticate(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.UserID != seeded.ID || claims.TenantID != "t-acme" {
		t.Fatalf("claims = %+v", claims)
	}

	stored := f.store.get(seeded.ID)
	if stored.LastLoginAt == nil {
		t.Fatal("login time not persisted")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)

	_, err := f.engine.Login(context.Background(), seeded.Email, "Wr0ng!Pass", testTenant)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if got := f.store.get(seeded.ID).FailedLoginAttempts; got != 1 {
		t.Fatalf("failed attempts = %d, want 1", got)
	}
}

func TestLoginUnknownUserAndTenant(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// A wrong tenant, a wrong user, and an empty password must all read as
	// the same failure so login reveals nothing about what exists.
	cases := []struct {
		name          string
		email, tenant string
		plaintext     string
	}{
		{"unknown user", "ghost@acme.test", testTenant, testPassword},
		{"unknown tenant", "a@b.c", "nonesuch", testPassword},
		{"suspended tenant", "a@b.c", "globex", testPassword},
		{"empty password", "a@b.c", testTenant, ""},
	}
	var messages []string
	for _, tc := range cases {
		_, err := f.engine.Login(ctx, tc.email, tc.plaintext, tc.tenant)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s err = %v, want ErrInvalidCredentials", tc.name, err)
		}
		messages = append(messages, err.Error())
	}
	for _, msg := range messages[1:] {
		if msg != messages[0] {
			t.Fatalf("login failure messages differ: %q vs %q", messages[0], msg)
		}
	}
}

func TestLoginLockout(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()
	max := f.engine.config.Lockout.MaxAttempts

	for i := 1; i < max; i++ {
		if _, err := f.engine.Login(ctx, seeded.Email, "Wr0ng!Pass", testTenant); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d err = %v, want ErrInvalidCredentials", i, err)
		}
	}

	// The attempt that reaches the limit reports the lock.
	if _, err := f.engine.Login(ctx, seeded.Email, "Wr0ng!Pass", testTenant); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locking attempt err = %v, want ErrAccountLocked", err)
	}

	// Correct credentials are refused while the window holds.
	if _, err := f.engine.Login(ctx, seeded.Email, testPassword, testTenant); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked login err = %v, want ErrAccountLocked", err)
	}

	stored := f.store.get(seeded.ID)
	if stored.Status != StatusLocked || stored.LockedUntil == nil {
		t.Fatalf("persisted state = %+v, want LOCKED with window", stored)
	}
}

func TestLoginLazyUnlock(t *testing.T) {
	f := newEngineFixture(t)
	past := time.Now().Add(-time.Minute)
	seeded := f.seedUser(t, func(u *User) {
		u.Status = StatusLocked
		u.FailedLoginAttempts = 5
		u.LockedUntil = &past
	})

	res, err := f.engine.Login(context.Background(), seeded.Email, testPassword, testTenant)
	if err != nil {
		t.Fatalf("Login after window: %v", err)
	}
	if res.User.Status != StatusActive {
		t.Fatalf("status = %s, want ACTIVE", res.User.Status)
	}

	stored := f.store.get(seeded.ID)
	if stored.FailedLoginAttempts != 0 || stored.LockedUntil != nil {
		t.Fatalf("lock state not cleared: %+v", stored)
	}
}

func TestLoginAccountStateGates(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	unverified := f.seedUser(t, func(u *User) {
		u.ID = "u-unverified"
		u.Email = "unverified@acme.test"
		u.EmailVerified = false
	})
	if _, err := f.engine.Login(ctx, unverified.Email, testPassword, testTenant); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("unverified err = %v, want ErrEmailNotVerified", err)
	}

	suspended := f.seedUser(t, func(u *User) {
		u.ID = "u-suspended"
		u.Email = "suspended@acme.test"
		u.Status = StatusSuspended
	})
	if _, err := f.engine.Login(ctx, suspended.Email, testPassword, testTenant); !errors.Is(err, ErrAccountNotActive) {
		t.Fatalf("suspended err = %v, want ErrAccountNotActive", err)
	}
}

func TestRefresh(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	res, err := f.engine.Login(ctx, seeded.Email, testPassword, testTenant)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	access, err := f.engine.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := f.engine.Authenticate(ctx, access)
	if err != nil {
		t.Fatalf("Authenticate refreshed token: %v", err)
	}
	if claims.UserID != seeded.ID {
		t.Fatalf("claims.UserID = %q, want %q", claims.UserID, seeded.ID)
	}

	// An access token never passes as a refresh token.
	if _, err := f.engine.Refresh(ctx, res.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access-as-refresh err = %v, want ErrTokenInvalid", err)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	res, err := f.engine.Login(ctx, seeded.Email, testPassword, testTenant)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.engine.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := f.engine.Authenticate(ctx, res.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("post-logout Authenticate err = %v, want ErrTokenRevoked", err)
	}

	// The refresh credential stays live until revoked separately.
	if _, err := f.engine.Refresh(ctx, res.RefreshToken); err != nil {
		t.Fatalf("post-logout Refresh: %v", err)
	}
	if err := f.engine.RevokeRefreshToken(ctx, res.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
	if _, err := f.engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("revoked Refresh err = %v, want ErrTokenRevoked", err)
	}
}

func TestLogoutGarbageToken(t *testing.T) {
	f := newEngineFixture(t)
	if err := f.engine.Logout(context.Background(), "not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestAuthenticateRevocationOutlivesRestart(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	res, err := f.engine.Login(ctx, seeded.Email, testPassword, testTenant)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.engine.Logout(ctx, res.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	// The blacklist entry expires with the token's natural lifetime.
	f.redis.FastForward(f.engine.config.Token.AccessTTL + time.Minute)
	if n := len(f.redis.Keys()); n != 0 {
		t.Fatalf("%d revocation keys survive past token expiry", n)
	}
}
