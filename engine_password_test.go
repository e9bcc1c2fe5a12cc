package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestForgotPasswordIsEnumerationSafe(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	if err := f.engine.ForgotPassword(ctx, seeded.Email, testTenant); err != nil {
		t.Fatalf("existing email: %v", err)
	}
	if err := f.engine.ForgotPassword(ctx, "ghost@acme.test", testTenant); err != nil {
		t.Fatalf("unknown email: %v", err)
	}
	if err := f.engine.ForgotPassword(ctx, seeded.Email, "nonesuch"); err != nil {
		t.Fatalf("unknown tenant: %v", err)
	}

	// Only the real account got a token and an email.
	if f.notifier.resets != 1 {
		t.Fatalf("reset sends = %d, want 1", f.notifier.resets)
	}
	stored := f.store.get(seeded.ID)
	if stored.PasswordResetToken == "" || stored.PasswordResetExpiry == nil {
		t.Fatal("reset token not stored for the real account")
	}
}

func TestResetPassword(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	if err := f.engine.ForgotPassword(ctx, seeded.Email, testTenant); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	tok := f.notifier.lastToken

	const newPassword = "N3w!Passw0rd"
	if err := f.engine.ResetPassword(ctx, tok, newPassword, testTenant); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	stored := f.store.get(seeded.ID)
	if stored.PasswordResetToken != "" || stored.PasswordResetExpiry != nil {
		t.Fatal("reset token not consumed")
	}

	if _, err := f.engine.Login(ctx, seeded.Email, newPassword, testTenant); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.engine.Login(ctx, seeded.Email, testPassword, testTenant); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password err = %v, want ErrInvalidCredentials", err)
	}
}

func TestResetPasswordRestoresLockedAccount(t *testing.T) {
	f := newEngineFixture(t)
	until := time.Now().Add(20 * time.Minute)
	expiry := time.Now().Add(time.Hour)
	seeded := f.seedUser(t, func(u *User) {
		u.Status = StatusLocked
		u.FailedLoginAttempts = 5
		u.LockedUntil = &until
		u.PasswordResetToken = "live-token"
		u.PasswordResetExpiry = &expiry
	})

	const newPassword = "N3w!Passw0rd"
	ctx := context.Background()
	if err := f.engine.ResetPassword(ctx, "live-token", newPassword, testTenant); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := f.engine.Login(ctx, seeded.Email, newPassword, testTenant); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
}

func TestResetPasswordBadTokens(t *testing.T) {
	f := newEngineFixture(t)
	past := time.Now().Add(-time.Minute)
	seeded := f.seedUser(t, func(u *User) {
		u.PasswordResetToken = "stale-token"
		u.PasswordResetExpiry = &past
	})
	ctx := context.Background()
	originalHash := f.store.get(seeded.ID).PasswordHash

	cases := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"unknown", "never-issued"},
		{"expired", "stale-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.engine.ResetPassword(ctx, tc.tok, "N3w!Passw0rd", testTenant)
			if !errors.Is(err, ErrInvalidOrExpiredToken) {
				t.Fatalf("err = %v, want ErrInvalidOrExpiredToken", err)
			}
		})
	}

	if f.store.get(seeded.ID).PasswordHash != originalHash {
		t.Fatal("failed reset changed the stored hash")
	}
}

func TestResetPasswordWeakReplacement(t *testing.T) {
	f := newEngineFixture(t)
	expiry := time.Now().Add(time.Hour)
	seeded := f.seedUser(t, func(u *User) {
		u.PasswordResetToken = "live-token"
		u.PasswordResetExpiry = &expiry
	})
	originalHash := f.store.get(seeded.ID).PasswordHash

	err := f.engine.ResetPassword(context.Background(), "live-token", "weak", testTenant)
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
	if f.store.get(seeded.ID).PasswordHash != originalHash {
		t.Fatal("weak replacement changed the stored hash")
	}
}

func TestChangePassword(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	const newPassword = "N3w!Passw0rd"
	if err := f.engine.ChangePassword(ctx, seeded.ID, testTenant, testPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.engine.Login(ctx, seeded.Email, newPassword, testTenant); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePasswordGuards(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	if err := f.engine.ChangePassword(ctx, seeded.ID, testTenant, "Wr0ng!Pass", "N3w!Passw0rd"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("wrong current err = %v, want ErrIncorrectPassword", err)
	}
	if err := f.engine.ChangePassword(ctx, seeded.ID, testTenant, testPassword, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak replacement err = %v, want ErrWeakPassword", err)
	}
	if err := f.engine.ChangePassword(ctx, "u-ghost", testTenant, testPassword, "N3w!Passw0rd"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user err = %v, want ErrUserNotFound", err)
	}
}

func TestIssueTemporaryPassword(t *testing.T) {
	f := newEngineFixture(t)
	seeded := f.seedUser(t, nil)
	ctx := context.Background()

	temp, err := f.engine.IssueTemporaryPassword(ctx, seeded.ID, testTenant)
	if err != nil {
		t.Fatalf("IssueTemporaryPassword: %v", err)
	}
	if len(temp) != f.engine.config.TemporaryPasswordLength {
		t.Fatalf("temp length = %d, want %d", len(temp), f.engine.config.TemporaryPasswordLength)
	}
	if f.notifier.credentials != 1 || f.notifier.lastTemp != temp {
		t.Fatal("credentials email not sent with the issued password")
	}
	if _, err := f.engine.Login(ctx, seeded.Email, temp, testTenant); err != nil {
		t.Fatalf("login with temporary password: %v", err)
	}
}
