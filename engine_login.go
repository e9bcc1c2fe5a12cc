package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finvault/authgate/token"
)

// Login authenticates email/password within tenantSlug's store and issues a
// token pair. Failures are deliberately vague where enumeration risk exists:
// an unknown or non-active tenant, an unknown email, and a wrong password all
// surface as the same ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, plaintext, tenantSlug string) (*LoginResult, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if plaintext == "" {
		return nil, ErrInvalidCredentials
	}

	t, store, err := e.tenantStore(ctx, tenantSlug)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(err, "find user")
	}

	now := time.Now()
	if user.Locked(now) {
		return nil, ErrAccountLocked
	}
	if user.Status == StatusLocked {
		// Lockout window has passed: lazily restore the account before the
		// credential check so the counter restarts from zero.
		unlocked := user.Unlocked(now)
		if err := store.Save(ctx, &unlocked); err != nil {
			return nil, storeErr(err, "persist unlock")
		}
		user = &unlocked
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		next := user.WithFailedAttempt(now, e.config.Lockout)
		if saveErr := store.Save(ctx, &next); saveErr != nil {
			return nil, storeErr(saveErr, "persist failed attempt")
		}
		if next.Status == StatusLocked && user.Status != StatusLocked {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if user.Status != StatusActive {
		return nil, ErrAccountNotActive
	}

	if e.config.UpgradeHashOnLogin {
		e.maybeUpgradeHash(ctx, store, user, plaintext)
	}

	next := user.WithSuccessfulLogin(now)
	pair, err := e.codec.IssuePair(next.ID, t.ID, string(next.Role), next.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}
	if err := store.Save(ctx, &next); err != nil {
		return nil, storeErr(err, "persist login")
	}

	return &LoginResult{
		User:         next.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// maybeUpgradeHash rehashes a credential stored under a weaker work factor.
// Best-effort: a failure must not block a successful login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, store UserStore, user *User, plaintext string) {
	needs, err := e.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !needs {
		return
	}
	upgraded, err := e.hasher.Hash(plaintext)
	if err != nil {
		e.logger.Warn("password hash upgrade generation failed",
			zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = upgraded
	if err := store.Save(ctx, user); err != nil {
		e.logger.Warn("password hash upgrade update failed",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}

// Refresh verifies a refresh token, checks revocation, and issues a new
// access token bound to the same claims.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if e == nil || e.codec == nil {
		return "", ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return "", err
	}

	revoked, err := e.revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	if revoked {
		return "", ErrTokenRevoked
	}

	return e.codec.IssueAccess(claims.UserID, claims.TenantID, claims.Role, claims.Email)
}

// Logout revokes the presented access token for the remainder of its natural
// lifetime. An already-expired token is a no-op success.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}

	if err := e.revocations.Revoke(ctx, accessToken, e.codec.RemainingTTL(claims)); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}

// RevokeRefreshToken blacklists a refresh token, e.g. alongside Logout when
// the caller also surrenders its refresh credential.
func (e *Engine) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}

	if err := e.revocations.Revoke(ctx, refreshToken, e.codec.RemainingTTL(claims)); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return nil
}
