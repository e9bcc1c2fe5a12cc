package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finvault/authgate/password"
)

// ForgotPassword starts a password reset. It always reports success to the
// caller: a missing tenant or email performs no side effect but returns nil,
// so the endpoint cannot be used to enumerate accounts. Connectivity
// failures still surface: they are an operational condition, not an
// enumeration signal.
func (e *Engine) ForgotPassword(ctx context.Context, email, tenantSlug string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	t, err := e.resolveTenant(ctx, tenantSlug)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil
		}
		return err
	}
	store, err := e.storeFor(ctx, t)
	if err != nil {
		return err
	}

	user, err := store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return storeErr(err, "find user")
	}

	now := time.Now()
	next := user.WithResetToken(uuid.NewString(), now.Add(e.config.ResetTTL), now)
	if err := store.Save(ctx, &next); err != nil {
		return storeErr(err, "persist reset token")
	}

	if err := e.notifier.SendPasswordReset(ctx, next.Email, next.FullName(), next.PasswordResetToken); err != nil {
		e.logger.Warn("password reset email send failed",
			zap.String("user_id", next.ID), zap.Error(err))
	}

	return nil
}

// ResetPassword consumes a reset token and installs a new password. An
// expired or mismatched token leaves the stored hash untouched. A successful
// reset also clears lockout state, restoring access immediately.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword, tenantIdentifier string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	if resetToken == "" {
		return ErrInvalidOrExpiredToken
	}

	_, store, err := e.tenantStore(ctx, tenantIdentifier)
	if err != nil {
		return err
	}

	user, err := store.FindByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storeErr(err, "find by reset token")
	}

	now := time.Now()
	if user.PasswordResetToken != resetToken ||
		user.PasswordResetExpiry == nil ||
		!user.PasswordResetExpiry.After(now) {
		return ErrInvalidOrExpiredToken
	}

	if violations := password.ValidatePolicy(newPassword); len(violations) > 0 {
		return &WeakPasswordError{Violations: violations}
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	next := user.WithPassword(hash, now)
	if err := store.Save(ctx, &next); err != nil {
		return storeErr(err, "persist password reset")
	}
	return nil
}

// ChangePassword rotates an authenticated user's password after proving
// knowledge of the current one.
func (e *Engine) ChangePassword(ctx context.Context, userID, tenantIdentifier, oldPassword, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	_, store, err := e.tenantStore(ctx, tenantIdentifier)
	if err != nil {
		return err
	}

	user, err := store.FindByID(ctx, userID)
	if err != nil {
		return storeErr(err, "find user")
	}

	ok, err := e.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrIncorrectPassword
	}

	if violations := password.ValidatePolicy(newPassword); len(violations) > 0 {
		return &WeakPasswordError{Violations: violations}
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	next := user.WithPassword(hash, time.Now())
	if err := store.Save(ctx, &next); err != nil {
		return storeErr(err, "persist password change")
	}
	return nil
}

// IssueTemporaryPassword generates a random policy-compliant password for a
// user, installs it, and mails it. Used by administrative flows provisioning
// staff accounts.
func (e *Engine) IssueTemporaryPassword(ctx context.Context, userID, tenantIdentifier string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	if userID == "" {
		return "", ErrUserNotFound
	}

	_, store, err := e.tenantStore(ctx, tenantIdentifier)
	if err != nil {
		return "", err
	}

	user, err := store.FindByID(ctx, userID)
	if err != nil {
		return "", storeErr(err, "find user")
	}

	temp, err := password.GenerateRandom(e.config.TemporaryPasswordLength)
	if err != nil {
		return "", err
	}
	hash, err := e.hasher.Hash(temp)
	if err != nil {
		return "", err
	}

	next := user.WithPassword(hash, time.Now())
	if err := store.Save(ctx, &next); err != nil {
		return "", storeErr(err, "persist temporary password")
	}

	if err := e.notifier.SendCredentials(ctx, next.Email, next.FullName(), temp); err != nil {
		e.logger.Warn("credentials email send failed",
			zap.String("user_id", next.ID), zap.Error(err))
	}

	return temp, nil
}
