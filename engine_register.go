package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finvault/authgate/password"
)

// Register creates an unverified ACTIVE user in the tenant's store and sends
// a verification email. The email send is best-effort: a failure is logged
// and never rolls the user back.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}

	email := NormalizeEmail(req.Email)
	if email == "" {
		return "", ErrInvalidInput
	}
	if !ValidPhone(req.Phone) {
		return "", ErrInvalidInput
	}
	role := req.Role
	if role == "" {
		role = e.config.DefaultRole
	}
	if !role.Valid() {
		return "", ErrInvalidInput
	}
	if violations := password.ValidatePolicy(req.Password); len(violations) > 0 {
		return "", &WeakPasswordError{Violations: violations}
	}

	_, store, err := e.tenantStore(ctx, req.TenantSlug)
	if err != nil {
		return "", err
	}

	exists, err := store.Exists(ctx, email)
	if err != nil {
		return "", storeErr(err, "check email")
	}
	if exists {
		return "", ErrDuplicateEmail
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return "", err
	}

	now := time.Now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user = user.WithVerificationToken(uuid.NewString(), now.Add(e.config.VerificationTTL), now)

	if err := store.Save(ctx, &user); err != nil {
		return "", storeErr(err, "create user")
	}

	if err := e.notifier.SendVerification(ctx, user.Email, user.FullName(), user.EmailVerificationToken); err != nil {
		e.logger.Warn("verification email send failed",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	return user.ID, nil
}

// VerifyEmail consumes a verification token within the tenant identified by
// tenantIdentifier (id or slug). Mismatched, already-consumed, and expired
// tokens all fail with ErrInvalidOrExpiredToken.
func (e *Engine) VerifyEmail(ctx context.Context, verificationToken, tenantIdentifier string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if verificationToken == "" {
		return ErrInvalidOrExpiredToken
	}

	_, store, err := e.tenantStore(ctx, tenantIdentifier)
	if err != nil {
		return err
	}

	user, err := store.FindByVerificationToken(ctx, verificationToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storeErr(err, "find by verification token")
	}

	now := time.Now()
	if user.EmailVerified ||
		user.EmailVerificationToken != verificationToken ||
		user.EmailVerificationExpiry == nil ||
		!user.EmailVerificationExpiry.After(now) {
		return ErrInvalidOrExpiredToken
	}

	next := user.WithVerifiedEmail(now)
	if err := store.Save(ctx, &next); err != nil {
		return storeErr(err, "persist verification")
	}

	if err := e.notifier.SendWelcome(ctx, next.Email, next.FullName()); err != nil {
		e.logger.Warn("welcome email send failed",
			zap.String("user_id", next.ID), zap.Error(err))
	}

	return nil
}
