package authgate

import (
	"regexp"
	"strings"
	"time"
)

// Role is the authorization role carried in issued tokens.
type Role string

const (
	// RoleSuperAdmin administers the platform across tenants.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleTenantAdmin administers a single tenant.
	RoleTenantAdmin Role = "TENANT_ADMIN"
	// RoleManager supervises tellers within a tenant.
	RoleManager Role = "MANAGER"
	// RoleTeller operates counter transactions.
	RoleTeller Role = "TELLER"
	// RoleCustomer is the default self-registration role.
	RoleCustomer Role = "CUSTOMER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleManager, RoleTeller, RoleCustomer:
		return true
	}
	return false
}

// Status is the lifecycle state of a user account.
type Status string

const (
	// StatusActive permits login (subject to email verification).
	StatusActive Status = "ACTIVE"
	// StatusInactive rejects login unconditionally.
	StatusInactive Status = "INACTIVE"
	// StatusLocked denies login until LockedUntil passes.
	StatusLocked Status = "LOCKED"
	// StatusSuspended rejects login unconditionally.
	StatusSuspended Status = "SUSPENDED"
)

// LockoutPolicy is the single canonical lockout rule: MaxAttempts consecutive
// failures lock the account for LockDuration.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// DefaultLockoutPolicy returns 5 attempts / 30 minute lock.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, LockDuration: 30 * time.Minute}
}

// User is one tenant-scoped account record. It is a plain value: every
// authentication-adjacent mutation goes through a pure transition method
// returning the next state, which keeps the lockout machine independently
// testable. Persistence is the UserStore's concern.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Role         Role
	Status       Status

	EmailVerified       bool
	FailedLoginAttempts int
	LockedUntil         *time.Time

	EmailVerificationToken  string
	EmailVerificationExpiry *time.Time
	PasswordResetToken      string
	PasswordResetExpiry     *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins the name parts for notification templates.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Locked reports whether the account is under an unexpired lockout window.
// A LOCKED status whose window has passed reads as unlocked (lazy unlock);
// callers then persist the Unlocked transition.
func (u User) Locked(now time.Time) bool {
	return u.Status == StatusLocked && u.LockedUntil != nil && u.LockedUntil.After(now)
}

// Unlocked returns the account restored to ACTIVE with the failure counter
// reset. Applied on the first access check after the lockout window passes.
func (u User) Unlocked(now time.Time) User {
	u.Status = StatusActive
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
	return u
}

// WithFailedAttempt increments the failure counter and locks the account
// when the counter reaches policy.MaxAttempts. A failure while already
// locked does not extend the window.
func (u User) WithFailedAttempt(now time.Time, policy LockoutPolicy) User {
	if u.Locked(now) {
		return u
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= policy.MaxAttempts {
		until := now.Add(policy.LockDuration)
		u.Status = StatusLocked
		u.LockedUntil = &until
	}
	u.UpdatedAt = now
	return u
}

// WithSuccessfulLogin resets the failure counter, clears any stale lock
// state, and stamps the login time.
func (u User) WithSuccessfulLogin(now time.Time) User {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
	return u
}

// WithPassword installs a new password hash, consumes any outstanding reset
// token, and clears lock state so a reset always restores access.
func (u User) WithPassword(hash string, now time.Time) User {
	u.PasswordHash = hash
	u.PasswordResetToken = ""
	u.PasswordResetExpiry = nil
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	if u.Status == StatusLocked {
		u.Status = StatusActive
	}
	u.UpdatedAt = now
	return u
}

// WithResetToken stores a pending password-reset token and its expiry.
func (u User) WithResetToken(tok string, expiry time.Time, now time.Time) User {
	u.PasswordResetToken = tok
	u.PasswordResetExpiry = &expiry
	u.UpdatedAt = now
	return u
}

// WithVerificationToken stores a pending email-verification token and its
// expiry.
func (u User) WithVerificationToken(tok string, expiry time.Time, now time.Time) User {
	u.EmailVerificationToken = tok
	u.EmailVerificationExpiry = &expiry
	u.UpdatedAt = now
	return u
}

// WithVerifiedEmail marks the address confirmed and consumes the
// verification token.
func (u User) WithVerifiedEmail(now time.Time) User {
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	u.EmailVerificationExpiry = nil
	u.UpdatedAt = now
	return u
}

// Sanitized clears credential material and pending token fields for use in
// caller-facing results.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.EmailVerificationToken = ""
	u.PasswordResetToken = ""
	return u
}

// NormalizeEmail lowercases and trims an email address. All store lookups
// and uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidPhone reports whether phone is E.164. The empty string is valid:
// phone is optional.
func ValidPhone(phone string) bool {
	return phone == "" || phonePattern.MatchString(phone)
}
