package authgate

import (
	"errors"
	"strings"

	"github.com/finvault/authgate/router"
	"github.com/finvault/authgate/tenant"
	"github.com/finvault/authgate/token"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so login never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while a lockout window is in effect.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrEmailNotVerified rejects login before the address is confirmed.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAccountNotActive rejects login for inactive or suspended accounts.
	ErrAccountNotActive = errors.New("account not active")
	// ErrTokenRevoked is returned when a cryptographically valid token has
	// been explicitly revoked before its natural expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUserNotFound is returned by id-based operations for unknown users.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail rejects registration of an email already present in
	// the tenant's store.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrIncorrectPassword rejects a password change whose current-password
	// proof fails.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrInvalidOrExpiredToken rejects verification or reset tokens that
	// mismatch, were already consumed, or are past expiry.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrInvalidInput rejects malformed request shapes (bad email, phone,
	// role).
	ErrInvalidInput = errors.New("invalid input")
	// ErrWeakPassword rejects passwords violating the policy. The concrete
	// error is a *WeakPasswordError carrying every violated rule.
	ErrWeakPassword = errors.New("password too weak")
	// ErrEngineNotReady is returned when the Engine is missing a dependency.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrTenantNotFound covers unknown identifiers and non-active tenants
	// identically.
	ErrTenantNotFound = tenant.ErrNotFound
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = token.ErrTokenExpired
	// ErrTokenInvalid is returned on signature, issuer, or audience mismatch.
	ErrTokenInvalid = token.ErrTokenInvalid
	// ErrConnectivity wraps store and network failures. Retryable by the
	// caller, never silently swallowed.
	ErrConnectivity = router.ErrConnectivity
)

// WeakPasswordError lists every policy rule the candidate password violated.
type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return "password too weak: " + strings.Join(e.Violations, "; ")
}

// Is makes errors.Is(err, ErrWeakPassword) match.
func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}

// PolicyViolations extracts the violated rules from a weak-password error,
// or nil when err is anything else.
func PolicyViolations(err error) []string {
	var weak *WeakPasswordError
	if errors.As(err, &weak) {
		return weak.Violations
	}
	return nil
}
