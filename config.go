package authgate

import (
	"errors"
	"time"

	"github.com/finvault/authgate/password"
	"github.com/finvault/authgate/router"
	"github.com/finvault/authgate/token"
)

// Config collects the tunables of the Engine. Obtain a baseline from
// DefaultConfig, override what the deployment needs, and pass it to the
// Builder; the Engine treats it as immutable afterwards.
type Config struct {
	Token    token.Config
	Password password.Config
	Router   router.Config
	Lockout  LockoutPolicy

	// VerificationTTL bounds email-verification tokens. Default 24h.
	VerificationTTL time.Duration
	// ResetTTL bounds password-reset tokens. Default 1h.
	ResetTTL time.Duration
	// RevocationPrefix namespaces revocation keys in Redis.
	RevocationPrefix string
	// DefaultRole is assigned when registration omits a role.
	DefaultRole Role
	// TemporaryPasswordLength sizes admin-issued temporary passwords.
	TemporaryPasswordLength int
	// UpgradeHashOnLogin rehashes credentials stored under a weaker argon2
	// work factor on the next successful login, best-effort.
	UpgradeHashOnLogin bool
}

// DefaultConfig returns the standard policy: 15m/7d token pair, argon2id
// interactive parameters, capacity-10 connection cache, 5-attempt/30-minute
// lockout, 24h verification tokens, 1h reset tokens.
func DefaultConfig() Config {
	return Config{
		Token:                   token.DefaultConfig(),
		Password:                password.DefaultConfig(),
		Router:                  router.Config{Capacity: router.DefaultCapacity},
		Lockout:                 DefaultLockoutPolicy(),
		VerificationTTL:         24 * time.Hour,
		ResetTTL:                time.Hour,
		DefaultRole:             RoleCustomer,
		TemporaryPasswordLength: 12,
		UpgradeHashOnLogin:      true,
	}
}

// Validate rejects configurations the Engine cannot operate under. Token and
// password sub-configurations are validated by their own constructors.
func (c Config) Validate() error {
	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("lockout max attempts must be positive")
	}
	if c.Lockout.LockDuration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	if c.VerificationTTL <= 0 {
		return errors.New("verification TTL must be positive")
	}
	if c.ResetTTL <= 0 {
		return errors.New("reset TTL must be positive")
	}
	if c.DefaultRole != "" && !c.DefaultRole.Valid() {
		return errors.New("invalid default role")
	}
	if c.TemporaryPasswordLength < password.MinLength {
		return errors.New("temporary password length below policy minimum")
	}
	return nil
}
