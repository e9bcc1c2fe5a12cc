package token

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects which secret verifies a token. Access and refresh tokens are
// signed with distinct secrets so one can never stand in for the other.
type Kind int

const (
	// KindAccess identifies short-lived access tokens.
	KindAccess Kind = iota
	// KindRefresh identifies long-lived refresh tokens.
	KindRefresh
)

var (
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned on signature, issuer, audience, or claim
	// shape mismatch.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the claim set embedded in both tokens of a pair.
type Claims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Pair holds a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Config holds the signing secrets and token lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// DefaultConfig returns the standard lifetimes: 15 minute access tokens and
// 7 day refresh tokens. Secrets must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Issuer:     "authgate",
		Audience:   "authgate-clients",
	}
}

// Codec issues and verifies token pairs. A Codec is immutable after
// construction and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	return &Codec{config: cfg}, nil
}

// IssuePair signs an access and a refresh token carrying the same claim set.
func (c *Codec) IssuePair(userID, tenantID, role, email string) (Pair, error) {
	access, err := c.issue(userID, tenantID, role, email, KindAccess)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.issue(userID, tenantID, role, email, KindRefresh)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs a single access token. Used by the refresh flow to mint
// a new access token bound to the claims of a verified refresh token.
func (c *Codec) IssueAccess(userID, tenantID, role, email string) (string, error) {
	return c.issue(userID, tenantID, role, email, KindAccess)
}

func (c *Codec) issue(userID, tenantID, role, email string, kind Kind) (string, error) {
	ttl := c.config.AccessTTL
	if kind == KindRefresh {
		ttl = c.config.RefreshTTL
	}

	now := time.Now()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.config.Issuer,
			Audience:  jwt.ClaimStrings{c.config.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(kind))
}

// Verify parses and validates a token against the secret for the expected
// kind. It returns ErrTokenExpired when the token is past expiry and
// ErrTokenInvalid for every other failure.
func (c *Codec) Verify(tokenStr string, kind Kind) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.config.Issuer),
		jwt.WithAudience(c.config.Audience),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// RemainingTTL returns how long claims remain naturally valid, clamped at
// zero. Revocation entries use this as their expiry so they never outlive
// the token they blacklist.
func (c *Codec) RemainingTTL(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return c.config.RefreshSecret
	}
	return c.config.AccessSecret
}
