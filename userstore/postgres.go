// Package userstore provides UserStore implementations: a Postgres store for
// production tenant databases and an in-memory store for tests and demos.
package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvault/authgate"
)

const uniqueViolation = "23505"

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, role, status,
	email_verified, failed_login_attempts, locked_until,
	email_verification_token, email_verification_expiry,
	password_reset_token, password_reset_expiry,
	last_login_at, created_at, updated_at`

// Postgres is a tenant-scoped UserStore over a pgx pool obtained from the
// connection router.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a store querying pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// FindByEmail looks a user up by normalized email.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*authgate.User, error) {
	return s.findOne(ctx, `WHERE email = $1`, email)
}

// FindByID looks a user up by id.
func (s *Postgres) FindByID(ctx context.Context, id string) (*authgate.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

// FindByVerificationToken looks a user up by pending verification token.
func (s *Postgres) FindByVerificationToken(ctx context.Context, token string) (*authgate.User, error) {
	return s.findOne(ctx, `WHERE email_verification_token = $1`, token)
}

// FindByResetToken looks a user up by pending password-reset token.
func (s *Postgres) FindByResetToken(ctx context.Context, token string) (*authgate.User, error) {
	return s.findOne(ctx, `WHERE password_reset_token = $1`, token)
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*authgate.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)

	var (
		u        authgate.User
		phone    *string
		verTok   *string
		resetTok *string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &phone,
		&u.Role, &u.Status, &u.EmailVerified, &u.FailedLoginAttempts,
		&u.LockedUntil, &verTok, &u.EmailVerificationExpiry,
		&resetTok, &u.PasswordResetExpiry,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authgate.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if phone != nil {
		u.Phone = *phone
	}
	if verTok != nil {
		u.EmailVerificationToken = *verTok
	}
	if resetTok != nil {
		u.PasswordResetToken = *resetTok
	}
	return &u, nil
}

// Save upserts the user row. A unique violation on email maps to
// ErrDuplicateEmail.
func (s *Postgres) Save(ctx context.Context, user *authgate.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			email_verified = EXCLUDED.email_verified,
			failed_login_attempts = EXCLUDED.failed_login_attempts,
			locked_until = EXCLUDED.locked_until,
			email_verification_token = EXCLUDED.email_verification_token,
			email_verification_expiry = EXCLUDED.email_verification_expiry,
			password_reset_token = EXCLUDED.password_reset_token,
			password_reset_expiry = EXCLUDED.password_reset_expiry,
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at
	`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		nullable(user.Phone), user.Role, user.Status, user.EmailVerified,
		user.FailedLoginAttempts, user.LockedUntil,
		nullable(user.EmailVerificationToken), user.EmailVerificationExpiry,
		nullable(user.PasswordResetToken), user.PasswordResetExpiry,
		user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authgate.ErrDuplicateEmail
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Exists reports whether a user with the normalized email is present.
func (s *Postgres) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// nullable maps the empty string to SQL NULL so partial indexes on token
// columns stay small and unique constraints ignore cleared tokens.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
