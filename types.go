package authgate

import (
	"context"

	"github.com/finvault/authgate/router"
)

// UserStore is the per-tenant credential persistence boundary. Every method
// operates against exactly one tenant's isolated data store; the Engine
// obtains a store per request through the StoreFactory and the connection
// Router. Implementations map missing rows to ErrUserNotFound and email
// uniqueness conflicts to ErrDuplicateEmail.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByVerificationToken(ctx context.Context, token string) (*User, error)
	FindByResetToken(ctx context.Context, token string) (*User, error)
	Save(ctx context.Context, user *User) error
	Exists(ctx context.Context, email string) (bool, error)
}

// StoreFactory builds a tenant-scoped UserStore from a router connection
// handle.
type StoreFactory func(conn router.Conn) UserStore

// Notifier sends account emails. All sends are best-effort side effects:
// a failure is logged and reported but never fails the primary operation.
type Notifier interface {
	SendVerification(ctx context.Context, email, name, token string) error
	SendPasswordReset(ctx context.Context, email, name, token string) error
	SendWelcome(ctx context.Context, email, name string) error
	SendCredentials(ctx context.Context, email, name, tempPassword string) error
}

// RegisterRequest carries the inputs of the registration use-case.
type RegisterRequest struct {
	TenantSlug string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      string
	Role       Role
}

// LoginResult is returned on a fully successful login.
type LoginResult struct {
	User         User
	AccessToken  string
	RefreshToken string
}
