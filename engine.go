package authgate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/finvault/authgate/password"
	"github.com/finvault/authgate/revocation"
	"github.com/finvault/authgate/router"
	"github.com/finvault/authgate/tenant"
	"github.com/finvault/authgate/token"
)

// Engine orchestrates the credential use-cases: registration, login, token
// refresh and revocation, email verification, and password maintenance.
// An Engine is configured once through the Builder and safe for concurrent
// use; it holds no lock across store or network I/O.
type Engine struct {
	config      Config
	tenants     tenant.Lookup
	router      *router.Router
	stores      StoreFactory
	notifier    Notifier
	revocations *revocation.Store
	hasher      *password.Hasher
	codec       *token.Codec
	logger      *zap.Logger
}

// Close shuts the connection router down, awaiting full closure of every
// cached tenant connection. The Engine rejects further routed operations
// afterwards.
func (e *Engine) Close(ctx context.Context) error {
	if e == nil || e.router == nil {
		return nil
	}
	return e.router.Close(ctx)
}

// Router exposes the connection router for callers that need explicit
// eviction, e.g. when a tenant is administratively suspended.
func (e *Engine) Router() *router.Router {
	return e.router
}

// Authenticate verifies an access token and checks it against the revocation
// list. The revocation check happens after cryptographic verification
// succeeds and before the request is treated as authenticated.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*token.Claims, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		return nil, err
	}

	revoked, err := e.revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// resolveTenant maps registry outcomes to the caller-facing taxonomy:
// unknown and non-active tenants read identically as ErrTenantNotFound,
// everything else is connectivity.
func (e *Engine) resolveTenant(ctx context.Context, identifier string) (*tenant.Tenant, error) {
	t, err := e.tenants.FindActive(ctx, identifier)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: resolve tenant: %v", ErrConnectivity, err)
	}
	return t, nil
}

// storeFor routes to the tenant's data store and wraps it in a UserStore.
func (e *Engine) storeFor(ctx context.Context, t *tenant.Tenant) (UserStore, error) {
	conn, err := e.router.Resolve(ctx, t.ID, t.ConnectionString)
	if err != nil {
		return nil, err
	}
	return e.stores(conn), nil
}

// tenantStore resolves identifier and returns the tenant with its store.
func (e *Engine) tenantStore(ctx context.Context, identifier string) (*tenant.Tenant, UserStore, error) {
	t, err := e.resolveTenant(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	store, err := e.storeFor(ctx, t)
	if err != nil {
		return nil, nil, err
	}
	return t, store, nil
}

// storeErr maps unexpected store failures to connectivity; sentinel errors
// pass through untouched.
func storeErr(err error, op string) error {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrConnectivity):
		return err
	default:
		return fmt.Errorf("%w: %s: %v", ErrConnectivity, op, err)
	}
}
