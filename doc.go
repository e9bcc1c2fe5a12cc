// Package authgate is a multi-tenant identity-and-access boundary. Given an
// inbound bearer credential it resolves the caller's tenant, routes to that
// tenant's dedicated data store through a bounded connection cache, and
// authenticates the caller against the tenant's user records while enforcing
// account-security invariants: lockout after repeated failures, token expiry,
// and revocation.
//
// The Engine is the composition root. It is built once, injected with the
// control-plane tenant lookup, a store connector, a per-tenant user store
// factory, a Redis client for revocation, and a notifier, and then shared by
// all request handlers:
//
//	engine, err := authgate.New().
//		WithConfig(cfg).
//		WithTenantLookup(registry).
//		WithConnector(&router.PgxConnector{}).
//		WithStores(factory).
//		WithRedis(rdb).
//		WithNotifier(mailer).
//		Build()
//
// HTTP routing, request validation schemas, and template rendering are the
// caller's concern; the Engine exposes only the credential operations.
package authgate
