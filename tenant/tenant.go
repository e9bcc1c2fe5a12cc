// Package tenant resolves tenant identifiers to connection descriptors. Only
// ACTIVE tenants resolve; every other status is indistinguishable from "not
// found" so downstream flows never leak the existence of suspended tenants.
package tenant

import (
	"context"
	"errors"
	"strings"
)

// Status is the lifecycle state of a tenant. Tenants are created by an
// administrative flow and are read-only to this module.
type Status string

const (
	// StatusActive marks a tenant that may be routed to.
	StatusActive Status = "ACTIVE"
	// StatusInactive marks a tenant not yet provisioned or wound down.
	StatusInactive Status = "INACTIVE"
	// StatusSuspended marks an administratively suspended tenant.
	StatusSuspended Status = "SUSPENDED"
	// StatusDeleted marks a soft-deleted tenant.
	StatusDeleted Status = "DELETED"
)

// ErrNotFound is returned for unknown identifiers and for any tenant whose
// status is not ACTIVE.
var ErrNotFound = errors.New("tenant not found")

// Tenant maps a slug/id to the descriptor of its dedicated data store.
type Tenant struct {
	ID               string
	Slug             string
	ConnectionString string
	Status           Status
}

// Lookup is the control-plane read boundary. The identifier may be a tenant
// id or a slug.
type Lookup interface {
	FindActive(ctx context.Context, identifier string) (*Tenant, error)
}

// StaticLookup is a fixed, in-memory Lookup for tests and single-node
// deployments.
type StaticLookup struct {
	tenants []Tenant
}

// NewStaticLookup returns a Lookup over the given tenants.
func NewStaticLookup(tenants ...Tenant) *StaticLookup {
	return &StaticLookup{tenants: tenants}
}

// FindActive matches identifier against id or slug, case-insensitively for
// slugs.
func (l *StaticLookup) FindActive(ctx context.Context, identifier string) (*Tenant, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}
	for i := range l.tenants {
		t := l.tenants[i]
		if t.ID == identifier || strings.EqualFold(t.Slug, identifier) {
			if t.Status != StatusActive {
				return nil, ErrNotFound
			}
			return &t, nil
		}
	}
	return nil, ErrNotFound
}
