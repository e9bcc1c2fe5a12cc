package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry reads the authoritative tenant table from the shared
// control-plane database.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry returns a registry querying pool.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// FindActive looks the tenant up by id or slug. Non-active rows are reported
// as ErrNotFound, identically to missing rows.
func (r *PostgresRegistry) FindActive(ctx context.Context, identifier string) (*Tenant, error) {
	var t Tenant
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug, connection_string, status
		FROM tenants
		WHERE id = $1 OR lower(slug) = lower($1)
	`, identifier)
	if err := row.Scan(&t.ID, &t.Slug, &t.ConnectionString, &t.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}

	if t.Status != StatusActive {
		return nil, ErrNotFound
	}
	return &t, nil
}
