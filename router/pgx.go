package router

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConn wraps a pgx connection pool as a router Conn. The embedded Pool is
// the handle tenant stores query through.
type PgxConn struct {
	*pgxpool.Pool
}

// Close releases the pool, blocking until checked-out connections are
// returned.
func (c *PgxConn) Close(ctx context.Context) error {
	c.Pool.Close()
	return nil
}

// PgxConnector opens pgx pools from Postgres connection strings.
type PgxConnector struct {
	// PingTimeout bounds the liveness check after opening. Zero means 5s.
	PingTimeout time.Duration
}

// Open parses descriptor as a pgx pool configuration, opens the pool, and
// pings it so a dead descriptor fails here rather than on first query.
func (c *PgxConnector) Open(ctx context.Context, descriptor string) (Conn, error) {
	cfg, err := pgxpool.ParseConfig(descriptor)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	timeout := c.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PgxConn{Pool: pool}, nil
}
