// Package router manages live per-tenant data-store connections. It is a pure
// resource-lifecycle manager: a bounded cache keyed by tenant id, with
// single-flight connection opening and oldest-inserted eviction.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultCapacity bounds the number of concurrently open tenant connections
// unless overridden in Config.
const DefaultCapacity = 10

var (
	// ErrConnectivity wraps every failure to open or reach a tenant store.
	ErrConnectivity = errors.New("tenant store unreachable")
	// ErrClosed is returned by Resolve after Close.
	ErrClosed = errors.New("router closed")
)

// Conn is a live, reusable handle to one tenant's data store. Handles are
// owned by the Router and shared by all requests for that tenant; callers
// never close them directly.
type Conn interface {
	Close(ctx context.Context) error
}

// Connector opens a connection from an opaque descriptor. Implementations
// must be safe for concurrent use.
type Connector interface {
	Open(ctx context.Context, descriptor string) (Conn, error)
}

// Config tunes the Router.
type Config struct {
	Capacity int
	Logger   *zap.Logger
}

type entry struct {
	tenantID string
	ready    chan struct{}
	conn     Conn
	err      error
}

func (e *entry) wait(ctx context.Context) (Conn, error) {
	select {
	case <-e.ready:
		if e.err != nil {
			return nil, e.err
		}
		return e.conn, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, ctx.Err())
	}
}

// Router caches one connection per tenant up to a fixed capacity. Inserting
// beyond capacity evicts the oldest-inserted entry (insertion order, not
// last-used order) and closes its connection asynchronously.
type Router struct {
	connector Connector
	capacity  int
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	closed  bool
}

// New returns a Router backed by connector.
func New(connector Connector, cfg Config) (*Router, error) {
	if connector == nil {
		return nil, errors.New("connector is required")
	}
	if cfg.Capacity < 0 {
		return nil, errors.New("negative capacity")
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Router{
		connector: connector,
		capacity:  cfg.Capacity,
		logger:    cfg.Logger,
		entries:   make(map[string]*entry),
	}, nil
}

// Resolve returns the cached handle for tenantID, opening one with descriptor
// on first use. Concurrent calls for the same unseen tenant perform exactly
// one open: the second caller blocks until the first caller's dial settles
// and receives the same handle. Calls for distinct tenants never block each
// other; the map lock is never held across dial or close I/O.
func (r *Router) Resolve(ctx context.Context, tenantID, descriptor string) (Conn, error) {
	if tenantID == "" {
		return nil, errors.New("empty tenant id")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if existing, ok := r.entries[tenantID]; ok {
		r.mu.Unlock()
		return existing.wait(ctx)
	}

	e := &entry{tenantID: tenantID, ready: make(chan struct{})}
	var evicted *entry
	if len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		evicted = r.entries[oldest]
		delete(r.entries, oldest)
	}
	r.entries[tenantID] = e
	r.order = append(r.order, tenantID)
	r.mu.Unlock()

	if evicted != nil {
		go r.closeEvicted(evicted)
	}

	conn, err := r.connector.Open(ctx, descriptor)
	if err != nil {
		e.err = fmt.Errorf("%w: open connection for tenant %s: %v", ErrConnectivity, tenantID, err)
		r.remove(e)
		close(e.ready)
		return nil, e.err
	}

	e.conn = conn
	close(e.ready)
	r.logger.Debug("tenant connection opened", zap.String("tenant_id", tenantID))
	return conn, nil
}

// remove drops e from the cache if it is still the live entry for its tenant.
func (r *Router) remove(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[e.tenantID] == e {
		delete(r.entries, e.tenantID)
		r.order = removeID(r.order, e.tenantID)
	}
}

func (r *Router) closeEvicted(e *entry) {
	<-e.ready
	if e.conn == nil {
		return
	}
	if err := e.conn.Close(context.Background()); err != nil {
		r.logger.Warn("evicted tenant connection close failed",
			zap.String("tenant_id", e.tenantID), zap.Error(err))
		return
	}
	r.logger.Debug("evicted tenant connection closed", zap.String("tenant_id", e.tenantID))
}

// Evict closes and removes the handle for tenantID, waiting for full
// connection closure. Evicting an unknown tenant is a no-op.
func (r *Router) Evict(ctx context.Context, tenantID string) error {
	r.mu.Lock()
	e, ok := r.entries[tenantID]
	if ok {
		delete(r.entries, tenantID)
		r.order = removeID(r.order, tenantID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	// Wait for an in-flight open to settle regardless of caller
	// cancellation: a handle produced after the caller gave up would
	// otherwise be unowned and never closed.
	<-e.ready
	if e.err != nil || e.conn == nil {
		return nil
	}
	return e.conn.Close(ctx)
}

// Close evicts every cached handle and rejects further resolves. Used at
// process shutdown; it returns once every connection has fully closed.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	drained := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		drained = append(drained, r.entries[id])
	}
	r.entries = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	var errs []error
	for _, e := range drained {
		// Settle in-flight opens before closing so no handle outlives the
		// router, even when the shutdown ctx is already cancelled.
		<-e.ready
		if e.err != nil || e.conn == nil {
			continue
		}
		if err := e.conn.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close tenant %s: %w", e.tenantID, err))
		}
	}
	return errors.Join(errs...)
}

// Size reports the number of cached entries, including in-flight opens.
func (r *Router) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func removeID(order []string, tenantID string) []string {
	for i, id := range order {
		if id == tenantID {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
