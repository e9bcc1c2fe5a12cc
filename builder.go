package authgate

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finvault/authgate/password"
	"github.com/finvault/authgate/revocation"
	"github.com/finvault/authgate/router"
	"github.com/finvault/authgate/tenant"
	"github.com/finvault/authgate/token"
)

// Builder assembles an Engine. Construct with New, inject the collaborators,
// and call Build exactly once.
type Builder struct {
	config Config

	redis        *redis.Client
	tenants      tenant.Lookup
	connector    router.Connector
	storeFactory StoreFactory
	notifier     Notifier
	logger       *zap.Logger

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis injects the client backing the revocation store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithTenantLookup injects the control-plane tenant registry.
func (b *Builder) WithTenantLookup(lookup tenant.Lookup) *Builder {
	b.tenants = lookup
	return b
}

// WithConnector injects the connector the Router opens tenant stores with.
func (b *Builder) WithConnector(c router.Connector) *Builder {
	b.connector = c
	return b
}

// WithStores injects the factory turning a router handle into a tenant's
// UserStore.
func (b *Builder) WithStores(f StoreFactory) *Builder {
	b.storeFactory = f
	return b
}

// WithNotifier injects the outbound email sender.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger injects a structured logger for best-effort failure reporting.
// Defaults to a no-op logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration, constructs the hasher, codec, router,
// and revocation store, and returns the Engine. The Engine owns the Router's
// lifecycle: call Engine.Close at shutdown.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	switch {
	case b.redis == nil:
		return nil, errors.New("redis client required")
	case b.tenants == nil:
		return nil, errors.New("tenant lookup required")
	case b.connector == nil:
		return nil, errors.New("connector required")
	case b.storeFactory == nil:
		return nil, errors.New("store factory required")
	case b.notifier == nil:
		return nil, errors.New("notifier required")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, err
	}
	codec, err := token.NewCodec(b.config.Token)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	routerCfg := b.config.Router
	if routerCfg.Logger == nil {
		routerCfg.Logger = logger
	}
	rt, err := router.New(b.connector, routerCfg)
	if err != nil {
		return nil, err
	}

	b.built = true
	return &Engine{
		config:      b.config,
		tenants:     b.tenants,
		router:      rt,
		stores:      b.storeFactory,
		notifier:    b.notifier,
		revocations: revocation.NewStore(b.redis, b.config.RevocationPrefix),
		hasher:      hasher,
		codec:       codec,
		logger:      logger,
	}, nil
}
