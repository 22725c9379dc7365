package connector

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/utils"
)

// Registry maps provider names to providers. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// Provider returns the provider registered under name.
func (r *Registry) Provider(name string) (Provider, error) {
	r.mu.RLock()
	provider, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, configError("provider %s not registered", name)
	}
	return provider, nil
}

// Names lists the registered providers in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connector dials sessions for one configuration.
type Connector struct {
	provider Provider
	config   Config
	log      logrus.FieldLogger
}

// New validates config and binds it to its provider.
func (r *Registry) New(config Config, log logrus.FieldLogger) (*Connector, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	provider, err := r.Provider(config.Scheme)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = utils.DiscardLogger()
	}
	return &Connector{provider: provider, config: config, log: log}, nil
}

func (c *Connector) Config() Config     { return c.config }
func (c *Connector) Provider() Provider { return c.provider }

// Connect opens one session, bounded by ConnectTimeout and retried per the
// Retry settings.
func (c *Connector) Connect(ctx context.Context) (database.Conn, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	if c.config.Retry == nil {
		return c.provider.Dial(ctx, c.config)
	}
	return retryConnect(ctx, *c.config.Retry, c.log, func(ctx context.Context) (database.Conn, error) {
		return c.provider.Dial(ctx, c.config)
	})
}

// Admin returns the provider's database administration, if it has one.
func (c *Connector) Admin() (DatabaseAdmin, bool) {
	admin, ok := c.provider.(DatabaseAdmin)
	return admin, ok
}
