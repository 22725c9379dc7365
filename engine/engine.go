// Package engine ties a provider, a connection pool, an executor and a
// rendered statement cache into one handle per configured database.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/cache"
	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/executor"
	"github.com/Konsultn-Engineering/postmodel/pool"
	"github.com/Konsultn-Engineering/postmodel/providers"
	"github.com/Konsultn-Engineering/postmodel/query"
	"github.com/Konsultn-Engineering/postmodel/schema"
	"github.com/Konsultn-Engineering/postmodel/utils"
	"github.com/Konsultn-Engineering/postmodel/visitor"
)

// DefaultCloseTimeout bounds Close when the caller's context has no deadline.
const DefaultCloseTimeout = 10 * time.Second

// DefaultName is the name of the engine built from Settings.Default.
const DefaultName = "default"

type Engine struct {
	name      string
	connector *connector.Connector
	pool      *pool.Pool
	exec      *executor.Executor
	renders   *cache.RenderCache
	models    *schema.Context
	log       logrus.FieldLogger
}

// Open resolves cfg's provider, opens the pool's minimum connections and
// returns a ready engine.
func Open(ctx context.Context, cfg connector.Config, opts ...Option) (*Engine, error) {
	o := options{name: DefaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = utils.DiscardLogger()
	}
	if o.providers == nil {
		o.providers = providers.Registry()
	}
	if o.models == nil {
		o.models = schema.Default()
	}
	log := o.log.WithField("engine", o.name)

	conn, err := o.providers.New(cfg, log)
	if err != nil {
		return nil, err
	}
	cfg = conn.Config()

	p, err := pool.New(ctx, cfg.Pool, conn.Connect, pool.WithLogger(log), pool.WithName(o.name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Redacted(), err)
	}

	execOpts := []executor.Option{executor.WithLogger(log), executor.WithQueryTimeout(cfg.QueryTimeout)}
	if o.decoders != nil {
		execOpts = append(execOpts, executor.WithDecoders(o.decoders))
	}

	return &Engine{
		name:      o.name,
		connector: conn,
		pool:      p,
		exec:      executor.New(p, conn.Provider().Dialect(), execOpts...),
		renders:   cache.NewRenderCache(o.renderCacheSize),
		models:    o.models,
		log:       log,
	}, nil
}

func (e *Engine) Name() string                 { return e.name }
func (e *Engine) Config() connector.Config     { return e.connector.Config() }
func (e *Engine) Dialect() dialect.Dialect     { return e.exec.Dialect() }
func (e *Engine) Pool() *pool.Pool             { return e.pool }
func (e *Engine) Executor() *executor.Executor { return e.exec }
func (e *Engine) Schema() *schema.Context      { return e.models }

// Render builds stmt and renders it for the engine's dialect, reusing cached
// renderings of identical trees.
func (e *Engine) Render(stmt query.Statement) (*visitor.RenderedQuery, error) {
	node, err := stmt.Build()
	if err != nil {
		return nil, err
	}
	return e.renders.Render(node, e.Dialect())
}

// Raw binds args to hand-written SQL in the engine's placeholder style.
func (e *Engine) Raw(sql string, args ...any) *visitor.RenderedQuery {
	return visitor.Raw(e.Dialect(), sql, args...)
}

func (e *Engine) Query(ctx context.Context, stmt query.Statement) (*executor.ResultSet, error) {
	q, err := e.Render(stmt)
	if err != nil {
		return nil, err
	}
	return e.exec.Execute(ctx, q)
}

// Exec runs stmt and returns the number of rows it affected.
func (e *Engine) Exec(ctx context.Context, stmt query.Statement) (int64, error) {
	q, err := e.Render(stmt)
	if err != nil {
		return 0, err
	}
	return e.exec.Exec(ctx, q)
}

// InTransaction runs fn in a transaction. Engine and executor calls made
// with the context given to fn join it.
func (e *Engine) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.exec.InTransaction(ctx, func(ctx context.Context, _ *executor.Session) error {
		return fn(ctx)
	})
}

// Ping leases a connection and pings it.
func (e *Engine) Ping(ctx context.Context) error {
	c, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := c.Raw().Ping(ctx); err != nil {
		c.Discard()
		return err
	}
	c.Release()
	return nil
}

// CreateDatabase creates the configured database through the provider's
// maintenance connection.
func (e *Engine) CreateDatabase(ctx context.Context) error {
	admin, ok := e.connector.Admin()
	if !ok {
		return fmt.Errorf("%w: %s cannot create databases", errs.ErrUnsupportedConstruct, e.Config().Scheme)
	}
	return admin.CreateDatabase(ctx, e.Config())
}

// DropDatabase drops the configured database. Close the engine first: most
// servers refuse to drop a database with open sessions.
func (e *Engine) DropDatabase(ctx context.Context) error {
	admin, ok := e.connector.Admin()
	if !ok {
		return fmt.Errorf("%w: %s cannot drop databases", errs.ErrUnsupportedConstruct, e.Config().Scheme)
	}
	return admin.DropDatabase(ctx, e.Config())
}

type Stats struct {
	Name   string      `json:"name" yaml:"name"`
	Pool   pool.Stats  `json:"pool" yaml:"pool"`
	Render cache.Stats `json:"render_cache" yaml:"render_cache"`
}

func (e *Engine) Stats() Stats {
	return Stats{Name: e.name, Pool: e.pool.Stats(), Render: e.renders.Stats()}
}

// Close stops new leases and waits for leased connections to come back.
// When ctx (or DefaultCloseTimeout, if ctx has no deadline) expires first,
// the remaining connections are closed under their holders.
func (e *Engine) Close(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCloseTimeout)
		defer cancel()
	}
	if err := e.pool.Close(ctx); err != nil {
		e.log.WithError(err).Warn("Connections still leased at close, terminating")
		e.pool.Terminate()
		return err
	}
	return nil
}
