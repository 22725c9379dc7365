package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/codec"
	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/schema"
)

type options struct {
	name            string
	log             logrus.FieldLogger
	providers       *connector.Registry
	decoders        *codec.Registry
	models          *schema.Context
	renderCacheSize int
}

type Option func(*options)

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithName labels the engine's pool and log entries. Registry sets it to the
// configured database name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithProviders replaces the registry that resolves Config.Scheme.
func WithProviders(r *connector.Registry) Option {
	return func(o *options) { o.providers = r }
}

func WithDecoders(r *codec.Registry) Option {
	return func(o *options) { o.decoders = r }
}

// WithSchema sets the model mapping used by the model helpers.
func WithSchema(c *schema.Context) Option {
	return func(o *options) { o.models = c }
}

// WithRenderCacheSize bounds the rendered statement cache.
func WithRenderCacheSize(n int) Option {
	return func(o *options) { o.renderCacheSize = n }
}
