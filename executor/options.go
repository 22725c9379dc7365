package executor

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/codec"
)

type Option func(*Executor)

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Executor) { e.log = log }
}

// WithDecoders replaces the default decoder registry.
func WithDecoders(r *codec.Registry) Option {
	return func(e *Executor) { e.decoders = r }
}

// WithQueryTimeout bounds every statement. Zero leaves statements bounded
// only by the caller's context.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Executor) { e.queryTimeout = d }
}
