package pool

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Option func(*Pool)

// WithLogger sets the logger for pool events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pool) { p.log = log }
}

// WithName labels log entries with the pool's name.
func WithName(name string) Option {
	return func(p *Pool) { p.name = name }
}

// WithReapInterval overrides how often the reaper runs.
func WithReapInterval(d time.Duration) Option {
	return func(p *Pool) { p.reapInterval = d }
}

// WithCloseTimeout bounds how long a connection close may take.
func WithCloseTimeout(d time.Duration) Option {
	return func(p *Pool) { p.closeTimeout = d }
}
