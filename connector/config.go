package connector

import (
	"fmt"
	"time"

	"github.com/Konsultn-Engineering/postmodel/errs"
)

// Config represents database connection configuration.
type Config struct {
	// Scheme selects the provider: postgres, pq, mysql, tidb or sqlite.
	Scheme         string            `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host           string            `json:"host" yaml:"host" mapstructure:"host"`
	Port           int               `json:"port" yaml:"port" mapstructure:"port"`
	Database       string            `json:"database" yaml:"database" mapstructure:"database"`
	Username       string            `json:"username" yaml:"username" mapstructure:"username"`
	Password       string            `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	SSLMode        string            `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
	Params         map[string]string `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool" mapstructure:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration     `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`
	Retry          *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty" mapstructure:"retry"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MinSize        int           `json:"min_size" yaml:"min_size" mapstructure:"min_size"`
	MaxSize        int           `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxLifetime    time.Duration `json:"max_lifetime" yaml:"max_lifetime" mapstructure:"max_lifetime"`
	AcquireTimeout time.Duration `json:"acquire_timeout" yaml:"acquire_timeout" mapstructure:"acquire_timeout"`
	// HealthCheckFreq is how long a connection may sit idle before it is
	// pinged on acquire. Zero pings on every acquire.
	HealthCheckFreq time.Duration `json:"health_check_freq" yaml:"health_check_freq" mapstructure:"health_check_freq"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
	Backoff    float64       `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
}

const (
	DefaultMinSize         = 1
	DefaultMaxSize         = 30
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultMaxLifetime     = time.Hour
	DefaultAcquireTimeout  = 30 * time.Second
	DefaultHealthCheckFreq = time.Minute
	DefaultConnectTimeout  = 10 * time.Second
)

var defaultPorts = map[string]int{
	"postgres": 5432,
	"pq":       5432,
	"mysql":    3306,
	"tidb":     4000,
}

// DefaultPoolConfig returns the pool settings used for zero fields.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinSize:         DefaultMinSize,
		MaxSize:         DefaultMaxSize,
		IdleTimeout:     DefaultIdleTimeout,
		MaxLifetime:     DefaultMaxLifetime,
		AcquireTimeout:  DefaultAcquireTimeout,
		HealthCheckFreq: DefaultHealthCheckFreq,
	}
}

// WithDefaults fills zero fields. A zero HealthCheckFreq is kept only when
// the rest of the pool section was set explicitly.
func (c Config) WithDefaults() Config {
	if c.Port == 0 && c.Host != "" {
		c.Port = defaultPorts[c.Scheme]
	}
	if c.Pool == (PoolConfig{}) {
		c.Pool = DefaultPoolConfig()
	}
	if c.Pool.MaxSize == 0 {
		c.Pool.MaxSize = DefaultMaxSize
	}
	if c.Pool.AcquireTimeout == 0 {
		c.Pool.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Retry != nil {
		r := *c.Retry
		if r.BaseDelay == 0 {
			r.BaseDelay = time.Second
		}
		if r.Backoff < 1 {
			r.Backoff = 2
		}
		c.Retry = &r
	}
	return c
}

// Validate checks the configuration for values no provider can use.
func (c Config) Validate() error {
	if _, ok := providerSchemes[c.Scheme]; !ok {
		return configError("unknown scheme %q", c.Scheme)
	}
	if c.Scheme == "sqlite" {
		if c.Database == "" {
			return configError("sqlite requires a database path")
		}
	} else {
		if c.Host == "" {
			return configError("host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return configError("invalid port: %d", c.Port)
		}
	}
	return c.Pool.Validate()
}

func (p PoolConfig) Validate() error {
	switch {
	case p.MaxSize < 1:
		return configError("pool max_size must be at least 1, got %d", p.MaxSize)
	case p.MinSize < 0 || p.MinSize > p.MaxSize:
		return configError("pool min_size %d outside [0, %d]", p.MinSize, p.MaxSize)
	case p.IdleTimeout < 0, p.MaxLifetime < 0, p.AcquireTimeout < 0, p.HealthCheckFreq < 0:
		return configError("pool durations must not be negative")
	}
	return nil
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrConfiguration, fmt.Sprintf(format, args...))
}
