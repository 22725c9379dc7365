package connector

import (
	"bytes"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POSTMODEL_POOL_MAX_SIZE.
const EnvPrefix = "POSTMODEL"

// Settings is a loaded configuration: the default database plus any extra
// named databases.
type Settings struct {
	Default   Config            `json:"default" yaml:"default"`
	Databases map[string]Config `json:"databases,omitempty" yaml:"databases,omitempty"`
}

// Names lists the extra database names in order.
func (s *Settings) Names() []string {
	names := make([]string, 0, len(s.Databases))
	for name := range s.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type LoadOption func(*loader)

// WithFs reads config and dotenv files from fs instead of the OS.
func WithFs(fs afero.Fs) LoadOption {
	return func(l *loader) { l.fs = fs }
}

// WithConfigFile reads exactly this file, which must exist.
func WithConfigFile(path string) LoadOption {
	return func(l *loader) { l.configFile = path }
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) LoadOption {
	return func(l *loader) { l.lookupEnv = fn }
}

// WithDotenv sets the dotenv files to read, later files overriding earlier ones.
func WithDotenv(paths ...string) LoadOption {
	return func(l *loader) { l.dotenv = paths }
}

type loader struct {
	fs         afero.Fs
	configFile string
	lookupEnv  func(string) (string, bool)
	dotenv     []string
	env        map[string]string
}

// configKeys are the settings that can be overridden from the environment.
var configKeys = []string{
	"scheme", "host", "port", "database", "username", "password", "ssl_mode",
	"connect_timeout", "query_timeout",
	"pool.min_size", "pool.max_size", "pool.idle_timeout", "pool.max_lifetime",
	"pool.acquire_timeout", "pool.health_check_freq",
	"retry.max_retries", "retry.base_delay", "retry.max_delay", "retry.backoff",
}

// LoadConfig loads configuration from a postmodel.{yaml,toml,json} file,
// .env and .env.local files and the environment, in increasing priority.
// A database URL (url key, POSTMODEL_URL or DATABASE_URL) overrides the
// connection fields it carries.
func LoadConfig(opts ...LoadOption) (*Settings, error) {
	l := &loader{
		fs:        afero.NewOsFs(),
		lookupEnv: os.LookupEnv,
		dotenv:    []string{".env", ".env.local"},
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.readDotenv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(l.fs)
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("postmodel")
		v.AddConfigPath(".")
	}

	// Set defaults
	def := DefaultPoolConfig()
	v.SetDefault("pool.min_size", def.MinSize)
	v.SetDefault("pool.max_size", def.MaxSize)
	v.SetDefault("pool.idle_timeout", def.IdleTimeout)
	v.SetDefault("pool.max_lifetime", def.MaxLifetime)
	v.SetDefault("pool.acquire_timeout", def.AcquireTimeout)
	v.SetDefault("pool.health_check_freq", def.HealthCheckFreq)
	v.SetDefault("connect_timeout", DefaultConnectTimeout)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, configError("read config: %v", err)
		}
	}

	for _, key := range configKeys {
		if val, ok := l.lookup(envName(key)); ok {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configError("decode config: %v", err)
	}

	url := v.GetString("url")
	if val, ok := l.lookup(EnvPrefix + "_URL"); ok {
		url = val
	} else if val, ok := l.lookup("DATABASE_URL"); ok {
		url = val
	}
	if url != "" {
		parsed, err := ParseURL(url)
		if err != nil {
			return nil, err
		}
		cfg = cfg.overlay(parsed)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Settings{Default: cfg}
	for name, raw := range v.GetStringMapString("databases") {
		parsed, err := ParseURL(raw)
		if err != nil {
			return nil, configError("database %q: %v", name, err)
		}
		extra := parsed.WithDefaults()
		if err := extra.Validate(); err != nil {
			return nil, configError("database %q: %v", name, err)
		}
		if s.Databases == nil {
			s.Databases = make(map[string]Config)
		}
		s.Databases[name] = extra
	}
	return s, nil
}

func (l *loader) readDotenv() error {
	l.env = make(map[string]string)
	for _, path := range l.dotenv {
		data, err := afero.ReadFile(l.fs, path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return configError("read %s: %v", path, err)
		}
		vars, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return configError("parse %s: %v", path, err)
		}
		for k, v := range vars {
			l.env[k] = v
		}
	}
	return nil
}

// lookup prefers the process environment over dotenv files.
func (l *loader) lookup(key string) (string, bool) {
	if v, ok := l.lookupEnv(key); ok {
		return v, true
	}
	v, ok := l.env[key]
	return v, ok
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// overlay applies the connection fields set in u.
func (c Config) overlay(u Config) Config {
	c.Scheme = u.Scheme
	c.Host, c.Port, c.Database = u.Host, u.Port, u.Database
	c.Username, c.Password = u.Username, u.Password
	if u.SSLMode != "" {
		c.SSLMode = u.SSLMode
	}
	if u.Pool.MinSize != 0 {
		c.Pool.MinSize = u.Pool.MinSize
	}
	if u.Pool.MaxSize != 0 {
		c.Pool.MaxSize = u.Pool.MaxSize
	}
	if u.ConnectTimeout != 0 {
		c.ConnectTimeout = u.ConnectTimeout
	}
	if len(u.Params) > 0 {
		params := make(map[string]string, len(c.Params)+len(u.Params))
		for k, v := range c.Params {
			params[k] = v
		}
		for k, v := range u.Params {
			params[k] = v
		}
		c.Params = params
	}
	return c
}
