// Package sqlite opens SQLite databases through mattn/go-sqlite3.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/dialect"
)

// MemoryDatabase names an in-memory database shared by every session of
// the pool.
const MemoryDatabase = ":memory:"

type Provider struct {
	driver *sqlite3.SQLiteDriver
}

func New() *Provider { return &Provider{driver: &sqlite3.SQLiteDriver{}} }

// DSN renders cfg for go-sqlite3. A busy timeout is set unless given so
// pooled sessions wait on each other's write locks.
func DSN(cfg connector.Config) string {
	params := map[string]string{"_busy_timeout": "5000"}
	for k, v := range cfg.Params {
		params[k] = v
	}

	path := cfg.Database
	if path == MemoryDatabase {
		path = "file::memory:"
		params["cache"] = "shared"
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := make([]string, len(keys))
	for i, k := range keys {
		q[i] = url.QueryEscape(k) + "=" + url.QueryEscape(params[k])
	}
	return path + "?" + strings.Join(q, "&")
}

func (p *Provider) Dial(ctx context.Context, cfg connector.Config) (database.Conn, error) {
	return database.OpenSQL(ctx, database.DriverConnector(p.driver, DSN(cfg)), p.Dialect(), Classify)
}

func (p *Provider) Dialect() dialect.Dialect { return dialect.NewSQLiteDialect() }

// CreateDatabase creates the database file by opening it.
func (p *Provider) CreateDatabase(ctx context.Context, cfg connector.Config) error {
	conn, err := p.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}

// DropDatabase removes the database file and its journal files.
func (p *Provider) DropDatabase(_ context.Context, cfg connector.Config) error {
	if cfg.Database == "" || cfg.Database == MemoryDatabase {
		return fmt.Errorf("cannot drop database %q", cfg.Database)
	}
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(cfg.Database + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Classify maps constraint failures to integrity errors and other SQLite
// errors to operational ones.
func Classify(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil
	}
	if se.Code == sqlite3.ErrConstraint {
		return database.Integrity(err)
	}
	return database.Operational(err)
}
