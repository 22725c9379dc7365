// Package mysql dials MySQL and TiDB sessions through go-sql-driver/mysql.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

type Provider struct {
	dialect dialect.Dialect
}

func New() *Provider     { return &Provider{dialect: dialect.NewMySQLDialect()} }
func NewTiDB() *Provider { return &Provider{dialect: dialect.NewTiDBDialect()} }

// DriverConfig translates cfg for the driver. Statements may be batched,
// temporal columns arrive as time.Time and UPDATE reports matched rather than
// changed rows.
func DriverConfig(cfg connector.Config) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.Timeout = cfg.ConnectTimeout
	mc.ParseTime = true
	mc.MultiStatements = true
	mc.ClientFoundRows = true
	if cfg.SSLMode != "" && cfg.SSLMode != "disable" {
		mc.TLSConfig = "preferred"
		if cfg.SSLMode == "require" || cfg.SSLMode == "verify-full" {
			mc.TLSConfig = "true"
		}
	}
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc
}

func (p *Provider) Dial(ctx context.Context, cfg connector.Config) (database.Conn, error) {
	c, err := mysql.NewConnector(DriverConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	return database.OpenSQL(ctx, c, p.dialect, Classify)
}

func (p *Provider) Dialect() dialect.Dialect { return p.dialect }

func (p *Provider) CreateDatabase(ctx context.Context, cfg connector.Config) error {
	return p.admin(ctx, cfg, "CREATE DATABASE "+p.dialect.QuoteIdentifier(cfg.Database))
}

func (p *Provider) DropDatabase(ctx context.Context, cfg connector.Config) error {
	return p.admin(ctx, cfg, "DROP DATABASE "+p.dialect.QuoteIdentifier(cfg.Database))
}

func (p *Provider) admin(ctx context.Context, cfg connector.Config, sql string) error {
	if cfg.Database == "" {
		return fmt.Errorf("%w: no database configured", errs.ErrConfiguration)
	}
	maint := cfg
	maint.Database = ""
	conn, err := p.Dial(ctx, maint)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, sql, nil)
	return err
}

// integrityErrors are server error numbers for constraint violations.
var integrityErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1216: true, // foreign key: no parent row
	1217: true, // foreign key: row is referenced
	1364: true, // field has no default value
	1451: true, // foreign key: cannot delete parent
	1452: true, // foreign key: cannot add child
	3819: true, // check constraint violated
}

// Classify maps driver errors. An invalid connection is a lost session.
func Classify(err error) error {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return database.Lost(err)
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return nil
	}
	if integrityErrors[myErr.Number] {
		return database.Integrity(err)
	}
	return database.Operational(err)
}
