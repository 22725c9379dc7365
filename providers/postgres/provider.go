// Package postgres dials Postgres sessions over the native wire protocol.
package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// MaintenanceDatabase is the database administrative sessions connect to.
const MaintenanceDatabase = "postgres"

type Provider struct{}

func New() *Provider { return &Provider{} }

// DSN renders cfg as a connection URL for pgconn.
func DSN(cfg connector.Config) string {
	b := connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params)
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		b.Param("connect_timeout", strconv.Itoa(secs))
	}
	return b.WithPostgresDefaults().Build()
}

func (p *Provider) Dial(ctx context.Context, cfg connector.Config) (database.Conn, error) {
	return database.ConnectPg(ctx, DSN(cfg))
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}

func (p *Provider) CreateDatabase(ctx context.Context, cfg connector.Config) error {
	return Admin(ctx, p, cfg, CreateDatabaseSQL(cfg))
}

func (p *Provider) DropDatabase(ctx context.Context, cfg connector.Config) error {
	return Admin(ctx, p, cfg, DropDatabaseSQL(cfg))
}

// CreateDatabaseSQL creates cfg's database owned by its user.
func CreateDatabaseSQL(cfg connector.Config) string {
	d := dialect.NewPostgresDialect()
	sql := "CREATE DATABASE " + d.QuoteIdentifier(cfg.Database)
	if cfg.Username != "" {
		sql += " OWNER " + d.QuoteIdentifier(cfg.Username)
	}
	return sql
}

func DropDatabaseSQL(cfg connector.Config) string {
	return "DROP DATABASE " + dialect.NewPostgresDialect().QuoteIdentifier(cfg.Database)
}

// Admin runs one statement on a maintenance session of p.
func Admin(ctx context.Context, p connector.Provider, cfg connector.Config, sql string) error {
	if cfg.Database == "" {
		return fmt.Errorf("%w: no database configured", errs.ErrConfiguration)
	}
	maint := cfg
	maint.Database = MaintenanceDatabase
	conn, err := p.Dial(ctx, maint)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, sql, nil)
	return err
}
