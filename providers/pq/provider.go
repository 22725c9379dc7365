// Package pq dials Postgres sessions through lib/pq and database/sql.
package pq

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/providers/postgres"
)

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Dial(ctx context.Context, cfg connector.Config) (database.Conn, error) {
	dsn := connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Build()
	c, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	return database.OpenSQL(ctx, c, p.Dialect(), Classify)
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}

func (p *Provider) CreateDatabase(ctx context.Context, cfg connector.Config) error {
	return postgres.Admin(ctx, p, cfg, postgres.CreateDatabaseSQL(cfg))
}

func (p *Provider) DropDatabase(ctx context.Context, cfg connector.Config) error {
	return postgres.Admin(ctx, p, cfg, postgres.DropDatabaseSQL(cfg))
}

// Classify maps lib/pq server errors by SQLSTATE class.
func Classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	if pqErr.Code.Class() == "23" {
		return database.Integrity(err)
	}
	return database.Operational(err)
}
