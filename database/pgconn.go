package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/codec"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// PgConn speaks the Postgres wire protocol through pgconn. Statements go
// through the extended query protocol with text results.
type PgConn struct {
	conn    *pgconn.PgConn
	types   *pgtype.Map
	dialect dialect.Dialect
}

// ConnectPg opens a session from a libpq-style connection string or URL.
func ConnectPg(ctx context.Context, connString string) (*PgConn, error) {
	cfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	conn, err := pgconn.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, ClassifyPg(err)
	}
	return NewPgConn(conn), nil
}

// NewPgConn wraps an established pgconn session.
func NewPgConn(conn *pgconn.PgConn) *PgConn {
	return &PgConn{
		conn:    conn,
		types:   pgtype.NewMap(),
		dialect: dialect.NewPostgresDialect(),
	}
}

func (c *PgConn) Dialect() dialect.Dialect { return c.dialect }

// PID is the server backend process id, useful in logs.
func (c *PgConn) PID() uint32 { return c.conn.PID() }

func (c *PgConn) Query(ctx context.Context, sql string, args []ast.Value) (Rows, error) {
	p, err := codec.EncodePg(c.types, args)
	if err != nil {
		return nil, err
	}
	rr := c.conn.ExecParams(ctx, sql, p.Values, p.OIDs, p.Formats, nil)
	return &pgRows{rr: rr}, nil
}

func (c *PgConn) Exec(ctx context.Context, sql string, args []ast.Value) (Result, error) {
	rows, err := c.Query(ctx, sql, args)
	if err != nil {
		return Result{}, err
	}
	return drain(rows)
}

func (c *PgConn) ExecScript(ctx context.Context, sql string) error {
	_, err := c.conn.Exec(ctx, sql).ReadAll()
	return ClassifyPg(err)
}

func (c *PgConn) Ping(ctx context.Context) error {
	return ClassifyPg(c.conn.Exec(ctx, "-- ping").Close())
}

func (c *PgConn) Close(ctx context.Context) error { return c.conn.Close(ctx) }

func (c *PgConn) IsClosed() bool { return c.conn.IsClosed() }

type pgRows struct {
	rr     *pgconn.ResultReader
	fields []Field
}

func (r *pgRows) Fields() []Field {
	if r.fields == nil {
		fds := r.rr.FieldDescriptions()
		r.fields = make([]Field, len(fds))
		for i, fd := range fds {
			r.fields[i] = Field{Name: fd.Name, TypeCode: fd.DataTypeOID, Format: fd.Format}
		}
	}
	return r.fields
}

func (r *pgRows) Next() bool          { return r.rr.NextRow() }
func (r *pgRows) RawValues() [][]byte { return r.rr.Values() }

func (r *pgRows) Close() (Result, error) {
	tag, err := r.rr.Close()
	if err != nil {
		return Result{}, ClassifyPg(err)
	}
	return Result{Tag: tag.String(), RowsAffected: tag.RowsAffected()}, nil
}

// ClassifyPg maps pgconn errors: class 23 server errors are integrity
// violations, other server errors are operational, and anything else that is
// not the caller's cancellation means the session is gone.
func ClassifyPg(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
			return Integrity(err)
		}
		return operational(err)
	}
	if IsCanceled(err) {
		return err
	}
	return lost(err)
}
