package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/codec"
	"github.com/Konsultn-Engineering/postmodel/dialect"
)

// SQLConn runs one database/sql driver session. It owns a single-connection
// *sql.DB so the driver's own pooling never comes into play.
type SQLConn struct {
	db       *sql.DB
	conn     *sql.Conn
	dialect  dialect.Dialect
	classify Classifier
	closed   atomic.Bool
}

// OpenSQL dials one session through connector. classify maps driver errors
// onto the error taxonomy and returns nil for errors it does not recognize,
// which then fall back to ClassifySQL.
func OpenSQL(ctx context.Context, connector driver.Connector, d dialect.Dialect, classify Classifier) (*SQLConn, error) {
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLConn{db: db, dialect: d, classify: classify}
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, c.wrap(err)
	}
	c.conn = conn
	return c, nil
}

func (c *SQLConn) Dialect() dialect.Dialect { return c.dialect }

func (c *SQLConn) Query(ctx context.Context, query string, args []ast.Value) (Rows, error) {
	values, err := codec.DriverArgs(args)
	if err != nil {
		return nil, err
	}
	rows, err := c.conn.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, c.wrap(err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		_ = rows.Close()
		return nil, c.wrap(err)
	}

	r := &sqlRows{
		conn:     c,
		rows:     rows,
		declared: make([]uint32, len(types)),
		fields:   make([]Field, len(types)),
		dest:     make([]any, len(types)),
		scanned:  make([]any, len(types)),
		raw:      make([][]byte, len(types)),
	}
	for i, ct := range types {
		r.declared[i] = codec.TypeCodeForName(ct.DatabaseTypeName())
		r.fields[i] = Field{Name: ct.Name(), TypeCode: r.declared[i], Format: codec.TextFormat}
		r.dest[i] = &r.scanned[i]
	}
	return r, nil
}

func (c *SQLConn) Exec(ctx context.Context, query string, args []ast.Value) (Result, error) {
	values, err := codec.DriverArgs(args)
	if err != nil {
		return Result{}, err
	}
	res, err := c.conn.ExecContext(ctx, query, values...)
	if err != nil {
		return Result{}, c.wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = -1
	}
	return Result{RowsAffected: n}, nil
}

func (c *SQLConn) ExecScript(ctx context.Context, script string) error {
	_, err := c.conn.ExecContext(ctx, script)
	return c.wrap(err)
}

func (c *SQLConn) Ping(ctx context.Context) error {
	return c.wrap(c.conn.PingContext(ctx))
}

func (c *SQLConn) Close(context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.conn.Close()
	if dbErr := c.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

func (c *SQLConn) IsClosed() bool { return c.closed.Load() }

// wrap classifies err and marks the session dead when the connection is lost.
func (c *SQLConn) wrap(err error) error {
	if err == nil {
		return nil
	}
	var out error
	if c.classify != nil {
		out = c.classify(err)
	}
	if out == nil {
		out = ClassifySQL(err)
	}
	if isLost(out) {
		c.closed.Store(true)
	}
	return out
}

// ClassifySQL is the driver-independent fallback: broken connections and
// network failures are lost sessions, anything else is operational.
func ClassifySQL(err error) error {
	if err == nil || IsCanceled(err) {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		return lost(err)
	}
	return operational(err)
}

type sqlRows struct {
	conn     *SQLConn
	rows     *sql.Rows
	declared []uint32
	fields   []Field
	dest     []any
	scanned  []any
	raw      [][]byte
	count    int64
	err      error
}

// Fields reflects the current row. Columns without a declared type take the
// type of the value just read.
func (r *sqlRows) Fields() []Field { return r.fields }

func (r *sqlRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	if err := r.rows.Scan(r.dest...); err != nil {
		r.err = err
		return false
	}
	for i, v := range r.scanned {
		raw, code, format := codec.FromDriver(v, r.declared[i])
		r.raw[i] = raw
		r.fields[i].TypeCode, r.fields[i].Format = code, format
	}
	r.count++
	return true
}

func (r *sqlRows) RawValues() [][]byte { return r.raw }

func (r *sqlRows) Close() (Result, error) {
	err := r.err
	if err == nil {
		err = r.rows.Err()
	}
	if cerr := r.rows.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, r.conn.wrap(err)
	}
	return Result{RowsAffected: r.count}, nil
}

// DriverConnector adapts a driver that only opens by name to driver.Connector.
func DriverConnector(drv driver.Driver, dsn string) driver.Connector {
	if dc, ok := drv.(driver.DriverContext); ok {
		if c, err := dc.OpenConnector(dsn); err == nil {
			return c
		}
	}
	return dsnConnector{drv: drv, dsn: dsn}
}

type dsnConnector struct {
	drv driver.Driver
	dsn string
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) { return c.drv.Open(c.dsn) }
func (c dsnConnector) Driver() driver.Driver                       { return c.drv }
