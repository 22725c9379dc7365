// Package dbtest provides scripted in-memory transports for tests.
package dbtest

import (
	"context"
	"errors"
	"sync"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/dialect"
)

// ErrClosed is returned by calls on a closed Conn.
var ErrClosed = errors.New("dbtest: connection closed")

// Result is the scripted outcome of one statement. Err, when set, is
// returned from Rows.Close (or Exec) after the rows have been read.
type Result struct {
	Fields       []database.Field
	Rows         [][][]byte
	Tag          string
	RowsAffected int64
	Err          error
	// QueryErr fails the call itself before any rows are returned.
	QueryErr error
}

// Handler scripts the response to a statement.
type Handler func(ctx context.Context, sql string, args []ast.Value) Result

// Call records one statement sent to a Conn.
type Call struct {
	SQL  string
	Args []ast.Value
}

// Conn is a database.Conn that answers from a Handler.
type Conn struct {
	ID      int
	Handler Handler
	dialect dialect.Dialect

	mu      sync.Mutex
	pingErr error
	closed  bool
	calls   []Call
	pings   int
}

func NewConn(id int, d dialect.Dialect, h Handler) *Conn {
	return &Conn{ID: id, Handler: h, dialect: d}
}

func (c *Conn) Dialect() dialect.Dialect { return c.dialect }

// SetPingErr makes later pings fail with err.
func (c *Conn) SetPingErr(err error) {
	c.mu.Lock()
	c.pingErr = err
	c.mu.Unlock()
}

// Calls returns the statements received so far.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// SQL returns the text of the statements received so far.
func (c *Conn) SQL() []string {
	var out []string
	for _, call := range c.Calls() {
		out = append(out, call.SQL)
	}
	return out
}

func (c *Conn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *Conn) respond(ctx context.Context, sql string, args []ast.Value) (Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, database.Lost(ErrClosed)
	}
	c.calls = append(c.calls, Call{SQL: sql, Args: append([]ast.Value(nil), args...)})
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if c.Handler == nil {
		return Result{}, nil
	}
	res := c.Handler(ctx, sql, args)
	if res.QueryErr != nil {
		return Result{}, res.QueryErr
	}
	return res, nil
}

func (c *Conn) Query(ctx context.Context, sql string, args []ast.Value) (database.Rows, error) {
	res, err := c.respond(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{res: res, pos: -1}, nil
}

func (c *Conn) Exec(ctx context.Context, sql string, args []ast.Value) (database.Result, error) {
	res, err := c.respond(ctx, sql, args)
	if err != nil {
		return database.Result{}, err
	}
	if res.Err != nil {
		return database.Result{}, res.Err
	}
	return database.Result{Tag: res.Tag, RowsAffected: res.RowsAffected}, nil
}

func (c *Conn) ExecScript(ctx context.Context, sql string) error {
	_, err := c.Exec(ctx, sql, nil)
	return err
}

func (c *Conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	if c.closed {
		return database.Lost(ErrClosed)
	}
	return c.pingErr
}

func (c *Conn) Close(context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Rows replays a scripted result.
type Rows struct {
	res Result
	pos int
}

func (r *Rows) Fields() []database.Field { return r.res.Fields }

func (r *Rows) Next() bool {
	if r.pos+1 >= len(r.res.Rows) {
		r.pos = len(r.res.Rows)
		return false
	}
	r.pos++
	return true
}

func (r *Rows) RawValues() [][]byte { return r.res.Rows[r.pos] }

func (r *Rows) Close() (database.Result, error) {
	if r.res.Err != nil {
		return database.Result{}, r.res.Err
	}
	affected := r.res.RowsAffected
	if affected == 0 {
		affected = int64(len(r.res.Rows))
	}
	return database.Result{Tag: r.res.Tag, RowsAffected: affected}, nil
}

// Dialer hands out Conns and records them.
type Dialer struct {
	Dialect dialect.Dialect
	Handler Handler

	mu    sync.Mutex
	conns []*Conn
	errs  []error
	block chan struct{}
}

func NewDialer(d dialect.Dialect, h Handler) *Dialer {
	return &Dialer{Dialect: d, Handler: h}
}

// FailNext queues errors returned by the next dials, one per dial. A nil
// entry lets that dial succeed.
func (d *Dialer) FailNext(errs ...error) {
	d.mu.Lock()
	d.errs = append(d.errs, errs...)
	d.mu.Unlock()
}

// Block makes dials wait until the returned function is called or their
// context ends.
func (d *Dialer) Block() (release func()) {
	ch := make(chan struct{})
	d.mu.Lock()
	d.block = ch
	d.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (d *Dialer) Dial(ctx context.Context) (database.Conn, error) {
	d.mu.Lock()
	block := d.block
	d.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	c := NewConn(len(d.conns)+1, d.Dialect, d.Handler)
	d.conns = append(d.conns, c)
	return c, nil
}

// Conns returns every connection dialed so far.
func (d *Dialer) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Conn(nil), d.conns...)
}

// Open counts dialed connections that are not closed.
func (d *Dialer) Open() int {
	n := 0
	for _, c := range d.Conns() {
		if !c.IsClosed() {
			n++
		}
	}
	return n
}
