// Package executor runs rendered queries on pooled connections and decodes
// their results.
//
// Every call leases a connection for its own duration, unless ctx carries a
// transaction started by InTransaction on the same Executor, in which case
// the call joins it. A connection whose transport failed, or whose query the
// caller cancelled, is discarded rather than returned to the pool. Statements
// are never retried.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/codec"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/pool"
	"github.com/Konsultn-Engineering/postmodel/utils"
	"github.com/Konsultn-Engineering/postmodel/visitor"
)

type Executor struct {
	pool         *pool.Pool
	dialect      dialect.Dialect
	decoders     *codec.Registry
	log          logrus.FieldLogger
	queryTimeout time.Duration
}

// New returns an Executor leasing from p. d is the dialect of p's
// connections; queries rendered for another dialect are rejected.
func New(p *pool.Pool, d dialect.Dialect, opts ...Option) *Executor {
	e := &Executor{
		pool:     p,
		dialect:  d,
		log:      utils.DiscardLogger(),
		decoders: codec.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Dialect() dialect.Dialect { return e.dialect }

func (e *Executor) Decoders() *codec.Registry { return e.decoders }

// Execute runs q and returns its decoded rows.
func (e *Executor) Execute(ctx context.Context, q *visitor.RenderedQuery) (*ResultSet, error) {
	if err := e.check(q); err != nil {
		return nil, err
	}
	var rs *ResultSet
	err := e.withSession(ctx, func(s *Session) (err error) {
		rs, err = s.Execute(ctx, q)
		return err
	})
	return rs, err
}

// Exec runs q without reading rows and returns the number of rows affected.
func (e *Executor) Exec(ctx context.Context, q *visitor.RenderedQuery) (int64, error) {
	if err := e.check(q); err != nil {
		return 0, err
	}
	var n int64
	err := e.withSession(ctx, func(s *Session) (err error) {
		n, err = s.Exec(ctx, q)
		return err
	})
	return n, err
}

// Insert runs q and returns its first row, typically produced by RETURNING.
// The row is nil when the statement returns none.
func (e *Executor) Insert(ctx context.Context, q *visitor.RenderedQuery) (*Row, error) {
	if err := e.check(q); err != nil {
		return nil, err
	}
	var row *Row
	err := e.withSession(ctx, func(s *Session) (err error) {
		row, err = s.Insert(ctx, q)
		return err
	})
	return row, err
}

// ExecuteMany runs the SQL of q once per parameter row, inside one
// transaction. The parameters bound in q itself are ignored.
func (e *Executor) ExecuteMany(ctx context.Context, q *visitor.RenderedQuery, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var n int64
	err := e.withSession(ctx, func(s *Session) (err error) {
		n, err = s.ExecuteMany(ctx, q, rows)
		return err
	})
	return n, err
}

// ExecuteScript runs one or more raw statements without parameters.
func (e *Executor) ExecuteScript(ctx context.Context, sql string) error {
	return e.withSession(ctx, func(s *Session) error {
		return s.ExecuteScript(ctx, sql)
	})
}

// Acquire leases a connection for several calls. The session must be
// released.
func (e *Executor) Acquire(ctx context.Context) (*Session, error) {
	c, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{e: e, conn: c, log: e.log.WithField("conn_id", c.ID())}, nil
}

// InTransaction runs fn inside BEGIN/COMMIT on one connection. An error or
// panic from fn rolls back. Calls made with the context passed to fn join
// the transaction; starting another transaction from it fails with
// errs.ErrTransactionManagement.
func (e *Executor) InTransaction(ctx context.Context, fn func(ctx context.Context, tx *Session) error) error {
	if sessionFrom(ctx, e) != nil {
		return fmt.Errorf("%w: transaction already in progress", errs.ErrTransactionManagement)
	}
	s, err := e.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return s.InTransaction(ctx, fn)
}

// Do runs fn on one connection: the transaction's when ctx carries one,
// otherwise a connection leased for the duration of fn.
func (e *Executor) Do(ctx context.Context, fn func(s *Session) error) error {
	return e.withSession(ctx, fn)
}

func (e *Executor) withSession(ctx context.Context, fn func(*Session) error) error {
	if s := sessionFrom(ctx, e); s != nil {
		return fn(s)
	}
	s, err := e.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return fn(s)
}

func (e *Executor) check(q *visitor.RenderedQuery) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if q.Dialect.Name() != e.dialect.Name() {
		return fmt.Errorf("%w: query rendered for %s, connections speak %s", errs.ErrConfiguration, q.Dialect.Name(), e.dialect.Name())
	}
	return nil
}

func (e *Executor) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout > 0 {
		return context.WithTimeout(ctx, e.queryTimeout)
	}
	return ctx, func() {}
}

// InTx reports whether ctx carries a transaction of this executor.
func (e *Executor) InTx(ctx context.Context) bool { return sessionFrom(ctx, e) != nil }

type txKey struct{ e *Executor }

func sessionFrom(ctx context.Context, e *Executor) *Session {
	s, _ := ctx.Value(txKey{e}).(*Session)
	return s
}
