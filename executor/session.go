package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/pool"
	"github.com/Konsultn-Engineering/postmodel/visitor"
)

const rollbackTimeout = 5 * time.Second

// Session holds one leased connection across several calls. It is not safe
// for concurrent use. After a transport failure or a cancelled statement the
// session is broken: later calls fail and Release discards the connection.
type Session struct {
	e    *Executor
	conn *pool.Conn
	log  logrus.FieldLogger

	inTx     bool
	broken   error
	released bool
}

// Conn returns the pooled connection the session holds.
func (s *Session) Conn() *pool.Conn { return s.conn }

// InTx reports whether a transaction is open on the session.
func (s *Session) InTx() bool { return s.inTx }

// Release returns the connection to the pool, or discards it when the
// session is broken or a transaction is still open.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.broken != nil || s.inTx {
		s.conn.Discard()
		return
	}
	s.conn.Release()
}

func (s *Session) usable() error {
	if s.released {
		return fmt.Errorf("%w: session already released", errs.ErrConnectionLost)
	}
	if s.broken != nil {
		return fmt.Errorf("%w: session broken: %w", errs.ErrConnectionLost, s.broken)
	}
	return nil
}

// fail marks the session broken when err leaves the connection unusable.
func (s *Session) fail(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errs.ErrConnectionLost) || database.IsCanceled(err) {
		s.broken = err
	}
	return err
}

func (s *Session) Execute(ctx context.Context, q *visitor.RenderedQuery) (*ResultSet, error) {
	if err := s.e.check(q); err != nil {
		return nil, err
	}
	return s.query(ctx, q, -1)
}

func (s *Session) Exec(ctx context.Context, q *visitor.RenderedQuery) (int64, error) {
	if err := s.e.check(q); err != nil {
		return 0, err
	}
	res, err := s.exec(ctx, q)
	return res.RowsAffected, err
}

// Insert returns the first row q produces, or nil when there is none.
func (s *Session) Insert(ctx context.Context, q *visitor.RenderedQuery) (*Row, error) {
	if err := s.e.check(q); err != nil {
		return nil, err
	}
	rs, err := s.query(ctx, q, 1)
	if err != nil || len(rs.Rows) == 0 {
		return nil, err
	}
	return &rs.Rows[0], nil
}

// ExecuteMany runs the SQL of q once per parameter row. Outside a
// transaction the batch runs in one of its own.
func (s *Session) ExecuteMany(ctx context.Context, q *visitor.RenderedQuery, rows [][]any) (int64, error) {
	stmts := make([]*visitor.RenderedQuery, len(rows))
	for i, row := range rows {
		stmts[i] = visitor.Raw(q.Dialect, q.SQL, row...)
		if err := s.e.check(stmts[i]); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}

	var total int64
	run := func() error {
		for i, stmt := range stmts {
			res, err := s.exec(ctx, stmt)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			total += res.RowsAffected
		}
		return nil
	}
	if s.inTx {
		return total, run()
	}
	if err := s.transact(ctx, run); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Session) ExecuteScript(ctx context.Context, sql string) error {
	if err := s.usable(); err != nil {
		return err
	}
	ctx, cancel := s.e.statementContext(ctx)
	defer cancel()
	start := time.Now()
	err := s.fail(s.conn.Raw().ExecScript(ctx, sql))
	s.trace(sql, start, 0, err)
	return err
}

// InTransaction runs fn between BEGIN and COMMIT, rolling back when fn
// returns an error or panics.
func (s *Session) InTransaction(ctx context.Context, fn func(ctx context.Context, tx *Session) error) error {
	if s.inTx || sessionFrom(ctx, s.e) != nil {
		return fmt.Errorf("%w: transaction already in progress", errs.ErrTransactionManagement)
	}
	txCtx := context.WithValue(ctx, txKey{s.e}, s)
	return s.transact(ctx, func() error { return fn(txCtx, s) })
}

func (s *Session) transact(ctx context.Context, fn func() error) (err error) {
	if err := s.usable(); err != nil {
		return err
	}
	if _, err := s.raw(ctx, "BEGIN"); err != nil {
		return err
	}
	s.inTx = true

	defer func() {
		if r := recover(); r != nil {
			s.rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(); err != nil {
		if rbErr := s.rollback(ctx); rbErr != nil {
			s.log.WithError(rbErr).Warn("Rollback failed")
		}
		return err
	}
	if _, err := s.raw(ctx, "COMMIT"); err != nil {
		// A failed COMMIT leaves the server in an aborted transaction.
		s.rollback(ctx)
		return err
	}
	s.inTx = false
	return nil
}

// rollback ends the transaction even when ctx is already done. The session
// is broken if the server cannot be told.
func (s *Session) rollback(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if s.broken != nil {
		return s.broken
	}
	_, err := s.conn.Raw().Exec(ctx, "ROLLBACK", nil)
	if err != nil {
		s.broken = err
		return err
	}
	s.inTx = false
	return nil
}

func (s *Session) raw(ctx context.Context, sql string) (database.Result, error) {
	return s.exec(ctx, &visitor.RenderedQuery{SQL: sql, Dialect: s.e.dialect})
}

func (s *Session) exec(ctx context.Context, q *visitor.RenderedQuery) (database.Result, error) {
	if err := s.usable(); err != nil {
		return database.Result{}, err
	}
	ctx, cancel := s.e.statementContext(ctx)
	defer cancel()
	start := time.Now()
	res, err := s.conn.Raw().Exec(ctx, q.SQL, q.Values())
	err = s.fail(err)
	s.trace(q.SQL, start, res.RowsAffected, err)
	return res, err
}

// query reads up to limit rows, or all of them when limit is negative. Rows
// beyond the limit are drained so the connection stays usable.
func (s *Session) query(ctx context.Context, q *visitor.RenderedQuery, limit int) (*ResultSet, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	ctx, cancel := s.e.statementContext(ctx)
	defer cancel()
	start := time.Now()

	rows, err := s.conn.Raw().Query(ctx, q.SQL, q.Values())
	if err != nil {
		err = s.fail(err)
		s.trace(q.SQL, start, 0, err)
		return nil, err
	}

	rs := &ResultSet{}
	var (
		index     *columnIndex
		decodeErr error
	)
	fields := rows.Fields()
	for rows.Next() {
		if decodeErr != nil || (limit >= 0 && len(rs.Rows) >= limit) {
			continue
		}
		fields = rows.Fields()
		if index == nil {
			index = newColumnIndex(fields)
		}
		row := Row{index: index, values: make([]ast.Value, len(fields))}
		for i, raw := range rows.RawValues() {
			v, err := s.e.decoders.Decode(fields[i].TypeCode, fields[i].Format, raw)
			if err != nil {
				decodeErr = fmt.Errorf("column %q: %w", fields[i].Name, err)
				break
			}
			row.values[i] = v
		}
		rs.Rows = append(rs.Rows, row)
	}
	res, err := rows.Close()
	if err = s.fail(err); err == nil {
		err = decodeErr
	}
	s.trace(q.SQL, start, int64(len(rs.Rows)), err)
	if err != nil {
		return nil, err
	}

	rs.Columns = make([]Column, len(fields))
	for i, f := range fields {
		rs.Columns[i] = Column{Name: f.Name, TypeCode: f.TypeCode}
	}
	rs.Tag = res.Tag
	rs.RowsAffected = res.RowsAffected
	return rs, nil
}

// trace logs statement text and timing. Parameter values are never logged.
func (s *Session) trace(sql string, start time.Time, rows int64, err error) {
	entry := s.log.WithFields(logrus.Fields{
		"sql":      sql,
		"duration": time.Since(start),
		"rows":     rows,
	})
	if err != nil {
		entry.WithError(err).Debug("Query failed")
		return
	}
	entry.Debug("Query executed")
}
