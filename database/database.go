// Package database defines the transport a pooled connection speaks: one
// server session that runs SQL with positional parameters and streams back
// raw column values.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// Field describes one result column. TypeCode is a Postgres OID; Format is
// the wire format of the column's values.
type Field struct {
	Name     string
	TypeCode uint32
	Format   int16
}

// Result summarizes a finished statement.
type Result struct {
	Tag          string
	RowsAffected int64
}

// Rows streams a result set. RawValues is valid until the next call to Next;
// a nil entry is SQL NULL. Close must always be called and reports any error
// that ended the stream.
type Rows interface {
	Fields() []Field
	Next() bool
	RawValues() [][]byte
	Close() (Result, error)
}

// Conn is a single server session. It is not safe for concurrent use.
type Conn interface {
	Query(ctx context.Context, sql string, args []ast.Value) (Rows, error)
	Exec(ctx context.Context, sql string, args []ast.Value) (Result, error)
	// ExecScript runs one or more statements without parameters.
	ExecScript(ctx context.Context, sql string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	IsClosed() bool
	Dialect() dialect.Dialect
}

// Classifier maps a driver error onto the error taxonomy, or returns nil when
// it does not recognize the error.
type Classifier func(error) error

// IsCanceled reports whether err came from the caller's context rather than
// from the server or the network.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func lost(err error) error {
	return fmt.Errorf("%w: %w", errs.ErrConnectionLost, err)
}

func operational(err error) error {
	return fmt.Errorf("%w: %w", errs.ErrOperational, err)
}

// Integrity marks err as a constraint violation.
func Integrity(err error) error {
	return fmt.Errorf("%w: %w", errs.ErrIntegrity, err)
}

// Operational marks err as a server-side failure that leaves the session usable.
func Operational(err error) error { return operational(err) }

// Lost marks err as fatal to the session.
func Lost(err error) error { return lost(err) }

func isLost(err error) bool { return errors.Is(err, errs.ErrConnectionLost) }

// drain reads rows to the end and closes them.
func drain(rows Rows) (Result, error) {
	for rows.Next() {
	}
	return rows.Close()
}
