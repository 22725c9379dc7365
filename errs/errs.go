// Package errs holds the error kinds shared by every layer of postmodel.
// Callers match them with errors.Is; producers wrap them with context.
package errs

import "errors"

var (
	// ErrInvalidQueryShape is returned when a query AST cannot form a valid statement.
	ErrInvalidQueryShape = errors.New("invalid query shape")
	// ErrUnsupportedConstruct is returned when the target dialect cannot express a node.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrPoolExhausted is returned when an acquire times out while the pool is at capacity.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrPoolClosed is returned by acquisitions on a closed pool.
	ErrPoolClosed = errors.New("connection pool closed")
	// ErrConnectionUnhealthy is returned when a health check failed and no replacement could be opened.
	ErrConnectionUnhealthy = errors.New("connection unhealthy")
	// ErrConnectionLost wraps transport failures during a query.
	ErrConnectionLost = errors.New("connection lost")
	// ErrParameterCountMismatch is returned when placeholders and bound parameters disagree.
	ErrParameterCountMismatch = errors.New("parameter count mismatch")
	// ErrUnsupportedColumnType is returned when no decoder is registered for a column type.
	ErrUnsupportedColumnType = errors.New("unsupported column type")

	ErrConfiguration         = errors.New("configuration error")
	ErrOperational           = errors.New("operational error")
	ErrIntegrity             = errors.New("integrity error")
	ErrTransactionManagement = errors.New("transaction management error")
	// ErrNoRows is returned when a lookup of exactly one row matched none.
	ErrNoRows = errors.New("no rows in result set")
)
