package connector

import (
	"context"

	"github.com/Konsultn-Engineering/postmodel/database"
	"github.com/Konsultn-Engineering/postmodel/dialect"
)

// Provider opens sessions for one kind of database.
type Provider interface {
	// Dial opens a single session. It does not retry.
	Dial(ctx context.Context, config Config) (database.Conn, error)
	Dialect() dialect.Dialect
}

// DatabaseAdmin is implemented by providers that can create and drop
// databases through a maintenance session.
type DatabaseAdmin interface {
	CreateDatabase(ctx context.Context, config Config) error
	DropDatabase(ctx context.Context, config Config) error
}
