// Package providers wires every built-in provider into a registry.
package providers

import (
	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/providers/mysql"
	"github.com/Konsultn-Engineering/postmodel/providers/postgres"
	"github.com/Konsultn-Engineering/postmodel/providers/pq"
	"github.com/Konsultn-Engineering/postmodel/providers/sqlite"
)

// Register adds the built-in providers to r under their scheme names.
func Register(r *connector.Registry) {
	r.Register("postgres", postgres.New())
	r.Register("pq", pq.New())
	r.Register("mysql", mysql.New())
	r.Register("tidb", mysql.NewTiDB())
	r.Register("sqlite", sqlite.New())
}

// Registry returns a new registry holding the built-in providers.
func Registry() *connector.Registry {
	r := connector.NewRegistry()
	Register(r)
	return r
}
