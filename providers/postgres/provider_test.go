package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  connector.Config
		want string
	}{
		{
			name: "defaults",
			cfg:  connector.Config{Host: "db", Port: 5432, Database: "app"},
			want: "postgres://db:5432/app?connect_timeout=10&sslmode=prefer",
		},
		{
			name: "explicit",
			cfg: connector.Config{
				Host: "db", Port: 6432, Database: "app", Username: "svc", Password: "p@ss",
				SSLMode: "require", ConnectTimeout: 3 * time.Second,
				Params: map[string]string{"application_name": "api"},
			},
			want: "postgres://svc:p%40ss@db:6432/app?application_name=api&connect_timeout=3&sslmode=require",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DSN(tt.cfg))
		})
	}
}

func TestDatabaseSQL(t *testing.T) {
	cfg := connector.Config{Database: "my app", Username: "owner"}
	assert.Equal(t, `CREATE DATABASE "my app" OWNER "owner"`, CreateDatabaseSQL(cfg))
	assert.Equal(t, `DROP DATABASE "my app"`, DropDatabaseSQL(cfg))

	cfg.Username = ""
	assert.Equal(t, `CREATE DATABASE "my app"`, CreateDatabaseSQL(cfg))
}

func TestAdminRequiresDatabase(t *testing.T) {
	err := New().CreateDatabase(context.Background(), connector.Config{Host: "db", Port: 5432})
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}
