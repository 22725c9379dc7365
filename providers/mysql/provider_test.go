package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

func TestDriverConfig(t *testing.T) {
	mc := DriverConfig(connector.Config{
		Host: "db", Port: 3306, Database: "shop", Username: "svc", Password: "pw",
		SSLMode: "require", ConnectTimeout: 4 * time.Second,
		Params: map[string]string{"charset": "utf8mb4"},
	})
	assert.Equal(t, "svc", mc.User)
	assert.Equal(t, "pw", mc.Passwd)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "db:3306", mc.Addr)
	assert.Equal(t, "shop", mc.DBName)
	assert.Equal(t, 4*time.Second, mc.Timeout)
	assert.True(t, mc.ParseTime)
	assert.True(t, mc.MultiStatements)
	assert.True(t, mc.ClientFoundRows, "unchanged rows still count as affected")
	assert.Equal(t, "true", mc.TLSConfig)
	assert.Equal(t, map[string]string{"charset": "utf8mb4"}, mc.Params)

	tests := []struct {
		sslMode string
		want    string
	}{
		{"", ""},
		{"disable", ""},
		{"prefer", "preferred"},
		{"verify-full", "true"},
	}
	for _, tt := range tests {
		mc := DriverConfig(connector.Config{Host: "db", Port: 3306, SSLMode: tt.sslMode})
		assert.Equal(t, tt.want, mc.TLSConfig, "sslmode %q", tt.sslMode)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, errs.ErrIntegrity},
		{"foreign key", &mysql.MySQLError{Number: 1452}, errs.ErrIntegrity},
		{"unknown table", &mysql.MySQLError{Number: 1146}, errs.ErrOperational},
		{"invalid connection", mysql.ErrInvalidConn, errs.ErrConnectionLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.want)
		})
	}
	assert.Nil(t, Classify(errors.New("i/o timeout")))
}

func TestAdminRequiresDatabase(t *testing.T) {
	cfg := connector.Config{Scheme: "mysql", Host: "db", Port: 3306}
	assert.ErrorIs(t, New().CreateDatabase(context.Background(), cfg), errs.ErrConfiguration)
	assert.ErrorIs(t, NewTiDB().DropDatabase(context.Background(), cfg), errs.ErrConfiguration)
}

func TestDialects(t *testing.T) {
	assert.Equal(t, "mysql", New().Dialect().Name())
	assert.Equal(t, "tidb", NewTiDB().Dialect().Name())
}
