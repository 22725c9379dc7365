package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/postmodel/connector"
)

func TestRegistry(t *testing.T) {
	r := Registry()
	assert.Equal(t, []string{"mysql", "postgres", "pq", "sqlite", "tidb"}, r.Names())

	tests := []struct {
		scheme  string
		dialect string
	}{
		{"postgres", "postgres"},
		{"pq", "postgres"},
		{"mysql", "mysql"},
		{"tidb", "tidb"},
		{"sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			p, err := r.Provider(tt.scheme)
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, p.Dialect().Name())
			_, ok := p.(connector.DatabaseAdmin)
			assert.True(t, ok, "provider can create databases")
		})
	}
}
