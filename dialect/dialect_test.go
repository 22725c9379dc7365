package dialect

import (
	"testing"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{NewPostgresDialect(), "users", `"users"`},
		{NewPostgresDialect(), `we"ird`, `"we""ird"`},
		{NewMySQLDialect(), "users", "`users`"},
		{NewMySQLDialect(), "a`b", "`a``b`"},
		{NewSQLiteDialect(), `x"y`, `"x""y"`},
		{NewTiDBDialect(), "t", "`t`"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name()+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.QuoteIdentifier(tt.in))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", NewPostgresDialect().Placeholder(3))
	assert.Equal(t, "?", NewMySQLDialect().Placeholder(3))
	assert.Equal(t, "?", NewSQLiteDialect().Placeholder(1))
	assert.Equal(t, PlaceholderDollar, NewPostgresDialect().PlaceholderStyle())
	assert.Equal(t, PlaceholderQuestion, NewTiDBDialect().PlaceholderStyle())
}

func TestSupports(t *testing.T) {
	pg, my, ti, lite := NewPostgresDialect(), NewMySQLDialect(), NewTiDBDialect(), NewSQLiteDialect()

	assert.True(t, pg.Supports(FeatureILike))
	assert.False(t, my.Supports(FeatureILike))
	assert.False(t, lite.Supports(FeatureILike))

	assert.True(t, pg.Supports(FeatureReturning))
	assert.False(t, my.Supports(FeatureReturning))
	assert.True(t, lite.Supports(FeatureReturning))

	assert.False(t, my.Supports(FeatureVector))
	assert.True(t, ti.Supports(FeatureVector))
	assert.False(t, ti.Supports(FeatureFullJoin))

	assert.False(t, lite.Supports(FeatureForUpdate))
	assert.True(t, my.Supports(FeatureDuplicateKeyUpdate))
	assert.False(t, pg.Supports(FeatureDuplicateKeyUpdate))
}

func TestColumnType(t *testing.T) {
	intCol := &ast.ColumnDef{Name: "id", Type: &ast.DataType{Value: ast.ValueInt}, AutoIncrement: true, PrimaryKey: true}
	strKey := &ast.ColumnDef{Name: "code", Type: &ast.DataType{Value: ast.ValueString}, Unique: true}
	sized := &ast.ColumnDef{Name: "name", Type: &ast.DataType{Value: ast.ValueString, Size: 64}}
	decimal := &ast.ColumnDef{Name: "price", Type: &ast.DataType{Name: "DECIMAL", Precision: 10, Scale: 2}}
	vec := &ast.ColumnDef{Name: "embedding", Type: &ast.DataType{Kind: ast.TypeVector, Dimension: 3}}
	blob := &ast.ColumnDef{Name: "data", Type: &ast.DataType{Value: ast.ValueBytes}}
	doc := &ast.ColumnDef{Name: "attrs", Type: &ast.DataType{Kind: ast.TypeJSON, Value: ast.ValueString}, Unique: true}
	namedDoc := &ast.ColumnDef{Name: "attrs", Type: &ast.DataType{Kind: ast.TypeJSON, Name: "JSON", Value: ast.ValueString}}

	tests := []struct {
		name    string
		dialect Dialect
		def     *ast.ColumnDef
		want    string
		wantErr error
	}{
		{"pg serial", NewPostgresDialect(), intCol, "BIGSERIAL", nil},
		{"sqlite serial", NewSQLiteDialect(), intCol, "INTEGER", nil},
		{"mysql serial", NewMySQLDialect(), intCol, "BIGINT", nil},
		{"mysql keyed text", NewMySQLDialect(), strKey, "VARCHAR(255)", nil},
		{"pg keyed text", NewPostgresDialect(), strKey, "TEXT", nil},
		{"sized", NewPostgresDialect(), sized, "VARCHAR(64)", nil},
		{"decimal", NewMySQLDialect(), decimal, "DECIMAL(10, 2)", nil},
		{"pg bytes", NewPostgresDialect(), blob, "BYTEA", nil},
		{"sqlite bytes", NewSQLiteDialect(), blob, "BLOB", nil},
		{"pg json", NewPostgresDialect(), doc, "JSONB", nil},
		{"pg named json", NewPostgresDialect(), namedDoc, "JSON", nil},
		{"mysql json", NewMySQLDialect(), doc, "JSON", nil},
		{"tidb json", NewTiDBDialect(), doc, "JSON", nil},
		{"sqlite json", NewSQLiteDialect(), doc, "TEXT", nil},
		{"tidb vector", NewTiDBDialect(), vec, "VECTOR(3)", nil},
		{"mysql vector", NewMySQLDialect(), vec, "", errs.ErrUnsupportedConstruct},
		{"missing type", NewPostgresDialect(), &ast.ColumnDef{Name: "x"}, "", errs.ErrInvalidQueryShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dialect.ColumnType(tt.def)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByName(t *testing.T) {
	d, ok := ByName("postgresql")
	require.True(t, ok)
	assert.Equal(t, "postgres", d.Name())

	_, ok = ByName("oracle")
	assert.False(t, ok)
}
