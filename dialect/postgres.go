package dialect

import (
	"strconv"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

var postgresTypes = typeMap{
	values: map[ast.ValueType]string{
		ast.ValueBool:   "BOOLEAN",
		ast.ValueInt:    "BIGINT",
		ast.ValueFloat:  "DOUBLE PRECISION",
		ast.ValueString: "TEXT",
		ast.ValueBytes:  "BYTEA",
		ast.ValueTime:   "TIMESTAMPTZ",
	},
	json: "JSONB",
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) QuoteIdentifier(name string) string {
	return quote(name, '"')
}

func (p *Postgres) IdentifierQuote() byte { return '"' }

func (p *Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p *Postgres) PlaceholderStyle() PlaceholderStyle { return PlaceholderDollar }

func (p *Postgres) Supports(f Feature) bool {
	return f != FeatureDuplicateKeyUpdate && f != FeatureBackslashEscapes
}

func (p *Postgres) ColumnType(def *ast.ColumnDef) (string, error) {
	if def.AutoIncrement && def.Type != nil && def.Type.Name == "" && def.Type.Value == ast.ValueInt {
		return "BIGSERIAL", nil
	}
	return postgresTypes.resolve(p, def)
}

func (p *Postgres) AutoIncrementSuffix() string { return "" }

func (p *Postgres) TextCastType() string { return "VARCHAR" }
