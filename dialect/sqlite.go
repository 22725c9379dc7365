package dialect

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

// Declared types follow SQLite affinity rules and are what the row decoder
// sees through database/sql. JSON is stored as TEXT: a declared JSON type
// would get NUMERIC affinity.
var sqliteTypes = typeMap{
	values: map[ast.ValueType]string{
		ast.ValueBool:   "BOOLEAN",
		ast.ValueInt:    "INTEGER",
		ast.ValueFloat:  "REAL",
		ast.ValueString: "TEXT",
		ast.ValueBytes:  "BLOB",
		ast.ValueTime:   "TIMESTAMP",
	},
	json: "TEXT",
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) QuoteIdentifier(name string) string {
	return quote(name, '"')
}

func (s *SQLite) IdentifierQuote() byte { return '"' }

func (s *SQLite) Placeholder(int) string {
	return "?"
}

func (s *SQLite) PlaceholderStyle() PlaceholderStyle { return PlaceholderQuestion }

func (s *SQLite) Supports(f Feature) bool {
	switch f {
	case FeatureILike, FeatureForUpdate, FeatureDuplicateKeyUpdate, FeatureVector,
		FeatureArrayTypes, FeatureOffsetWithoutLimit, FeatureBackslashEscapes:
		return false
	}
	return true
}

func (s *SQLite) ColumnType(def *ast.ColumnDef) (string, error) {
	// AUTOINCREMENT is only legal on INTEGER PRIMARY KEY.
	if def.AutoIncrement && def.Type != nil && def.Type.Name == "" && def.Type.Value == ast.ValueInt {
		return "INTEGER", nil
	}
	return sqliteTypes.resolve(s, def)
}

func (s *SQLite) AutoIncrementSuffix() string { return "AUTOINCREMENT" }

func (s *SQLite) TextCastType() string { return "TEXT" }
