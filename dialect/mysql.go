package dialect

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

var mysqlTypes = typeMap{
	values: map[ast.ValueType]string{
		ast.ValueBool:   "BOOLEAN",
		ast.ValueInt:    "BIGINT",
		ast.ValueFloat:  "DOUBLE",
		ast.ValueString: "TEXT",
		ast.ValueBytes:  "LONGBLOB",
		ast.ValueTime:   "DATETIME(6)",
	},
	json: "JSON",
}

func (m *MySQL) Name() string { return "mysql" }

func (m *MySQL) QuoteIdentifier(name string) string {
	return quote(name, '`')
}

func (m *MySQL) IdentifierQuote() byte { return '`' }

func (m *MySQL) Placeholder(int) string {
	return "?"
}

func (m *MySQL) PlaceholderStyle() PlaceholderStyle { return PlaceholderQuestion }

func (m *MySQL) Supports(f Feature) bool {
	switch f {
	case FeatureILike, FeatureReturning, FeatureFullJoin, FeatureOnConflict, FeatureVector,
		FeatureArrayTypes, FeatureOffsetWithoutLimit:
		return false
	}
	return true
}

func (m *MySQL) ColumnType(def *ast.ColumnDef) (string, error) {
	return m.columnType(m, def)
}

// columnType resolves against d so embedding dialects keep their own feature set.
func (m *MySQL) columnType(d Dialect, def *ast.ColumnDef) (string, error) {
	dt := def.Type
	// TEXT cannot be indexed without a prefix length.
	if dt != nil && dt.Kind == ast.TypeBasic && dt.Name == "" && dt.Value == ast.ValueString && dt.Size == 0 && (def.PrimaryKey || def.Unique) {
		return "VARCHAR(255)", nil
	}
	return mysqlTypes.resolve(d, def)
}

func (m *MySQL) AutoIncrementSuffix() string { return "AUTO_INCREMENT" }

func (m *MySQL) TextCastType() string { return "CHAR" }
