package dialect

import "github.com/Konsultn-Engineering/postmodel/ast"

// TiDB speaks the MySQL dialect and adds vector columns.
type TiDB struct {
	*MySQL
}

func NewTiDBDialect() Dialect {
	return &TiDB{
		MySQL: NewMySQLDialect().(*MySQL),
	}
}

func (t *TiDB) Name() string { return "tidb" }

func (t *TiDB) Supports(f Feature) bool {
	if f == FeatureVector {
		return true
	}
	return t.MySQL.Supports(f)
}

func (t *TiDB) ColumnType(def *ast.ColumnDef) (string, error) {
	return t.columnType(t, def)
}
