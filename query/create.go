package query

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

type CreateTableBuilder struct {
	stmt ast.CreateTableStmt
}

func CreateTable(table string) *CreateTableBuilder {
	return &CreateTableBuilder{stmt: ast.CreateTableStmt{Table: Table(table)}}
}

func (cb *CreateTableBuilder) IfNotExists() *CreateTableBuilder {
	cp := *cb
	cp.stmt.IfNotExists = true
	return &cp
}

// ColumnOption adjusts a column definition.
type ColumnOption func(*ast.ColumnDef)

func PrimaryKey() ColumnOption {
	return func(d *ast.ColumnDef) {
		d.PrimaryKey = true
		d.NotNull = true
	}
}

func AutoIncrement() ColumnOption { return func(d *ast.ColumnDef) { d.AutoIncrement = true } }
func NotNull() ColumnOption       { return func(d *ast.ColumnDef) { d.NotNull = true } }
func Unique() ColumnOption        { return func(d *ast.ColumnDef) { d.Unique = true } }
func Size(n int) ColumnOption     { return func(d *ast.ColumnDef) { d.Type.Size = n } }

// TypeName overrides the dialect's choice with a native type name.
func TypeName(name string) ColumnOption {
	return func(d *ast.ColumnDef) { d.Type.Name = name }
}

func References(table string, columns ...string) ColumnOption {
	return func(d *ast.ColumnDef) {
		d.References = &ast.ForeignKeyRef{Table: table, Columns: columns}
	}
}

// Column adds a column whose native type the dialect derives from t.
func (cb *CreateTableBuilder) Column(name string, t ast.ValueType, opts ...ColumnOption) *CreateTableBuilder {
	def := &ast.ColumnDef{Name: name, Type: &ast.DataType{Value: t}}
	for _, o := range opts {
		o(def)
	}
	return cb.ColumnDef(def)
}

// ColumnDef adds a fully specified column.
func (cb *CreateTableBuilder) ColumnDef(def *ast.ColumnDef) *CreateTableBuilder {
	cp := *cb
	cp.stmt.Columns = appendCopy(cb.stmt.Columns, def)
	return &cp
}

func (cb *CreateTableBuilder) Stmt() *ast.CreateTableStmt {
	stmt := cb.stmt
	return &stmt
}

func (cb *CreateTableBuilder) Build() (ast.Node, error) {
	return cb.Stmt(), nil
}
