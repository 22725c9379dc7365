package query

import (
	"sort"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

type InsertBuilder struct {
	stmt ast.InsertStmt
}

func Insert(table string) *InsertBuilder {
	return &InsertBuilder{stmt: ast.InsertStmt{Table: Table(table)}}
}

func (ib *InsertBuilder) clone() *InsertBuilder {
	cp := *ib
	return &cp
}

func (ib *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	nb := ib.clone()
	nb.stmt.Columns = appendCopy(ib.stmt.Columns, columns...)
	return nb
}

// Values appends one row. Its width must match Columns when rendered.
func (ib *InsertBuilder) Values(values ...any) *InsertBuilder {
	row := make([]ast.Node, len(values))
	for i, v := range values {
		row[i] = operand(v)
	}
	nb := ib.clone()
	nb.stmt.Rows = appendCopy(ib.stmt.Rows, row)
	return nb
}

// Record appends one row from a column map. The first record fixes the
// column list in sorted order when none was given.
func (ib *InsertBuilder) Record(rec map[string]any) *InsertBuilder {
	nb := ib
	if len(ib.stmt.Columns) == 0 {
		cols := make([]string, 0, len(rec))
		for k := range rec {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		nb = ib.Columns(cols...)
	}
	values := make([]any, len(nb.stmt.Columns))
	for i, c := range nb.stmt.Columns {
		values[i] = rec[c]
	}
	return nb.Values(values...)
}

func (ib *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	nb := ib.clone()
	nb.stmt.Returning = appendCopy(ib.stmt.Returning, columnNodes(columns)...)
	return nb
}

// OnConflictDoNothing skips rows that collide on the given columns.
func (ib *InsertBuilder) OnConflictDoNothing(columns ...string) *InsertBuilder {
	nb := ib.clone()
	nb.stmt.OnConflict = &ast.OnConflict{Columns: appendCopy[string](nil, columns...), DoNothing: true}
	return nb
}

// OnConflictUpdate overwrites updateColumns from the proposed row when a row
// collides on conflictColumns.
func (ib *InsertBuilder) OnConflictUpdate(conflictColumns []string, updateColumns ...string) *InsertBuilder {
	nb := ib.clone()
	nb.stmt.OnConflict = &ast.OnConflict{
		Columns:       appendCopy[string](nil, conflictColumns...),
		UpdateColumns: appendCopy[string](nil, updateColumns...),
	}
	return nb
}

func (ib *InsertBuilder) Stmt() *ast.InsertStmt {
	stmt := ib.stmt
	return &stmt
}

func (ib *InsertBuilder) Build() (ast.Node, error) {
	return ib.Stmt(), nil
}
