package query

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

type UpdateBuilder struct {
	stmt ast.UpdateStmt
	err  error
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{stmt: ast.UpdateStmt{Table: Table(table)}}
}

func (ub *UpdateBuilder) clone() *UpdateBuilder {
	cp := *ub
	return &cp
}

// Set assigns a value or expression to a column. Assignments render in call order.
func (ub *UpdateBuilder) Set(col string, v any) *UpdateBuilder {
	nb := ub.clone()
	nb.stmt.Set = appendCopy(ub.stmt.Set, ast.Assignment{Column: col, Value: operand(v)})
	return nb
}

func (ub *UpdateBuilder) Where(conds ...ast.Node) *UpdateBuilder {
	nb := ub.clone()
	nb.stmt.Where = andWhere(ub.stmt.Where, conds)
	return nb
}

func (ub *UpdateBuilder) OrWhere(conds ...ast.Node) *UpdateBuilder {
	nb := ub.clone()
	nb.stmt.Where = orWhere(ub.stmt.Where, conds)
	return nb
}

func (ub *UpdateBuilder) Filter(kv map[string]any) *UpdateBuilder {
	cond, err := Filter(kv)
	if err != nil {
		nb := ub.clone()
		nb.err = err
		return nb
	}
	return ub.Where(cond)
}

func (ub *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	nb := ub.clone()
	nb.stmt.Returning = appendCopy(ub.stmt.Returning, columnNodes(columns)...)
	return nb
}

func (ub *UpdateBuilder) Stmt() *ast.UpdateStmt {
	stmt := ub.stmt
	return &stmt
}

func (ub *UpdateBuilder) Build() (ast.Node, error) {
	if ub.err != nil {
		return nil, ub.err
	}
	return ub.Stmt(), nil
}
