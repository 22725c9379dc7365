package query

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

type DeleteBuilder struct {
	stmt ast.DeleteStmt
	err  error
}

func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{stmt: ast.DeleteStmt{Table: Table(table)}}
}

func (db *DeleteBuilder) clone() *DeleteBuilder {
	cp := *db
	return &cp
}

func (db *DeleteBuilder) Where(conds ...ast.Node) *DeleteBuilder {
	nb := db.clone()
	nb.stmt.Where = andWhere(db.stmt.Where, conds)
	return nb
}

func (db *DeleteBuilder) OrWhere(conds ...ast.Node) *DeleteBuilder {
	nb := db.clone()
	nb.stmt.Where = orWhere(db.stmt.Where, conds)
	return nb
}

func (db *DeleteBuilder) Filter(kv map[string]any) *DeleteBuilder {
	cond, err := Filter(kv)
	if err != nil {
		nb := db.clone()
		nb.err = err
		return nb
	}
	return db.Where(cond)
}

func (db *DeleteBuilder) Returning(columns ...string) *DeleteBuilder {
	nb := db.clone()
	nb.stmt.Returning = appendCopy(db.stmt.Returning, columnNodes(columns)...)
	return nb
}

func (db *DeleteBuilder) Stmt() *ast.DeleteStmt {
	stmt := db.stmt
	return &stmt
}

func (db *DeleteBuilder) Build() (ast.Node, error) {
	if db.err != nil {
		return nil, db.err
	}
	return db.Stmt(), nil
}
