package query

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

type SelectBuilder struct {
	stmt ast.SelectStmt
	err  error
}

// Select starts a SELECT over the given column references. With no columns it
// selects *.
func Select(columns ...string) *SelectBuilder {
	if len(columns) == 0 {
		columns = []string{ast.Star}
	}
	return &SelectBuilder{stmt: ast.SelectStmt{Columns: columnNodes(columns)}}
}

// SelectExpr starts a SELECT over arbitrary expressions.
func SelectExpr(exprs ...ast.Node) *SelectBuilder {
	return &SelectBuilder{stmt: ast.SelectStmt{Columns: appendCopy[ast.Node](nil, exprs...)}}
}

func (sb *SelectBuilder) clone() *SelectBuilder {
	cp := *sb
	return &cp
}

func (sb *SelectBuilder) From(table string) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.From = Table(table)
	return nb
}

// Columns appends column references to the projection.
func (sb *SelectBuilder) Columns(columns ...string) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Columns = appendCopy(sb.stmt.Columns, columnNodes(columns)...)
	return nb
}

// ColumnExpr appends expressions, such as aggregates, to the projection.
func (sb *SelectBuilder) ColumnExpr(exprs ...ast.Node) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Columns = appendCopy(sb.stmt.Columns, exprs...)
	return nb
}

func (sb *SelectBuilder) Distinct() *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Distinct = true
	return nb
}

// Where ANDs conditions onto the WHERE clause.
func (sb *SelectBuilder) Where(conds ...ast.Node) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Where = andWhere(sb.stmt.Where, conds)
	return nb
}

// OrWhere ORs the AND of conds with the existing WHERE clause.
func (sb *SelectBuilder) OrWhere(conds ...ast.Node) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Where = orWhere(sb.stmt.Where, conds)
	return nb
}

func (sb *SelectBuilder) WhereEq(col string, v any) *SelectBuilder {
	return sb.Where(Eq(col, v))
}

func (sb *SelectBuilder) WhereIn(col string, values ...any) *SelectBuilder {
	return sb.Where(In(col, values...))
}

// Filter ANDs "field__op" lookups onto the WHERE clause.
func (sb *SelectBuilder) Filter(kv map[string]any) *SelectBuilder {
	cond, err := Filter(kv)
	if err != nil {
		nb := sb.clone()
		nb.err = err
		return nb
	}
	return sb.Where(cond)
}

func (sb *SelectBuilder) join(t ast.JoinType, table string, on ast.Node) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Joins = appendCopy(sb.stmt.Joins, &ast.JoinClause{JoinType: t, Table: Table(table), On: on})
	return nb
}

func (sb *SelectBuilder) Join(table string, on ast.Node) *SelectBuilder {
	return sb.join(ast.JoinInner, table, on)
}

func (sb *SelectBuilder) LeftJoin(table string, on ast.Node) *SelectBuilder {
	return sb.join(ast.JoinLeft, table, on)
}

func (sb *SelectBuilder) RightJoin(table string, on ast.Node) *SelectBuilder {
	return sb.join(ast.JoinRight, table, on)
}

func (sb *SelectBuilder) FullJoin(table string, on ast.Node) *SelectBuilder {
	return sb.join(ast.JoinFull, table, on)
}

func (sb *SelectBuilder) CrossJoin(table string) *SelectBuilder {
	return sb.join(ast.JoinCross, table, nil)
}

func (sb *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	nb := sb.clone()
	var prev []ast.Node
	if sb.stmt.GroupBy != nil {
		prev = sb.stmt.GroupBy.Exprs
	}
	nb.stmt.GroupBy = &ast.GroupByClause{Exprs: appendCopy(prev, columnNodes(columns)...)}
	return nb
}

// Having ANDs conditions onto the HAVING clause.
func (sb *SelectBuilder) Having(conds ...ast.Node) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.Having = andWhere(sb.stmt.Having, conds)
	return nb
}

func (sb *SelectBuilder) orderBy(desc bool, columns []string) *SelectBuilder {
	nb := sb.clone()
	clauses := make([]*ast.OrderByClause, len(columns))
	for i, c := range columns {
		clauses[i] = &ast.OrderByClause{Expr: Col(c), Desc: desc}
	}
	nb.stmt.OrderBy = appendCopy(sb.stmt.OrderBy, clauses...)
	return nb
}

func (sb *SelectBuilder) OrderByAsc(columns ...string) *SelectBuilder {
	return sb.orderBy(false, columns)
}

func (sb *SelectBuilder) OrderByDesc(columns ...string) *SelectBuilder {
	return sb.orderBy(true, columns)
}

// OrderByExpr orders by an arbitrary expression.
func (sb *SelectBuilder) OrderByExpr(expr ast.Node, desc bool) *SelectBuilder {
	nb := sb.clone()
	nb.stmt.OrderBy = appendCopy(sb.stmt.OrderBy, &ast.OrderByClause{Expr: expr, Desc: desc})
	return nb
}

func (sb *SelectBuilder) limitClause() ast.LimitClause {
	if sb.stmt.Limit == nil {
		return ast.LimitClause{}
	}
	return *sb.stmt.Limit
}

func (sb *SelectBuilder) Limit(n int) *SelectBuilder {
	nb := sb.clone()
	l := sb.limitClause()
	l.Count = &n
	nb.stmt.Limit = &l
	return nb
}

func (sb *SelectBuilder) Offset(n int) *SelectBuilder {
	nb := sb.clone()
	l := sb.limitClause()
	l.Offset = &n
	nb.stmt.Limit = &l
	return nb
}

func (sb *SelectBuilder) ForUpdate() *SelectBuilder {
	nb := sb.clone()
	nb.stmt.ForUpdate = true
	return nb
}

// Stmt returns a copy of the statement built so far.
func (sb *SelectBuilder) Stmt() *ast.SelectStmt {
	stmt := sb.stmt
	return &stmt
}

func (sb *SelectBuilder) Build() (ast.Node, error) {
	if sb.err != nil {
		return nil, sb.err
	}
	return sb.Stmt(), nil
}

func andWhere(w *ast.WhereClause, conds []ast.Node) *ast.WhereClause {
	cond := And(conds...)
	if cond == nil {
		return w
	}
	if w == nil {
		return &ast.WhereClause{Condition: cond}
	}
	return &ast.WhereClause{Condition: And(w.Condition, cond)}
}

func orWhere(w *ast.WhereClause, conds []ast.Node) *ast.WhereClause {
	cond := And(conds...)
	if cond == nil {
		return w
	}
	if w == nil {
		return &ast.WhereClause{Condition: cond}
	}
	return &ast.WhereClause{Condition: Or(w.Condition, cond)}
}
