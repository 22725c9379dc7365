package query

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

func compare(col string, op string, v any) ast.Node {
	return ast.NewBinaryExpr(Col(col), op, operand(v))
}

// Eq compares for equality. A nil value becomes IS NULL.
func Eq(col string, v any) ast.Node {
	if isNil(v) {
		return IsNull(col)
	}
	return compare(col, ast.OpEqual, v)
}

// Ne compares for inequality. A nil value becomes IS NOT NULL.
func Ne(col string, v any) ast.Node {
	if isNil(v) {
		return IsNotNull(col)
	}
	return compare(col, ast.OpNotEqual, v)
}

func Gt(col string, v any) ast.Node  { return compare(col, ast.OpGreaterThan, v) }
func Gte(col string, v any) ast.Node { return compare(col, ast.OpGreaterThanOrEqual, v) }
func Lt(col string, v any) ast.Node  { return compare(col, ast.OpLessThan, v) }
func Lte(col string, v any) ast.Node { return compare(col, ast.OpLessThanOrEqual, v) }

func Like(col string, pattern string) ast.Node    { return compare(col, ast.OpLike, pattern) }
func NotLike(col string, pattern string) ast.Node { return compare(col, ast.OpNotLike, pattern) }

// ILike is a case-insensitive LIKE. Only dialects with native ILIKE render it.
func ILike(col string, pattern string) ast.Node    { return compare(col, ast.OpILike, pattern) }
func NotILike(col string, pattern string) ast.Node { return compare(col, ast.OpNotILike, pattern) }

// In matches any of values. A single slice argument is expanded; a
// *SelectBuilder becomes a subquery.
func In(col string, values ...any) ast.Node {
	return inExpr(col, ast.OpIn, values)
}

func NotIn(col string, values ...any) ast.Node {
	return inExpr(col, ast.OpNotIn, values)
}

func inExpr(col, op string, values []any) ast.Node {
	if len(values) == 1 {
		if sb, ok := values[0].(*SelectBuilder); ok {
			return ast.NewBinaryExpr(Col(col), op, subquery(sb))
		}
	}
	return ast.NewBinaryExpr(Col(col), op, ast.NewArray(flatten(values)))
}

func IsNull(col string) ast.Node {
	return &ast.UnaryExpr{Operator: ast.OpIsNull, Operand: Col(col)}
}

func IsNotNull(col string) ast.Node {
	return &ast.UnaryExpr{Operator: ast.OpIsNotNull, Operand: Col(col)}
}

func Between(col string, low, high any) ast.Node {
	return ast.NewBinaryExpr(Col(col), ast.OpBetween,
		ast.NewBinaryExpr(operand(low), ast.OpAnd, operand(high)))
}

func NotBetween(col string, low, high any) ast.Node {
	return ast.NewBinaryExpr(Col(col), ast.OpNotBetween,
		ast.NewBinaryExpr(operand(low), ast.OpAnd, operand(high)))
}

// On is the usual join condition left = right over two columns.
func On(left, right string) ast.Node {
	return ast.NewBinaryExpr(Col(left), ast.OpEqual, Col(right))
}

// And joins conditions; the result is parenthesized so its precedence is fixed.
func And(conds ...ast.Node) ast.Node {
	return logical(ast.OpAnd, conds)
}

// Or joins conditions; the result is parenthesized so its precedence is fixed.
func Or(conds ...ast.Node) ast.Node {
	return logical(ast.OpOr, conds)
}

// Not negates a condition.
func Not(cond ast.Node) ast.Node {
	if _, ok := cond.(*ast.GroupedExpr); !ok {
		cond = &ast.GroupedExpr{Expr: cond}
	}
	return &ast.UnaryExpr{Operator: ast.OpNot, Operand: cond, IsPrefix: true}
}

func Exists(sub *SelectBuilder) ast.Node {
	return &ast.UnaryExpr{Operator: ast.OpExists, Operand: subquery(sub), IsPrefix: true}
}

func NotExists(sub *SelectBuilder) ast.Node {
	return &ast.UnaryExpr{Operator: ast.OpNotExists, Operand: subquery(sub), IsPrefix: true}
}

func subquery(sb *SelectBuilder) ast.Node {
	if sb.err != nil {
		return errNode{err: sb.err}
	}
	stmt := sb.stmt
	return &ast.SubqueryExpr{Stmt: &stmt}
}

func logical(op string, conds []ast.Node) ast.Node {
	var terms []ast.Node
	for _, c := range conds {
		if c == nil {
			continue
		}
		terms = append(terms, splitTerms(op, c)...)
	}
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	}
	expr := ast.NewBinaryExpr(terms[0], op, terms[1])
	for _, t := range terms[2:] {
		expr = ast.NewBinaryExpr(expr, op, t)
	}
	return &ast.GroupedExpr{Expr: expr}
}

// splitTerms splits a grouped chain built with the same operator back into its
// terms so repeated And/Or calls stay flat.
func splitTerms(op string, n ast.Node) []ast.Node {
	g, ok := n.(*ast.GroupedExpr)
	if !ok {
		return []ast.Node{n}
	}
	b, ok := g.Expr.(*ast.BinaryExpr)
	if !ok || b.Operator != op {
		return []ast.Node{n}
	}
	var out []ast.Node
	for {
		out = append([]ast.Node{b.Right}, out...)
		left, ok := b.Left.(*ast.BinaryExpr)
		if !ok || left.Operator != op {
			return append([]ast.Node{b.Left}, out...)
		}
		b = left
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case *ast.Value:
		return x == nil || x.IsNull()
	case ast.Node, *SelectBuilder:
		return false
	}
	return ast.NewValue(v).IsNull()
}
