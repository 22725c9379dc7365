package query

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
)

// Fn calls an arbitrary SQL function. The name is emitted verbatim.
func Fn(name string, args ...any) *ast.Function {
	nodes := make([]ast.Node, len(args))
	for i, a := range args {
		nodes[i] = operand(a)
	}
	return ast.NewFunction(name, nodes...)
}

func colFn(name, col string) *ast.Function {
	return ast.NewFunction(name, Col(col))
}

// Count counts rows; pass "*" to count all of them.
func Count(col string) *ast.Function { return colFn("COUNT", col) }

func CountDistinct(col string) *ast.Function {
	f := colFn("COUNT", col)
	f.Distinct = true
	return f
}

func Sum(col string) *ast.Function    { return colFn("SUM", col) }
func Avg(col string) *ast.Function    { return colFn("AVG", col) }
func Min(col string) *ast.Function    { return colFn("MIN", col) }
func Max(col string) *ast.Function    { return colFn("MAX", col) }
func Lower(col string) *ast.Function  { return colFn("LOWER", col) }
func Upper(col string) *ast.Function  { return colFn("UPPER", col) }
func Trim(col string) *ast.Function   { return colFn("TRIM", col) }
func Length(col string) *ast.Function { return colFn("LENGTH", col) }

// Coalesce returns the first non-null of col and the fallbacks.
func Coalesce(col string, fallbacks ...any) *ast.Function {
	args := make([]ast.Node, 0, len(fallbacks)+1)
	args = append(args, Col(col))
	for _, f := range fallbacks {
		args = append(args, operand(f))
	}
	return ast.NewFunction("COALESCE", args...)
}

// Expr builds left op right, e.g. Expr(Col("stock"), "-", 1) for SET clauses.
func Expr(left any, op string, right any) ast.Node {
	return ast.NewBinaryExpr(operand(left), op, operand(right))
}
