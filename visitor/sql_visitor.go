package visitor

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

var visitorPool = sync.Pool{
	New: func() any {
		return &SQLVisitor{
			params: make([]Param, 0, 8),
		}
	},
}

// SQLVisitor writes a statement tree as SQL text, binding every value as a
// positional parameter. It is not safe for concurrent use.
type SQLVisitor struct {
	sb      strings.Builder
	params  []Param
	dialect dialect.Dialect
}

func NewSQLVisitor(d dialect.Dialect) *SQLVisitor {
	v := visitorPool.Get().(*SQLVisitor)
	v.dialect = d
	v.sb.Reset()
	v.params = v.params[:0]
	return v
}

func (v *SQLVisitor) Release() {
	v.dialect = nil
	v.sb.Reset()
	v.params = v.params[:0]
	visitorPool.Put(v)
}

func (v *SQLVisitor) SQL() string { return v.sb.String() }

func (v *SQLVisitor) bind(val ast.Value) {
	pos := len(v.params) + 1
	v.sb.WriteString(v.dialect.Placeholder(pos))
	v.params = append(v.params, Param{Position: pos, Value: val})
}

func (v *SQLVisitor) ident(name string) {
	v.sb.WriteString(v.dialect.QuoteIdentifier(name))
}

func (v *SQLVisitor) identList(names []string) {
	for i, n := range names {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.ident(n)
	}
}

func (v *SQLVisitor) nodeList(nodes []ast.Node) error {
	for i, n := range nodes {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if n == nil {
			return fmt.Errorf("%w: nil expression in list", errs.ErrInvalidQueryShape)
		}
		if err := n.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) require(f dialect.Feature) error {
	if !v.dialect.Supports(f) {
		return fmt.Errorf("%w: %s is not available on %s", errs.ErrUnsupportedConstruct, f, v.dialect.Name())
	}
	return nil
}

func shapeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errs.ErrInvalidQueryShape}, args...)...)
}

// condition writes keyword followed by cond. A parenthesized top-level
// condition is written without its outer parentheses.
func (v *SQLVisitor) condition(keyword string, cond ast.Node) error {
	if cond == nil {
		return shapeError("empty %s condition", strings.TrimSpace(keyword))
	}
	v.sb.WriteString(keyword)
	if g, ok := cond.(*ast.GroupedExpr); ok && g.Expr != nil {
		cond = g.Expr
	}
	return cond.Accept(v)
}

func (v *SQLVisitor) returning(cols []ast.Node) error {
	if len(cols) == 0 {
		return nil
	}
	if err := v.require(dialect.FeatureReturning); err != nil {
		return err
	}
	v.sb.WriteString(" RETURNING ")
	return v.nodeList(cols)
}

func (v *SQLVisitor) VisitSelect(s *ast.SelectStmt) error {
	if len(s.Columns) == 0 {
		return shapeError("SELECT without columns")
	}

	v.sb.WriteString("SELECT ")
	if s.Distinct {
		v.sb.WriteString("DISTINCT ")
	}
	if err := v.nodeList(s.Columns); err != nil {
		return err
	}

	if s.From != nil {
		v.sb.WriteString(" FROM ")
		if err := s.From.Accept(v); err != nil {
			return err
		}
	} else if len(s.Joins) > 0 {
		return shapeError("JOIN without FROM")
	}

	for _, join := range s.Joins {
		if err := join.Accept(v); err != nil {
			return err
		}
	}

	if s.Where != nil {
		if err := s.Where.Accept(v); err != nil {
			return err
		}
	}

	if s.GroupBy != nil {
		if err := s.GroupBy.Accept(v); err != nil {
			return err
		}
	}

	if s.Having != nil {
		if err := v.condition(" HAVING ", s.Having.Condition); err != nil {
			return err
		}
	}

	if len(s.OrderBy) > 0 {
		v.sb.WriteString(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := o.Accept(v); err != nil {
				return err
			}
		}
	}

	if s.Limit != nil {
		if err := s.Limit.Accept(v); err != nil {
			return err
		}
	}

	if s.ForUpdate {
		if err := v.require(dialect.FeatureForUpdate); err != nil {
			return err
		}
		v.sb.WriteString(" FOR UPDATE")
	}
	return nil
}

func (v *SQLVisitor) VisitInsert(stmt *ast.InsertStmt) error {
	if stmt.Table == nil {
		return shapeError("INSERT without table")
	}
	if len(stmt.Columns) == 0 {
		return shapeError("INSERT without columns")
	}
	if len(stmt.Rows) == 0 {
		return shapeError("INSERT without values")
	}

	v.sb.WriteString("INSERT INTO ")
	if err := stmt.Table.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" (")
	v.identList(stmt.Columns)
	v.sb.WriteString(") VALUES ")

	for i, row := range stmt.Rows {
		if len(row) != len(stmt.Columns) {
			return shapeError("INSERT row %d has %d values for %d columns", i, len(row), len(stmt.Columns))
		}
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteByte('(')
		if err := v.nodeList(row); err != nil {
			return err
		}
		v.sb.WriteByte(')')
	}

	if stmt.OnConflict != nil {
		if err := v.onConflict(stmt.OnConflict); err != nil {
			return err
		}
	}
	return v.returning(stmt.Returning)
}

func (v *SQLVisitor) onConflict(oc *ast.OnConflict) error {
	if !oc.DoNothing && len(oc.UpdateColumns) == 0 && len(oc.Updates) == 0 {
		return shapeError("upsert without updates")
	}

	switch {
	case v.dialect.Supports(dialect.FeatureOnConflict):
		v.sb.WriteString(" ON CONFLICT")
		if len(oc.Columns) > 0 {
			v.sb.WriteString(" (")
			v.identList(oc.Columns)
			v.sb.WriteByte(')')
		} else if !oc.DoNothing {
			return shapeError("ON CONFLICT DO UPDATE needs conflict columns")
		}
		if oc.DoNothing {
			v.sb.WriteString(" DO NOTHING")
			return nil
		}
		v.sb.WriteString(" DO UPDATE SET ")
		for i, c := range oc.UpdateColumns {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			v.ident(c)
			v.sb.WriteString(" = EXCLUDED.")
			v.ident(c)
		}

	case v.dialect.Supports(dialect.FeatureDuplicateKeyUpdate):
		if oc.DoNothing {
			return fmt.Errorf("%w: ON CONFLICT DO NOTHING is not available on %s", errs.ErrUnsupportedConstruct, v.dialect.Name())
		}
		v.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
		for i, c := range oc.UpdateColumns {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			v.ident(c)
			v.sb.WriteString(" = VALUES(")
			v.ident(c)
			v.sb.WriteByte(')')
		}

	default:
		return v.require(dialect.FeatureOnConflict)
	}

	if len(oc.Updates) > 0 {
		if len(oc.UpdateColumns) > 0 {
			v.sb.WriteString(", ")
		}
		return v.assignments(oc.Updates)
	}
	return nil
}

func (v *SQLVisitor) assignments(as []ast.Assignment) error {
	for i, a := range as {
		if a.Column == "" || a.Value == nil {
			return shapeError("incomplete assignment %d", i)
		}
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.ident(a.Column)
		v.sb.WriteString(" = ")
		if err := a.Value.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitUpdate(stmt *ast.UpdateStmt) error {
	if stmt.Table == nil {
		return shapeError("UPDATE without table")
	}
	if len(stmt.Set) == 0 {
		return shapeError("UPDATE without SET")
	}

	v.sb.WriteString("UPDATE ")
	if err := stmt.Table.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" SET ")
	if err := v.assignments(stmt.Set); err != nil {
		return err
	}
	if stmt.Where != nil {
		if err := stmt.Where.Accept(v); err != nil {
			return err
		}
	}
	return v.returning(stmt.Returning)
}

func (v *SQLVisitor) VisitDelete(stmt *ast.DeleteStmt) error {
	if stmt.Table == nil {
		return shapeError("DELETE without table")
	}

	v.sb.WriteString("DELETE FROM ")
	if err := stmt.Table.Accept(v); err != nil {
		return err
	}
	if stmt.Where != nil {
		if err := stmt.Where.Accept(v); err != nil {
			return err
		}
	}
	return v.returning(stmt.Returning)
}

var referentialActions = map[string]bool{
	"CASCADE": true, "RESTRICT": true, "SET NULL": true, "SET DEFAULT": true, "NO ACTION": true,
}

func (v *SQLVisitor) VisitCreateTable(stmt *ast.CreateTableStmt) error {
	if stmt.Table == nil {
		return shapeError("CREATE TABLE without table")
	}
	if len(stmt.Columns) == 0 {
		return shapeError("CREATE TABLE without columns")
	}

	var keys []string
	for _, col := range stmt.Columns {
		if col.PrimaryKey {
			keys = append(keys, col.Name)
		}
	}
	inlineKey := len(keys) == 1

	v.sb.WriteString("CREATE TABLE ")
	if stmt.IfNotExists {
		if err := v.require(dialect.FeatureIfNotExists); err != nil {
			return err
		}
		v.sb.WriteString("IF NOT EXISTS ")
	}
	if err := stmt.Table.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" (")

	for i, col := range stmt.Columns {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := v.columnDef(col, inlineKey); err != nil {
			return err
		}
	}
	if len(keys) > 1 {
		v.sb.WriteString(", PRIMARY KEY (")
		v.identList(keys)
		v.sb.WriteByte(')')
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) columnDef(col *ast.ColumnDef, inlineKey bool) error {
	if col.Name == "" {
		return shapeError("column without name")
	}
	typ, err := v.dialect.ColumnType(col)
	if err != nil {
		return err
	}

	v.ident(col.Name)
	v.sb.WriteByte(' ')
	v.sb.WriteString(typ)

	suffix := ""
	if col.AutoIncrement {
		suffix = v.dialect.AutoIncrementSuffix()
	}
	if col.PrimaryKey && inlineKey {
		v.sb.WriteString(" PRIMARY KEY")
	}
	if suffix != "" {
		v.sb.WriteByte(' ')
		v.sb.WriteString(suffix)
	}
	if col.NotNull {
		v.sb.WriteString(" NOT NULL")
	}
	if col.Unique {
		v.sb.WriteString(" UNIQUE")
	}

	if ref := col.References; ref != nil {
		v.sb.WriteString(" REFERENCES ")
		v.ident(ref.Table)
		if len(ref.Columns) > 0 {
			v.sb.WriteString(" (")
			v.identList(ref.Columns)
			v.sb.WriteByte(')')
		}
		for _, act := range []struct{ kw, action string }{{" ON DELETE ", ref.OnDelete}, {" ON UPDATE ", ref.OnUpdate}} {
			if act.action == "" {
				continue
			}
			a := strings.ToUpper(act.action)
			if !referentialActions[a] {
				return shapeError("unknown referential action %q", act.action)
			}
			v.sb.WriteString(act.kw)
			v.sb.WriteString(a)
		}
	}
	return nil
}

func (v *SQLVisitor) VisitColumn(c *ast.Column) error {
	if c.Name == "" {
		return shapeError("column without name")
	}
	if c.Table != "" {
		v.ident(c.Table)
		v.sb.WriteByte('.')
	}
	if c.Name == ast.Star {
		v.sb.WriteString(ast.Star)
	} else {
		v.ident(c.Name)
	}

	if c.Alias != "" && c.Alias != c.Name {
		v.sb.WriteString(" AS ")
		v.ident(c.Alias)
	}
	return nil
}

func (v *SQLVisitor) VisitTable(t *ast.Table) error {
	if t.Name == "" {
		return shapeError("table without name")
	}
	if t.Schema != "" {
		v.ident(t.Schema)
		v.sb.WriteByte('.')
	}
	v.ident(t.Name)

	if t.Alias != "" && t.Alias != t.Name {
		v.sb.WriteString(" AS ")
		v.ident(t.Alias)
	}
	return nil
}

func (v *SQLVisitor) VisitValue(val *ast.Value) error {
	if val.ValueType == ast.ValueInvalid {
		return fmt.Errorf("%w: cannot bind parameter of type %T", errs.ErrUnsupportedConstruct, val.Val)
	}
	v.bind(*val)
	return nil
}

func (v *SQLVisitor) VisitArray(a *ast.Array) error {
	if len(a.Values) == 0 {
		return shapeError("empty value list")
	}
	v.sb.WriteByte('(')
	for i := range a.Values {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := v.VisitValue(&a.Values[i]); err != nil {
			return err
		}
	}
	v.sb.WriteByte(')')
	return nil
}

func validFunctionName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func (v *SQLVisitor) VisitFunction(f *ast.Function) error {
	if !validFunctionName(f.Name) {
		return shapeError("invalid function name %q", f.Name)
	}
	v.sb.WriteString(f.Name)
	v.sb.WriteByte('(')
	if f.Distinct {
		v.sb.WriteString("DISTINCT ")
	}
	if err := v.nodeList(f.Args); err != nil {
		return err
	}
	v.sb.WriteByte(')')

	if f.Alias != "" {
		v.sb.WriteString(" AS ")
		v.ident(f.Alias)
	}
	return nil
}

func (v *SQLVisitor) VisitCast(c *ast.Cast) error {
	if c.Expr == nil {
		return shapeError("CAST without expression")
	}
	typ := c.TypeName
	if typ == "" {
		typ = v.dialect.TextCastType()
	} else if !validFunctionName(strings.ReplaceAll(typ, " ", "_")) {
		return shapeError("invalid cast type %q", typ)
	}
	v.sb.WriteString("CAST(")
	if err := c.Expr.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" AS ")
	v.sb.WriteString(typ)
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitGroupedExpr(g *ast.GroupedExpr) error {
	if g.Expr == nil {
		return shapeError("empty group")
	}
	v.sb.WriteByte('(')
	err := g.Expr.Accept(v)
	v.sb.WriteByte(')')
	return err
}

const anyDialect dialect.Feature = -1

// binaryOperators lists the operators the renderer emits and the feature each needs.
var binaryOperators = map[string]dialect.Feature{
	ast.OpEqual: anyDialect, ast.OpNotEqual: anyDialect,
	ast.OpLessThan: anyDialect, ast.OpLessThanOrEqual: anyDialect,
	ast.OpGreaterThan: anyDialect, ast.OpGreaterThanOrEqual: anyDialect,
	ast.OpAnd: anyDialect, ast.OpOr: anyDialect,
	ast.OpLike: anyDialect, ast.OpNotLike: anyDialect,
	ast.OpILike: dialect.FeatureILike, ast.OpNotILike: dialect.FeatureILike,
	ast.OpIn: anyDialect, ast.OpNotIn: anyDialect,
	ast.OpBetween: anyDialect, ast.OpNotBetween: anyDialect,
	ast.OpAdd: anyDialect, ast.OpSubtract: anyDialect, ast.OpMultiply: anyDialect, ast.OpDivide: anyDialect,
}

func (v *SQLVisitor) VisitBinaryExpr(expr *ast.BinaryExpr) error {
	feature, ok := binaryOperators[expr.Operator]
	if !ok {
		return fmt.Errorf("%w: operator %q", errs.ErrUnsupportedConstruct, expr.Operator)
	}
	if feature != anyDialect {
		if err := v.require(feature); err != nil {
			return err
		}
	}
	if expr.Left == nil || expr.Right == nil {
		return shapeError("operator %s is missing an operand", expr.Operator)
	}

	if err := expr.Left.Accept(v); err != nil {
		return err
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(expr.Operator)
	v.sb.WriteByte(' ')

	return expr.Right.Accept(v)
}

var unaryOperators = map[string]bool{
	ast.OpNot: true, ast.OpExists: true, ast.OpNotExists: true,
	ast.OpIsNull: false, ast.OpIsNotNull: false,
}

func (v *SQLVisitor) VisitUnaryExpr(expr *ast.UnaryExpr) error {
	prefix, ok := unaryOperators[expr.Operator]
	if !ok || prefix != expr.IsPrefix {
		return fmt.Errorf("%w: operator %q", errs.ErrUnsupportedConstruct, expr.Operator)
	}
	if expr.Operand == nil {
		return shapeError("operator %s is missing an operand", expr.Operator)
	}

	if expr.IsPrefix {
		v.sb.WriteString(expr.Operator)
		v.sb.WriteByte(' ')
		return expr.Operand.Accept(v)
	}

	if err := expr.Operand.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(' ')
	v.sb.WriteString(expr.Operator)
	return nil
}

func (v *SQLVisitor) VisitSubqueryExpr(s *ast.SubqueryExpr) error {
	if !ast.IsStatement(s.Stmt) {
		return shapeError("subquery is not a statement")
	}
	v.sb.WriteByte('(')
	err := s.Stmt.Accept(v)
	v.sb.WriteByte(')')
	return err
}

func (v *SQLVisitor) VisitWhereClause(clause *ast.WhereClause) error {
	return v.condition(" WHERE ", clause.Condition)
}

func (v *SQLVisitor) VisitJoinClause(clause *ast.JoinClause) error {
	if clause.Table == nil {
		return shapeError("JOIN without table")
	}
	switch clause.JoinType {
	case ast.JoinRight:
		if err := v.require(dialect.FeatureRightJoin); err != nil {
			return err
		}
	case ast.JoinFull:
		if err := v.require(dialect.FeatureFullJoin); err != nil {
			return err
		}
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(joinKeyword(clause.JoinType))
	v.sb.WriteByte(' ')
	if err := clause.Table.Accept(v); err != nil {
		return err
	}

	if clause.JoinType == ast.JoinCross {
		if clause.On != nil {
			return shapeError("CROSS JOIN with ON condition")
		}
		return nil
	}
	return v.condition(" ON ", clause.On)
}

func joinKeyword(t ast.JoinType) string {
	switch t {
	case ast.JoinLeft:
		return "LEFT JOIN"
	case ast.JoinRight:
		return "RIGHT JOIN"
	case ast.JoinFull:
		return "FULL JOIN"
	case ast.JoinCross:
		return "CROSS JOIN"
	default:
		return "INNER JOIN"
	}
}

func (v *SQLVisitor) VisitGroupBy(g *ast.GroupByClause) error {
	if len(g.Exprs) == 0 {
		return nil
	}
	v.sb.WriteString(" GROUP BY ")
	return v.nodeList(g.Exprs)
}

func (v *SQLVisitor) VisitOrderByClause(clause *ast.OrderByClause) error {
	if clause.Expr == nil {
		return shapeError("ORDER BY without expression")
	}
	if err := clause.Expr.Accept(v); err != nil {
		return err
	}
	if clause.Desc {
		v.sb.WriteString(" DESC")
	} else {
		v.sb.WriteString(" ASC")
	}
	return nil
}

func (v *SQLVisitor) VisitLimitClause(clause *ast.LimitClause) error {
	if clause.Count != nil && *clause.Count < 0 {
		return shapeError("negative LIMIT %d", *clause.Count)
	}
	if clause.Offset != nil && *clause.Offset < 0 {
		return shapeError("negative OFFSET %d", *clause.Offset)
	}

	switch {
	case clause.Count != nil:
		v.sb.WriteString(" LIMIT ")
		v.bind(ast.Int(int64(*clause.Count)))
	case clause.Offset != nil && !v.dialect.Supports(dialect.FeatureOffsetWithoutLimit):
		v.sb.WriteString(" LIMIT ")
		v.bind(ast.Int(math.MaxInt64))
	}

	if clause.Offset != nil {
		v.sb.WriteString(" OFFSET ")
		v.bind(ast.Int(int64(*clause.Offset)))
	}
	return nil
}

var _ ast.Visitor = (*SQLVisitor)(nil)
