package visitor

import (
	"fmt"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/dialect"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// Param is one positional parameter. Positions start at 1 and are contiguous.
type Param struct {
	Position int
	Value    ast.Value
}

// RenderedQuery is SQL text plus its parameters, ready for a connection.
type RenderedQuery struct {
	SQL     string
	Params  []Param
	Dialect dialect.Dialect
}

// Render turns a statement tree into SQL for d. Output is deterministic:
// the same tree always yields the same text and parameter order.
func Render(node ast.Node, d dialect.Dialect) (*RenderedQuery, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: no dialect", errs.ErrConfiguration)
	}
	if !ast.IsStatement(node) {
		return nil, shapeError("cannot render a bare expression")
	}

	v := NewSQLVisitor(d)
	defer v.Release()

	if err := node.Accept(v); err != nil {
		return nil, err
	}

	params := make([]Param, len(v.params))
	copy(params, v.params)
	return &RenderedQuery{SQL: v.SQL(), Params: params, Dialect: d}, nil
}

// Raw wraps hand-written SQL. Its placeholders are checked against args when
// the query is validated, not here.
func Raw(d dialect.Dialect, sql string, args ...any) *RenderedQuery {
	params := make([]Param, len(args))
	for i, a := range args {
		params[i] = Param{Position: i + 1, Value: *ast.NewValue(a)}
	}
	return &RenderedQuery{SQL: sql, Params: params, Dialect: d}
}

// Values returns the parameter values in position order.
func (q *RenderedQuery) Values() []ast.Value {
	out := make([]ast.Value, len(q.Params))
	for i, p := range q.Params {
		out[i] = p.Value
	}
	return out
}

// Validate checks that the placeholders in SQL and the bound parameters agree.
func (q *RenderedQuery) Validate() error {
	if q.Dialect == nil {
		return fmt.Errorf("%w: query has no dialect", errs.ErrConfiguration)
	}
	for i, p := range q.Params {
		if p.Position != i+1 {
			return fmt.Errorf("%w: parameter %d has position %d", errs.ErrParameterCountMismatch, i+1, p.Position)
		}
		if p.Value.ValueType == ast.ValueInvalid {
			return fmt.Errorf("%w: cannot bind parameter %d of type %T", errs.ErrUnsupportedConstruct, p.Position, p.Value.Val)
		}
	}

	positions := Placeholders(q.SQL, q.Dialect)
	switch q.Dialect.PlaceholderStyle() {
	case dialect.PlaceholderDollar:
		seen := make(map[int]bool, len(positions))
		for _, p := range positions {
			if p < 1 || p > len(q.Params) {
				return fmt.Errorf("%w: placeholder $%d with %d parameters", errs.ErrParameterCountMismatch, p, len(q.Params))
			}
			seen[p] = true
		}
		if len(seen) != len(q.Params) {
			return fmt.Errorf("%w: %d placeholders for %d parameters", errs.ErrParameterCountMismatch, len(seen), len(q.Params))
		}
	default:
		if len(positions) != len(q.Params) {
			return fmt.Errorf("%w: %d placeholders for %d parameters", errs.ErrParameterCountMismatch, len(positions), len(q.Params))
		}
	}
	return nil
}

func (q *RenderedQuery) String() string {
	return fmt.Sprintf("%s %v", q.SQL, q.Values())
}
