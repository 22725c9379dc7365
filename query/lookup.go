package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

const lookupSep = "__"

type lookupFunc func(col string, v any) ast.Node

var lookups = map[string]lookupFunc{
	"exact": Eq,
	"not": func(col string, v any) ast.Node {
		if isNil(v) {
			return IsNotNull(col)
		}
		return Or(Ne(col, v), IsNull(col))
	},
	"in": func(col string, v any) ast.Node { return In(col, v) },
	"not_in": func(col string, v any) ast.Node {
		return Or(NotIn(col, v), IsNull(col))
	},
	"isnull": func(col string, v any) ast.Node {
		if truthy(v) {
			return IsNull(col)
		}
		return IsNotNull(col)
	},
	"not_isnull": func(col string, v any) ast.Node {
		if truthy(v) {
			return IsNotNull(col)
		}
		return IsNull(col)
	},
	"gt":  Gt,
	"gte": Gte,
	"lt":  Lt,
	"lte": Lte,

	"contains":   textMatch(false, "%", "%"),
	"startswith": textMatch(false, "", "%"),
	"endswith":   textMatch(false, "%", ""),

	"iexact":      textMatch(true, "", ""),
	"icontains":   textMatch(true, "%", "%"),
	"istartswith": textMatch(true, "", "%"),
	"iendswith":   textMatch(true, "%", ""),
}

// textMatch compares the column as text with LIKE. Case-insensitive forms
// upper-case both sides, which works on every dialect.
func textMatch(fold bool, prefix, suffix string) lookupFunc {
	return func(col string, v any) ast.Node {
		var left ast.Node = &ast.Cast{Expr: Col(col)}
		var right ast.Node = ast.NewValue(prefix + fmt.Sprint(v) + suffix)
		if fold {
			left = ast.NewFunction("UPPER", left)
			right = ast.NewFunction("UPPER", right)
		}
		return ast.NewBinaryExpr(left, ast.OpLike, right)
	}
}

// Lookup builds a condition from a "field__op" key, e.g. "name__icontains".
// A key without an operator tests equality.
func Lookup(key string, v any) (ast.Node, error) {
	col, op := key, "exact"
	if i := strings.LastIndex(key, lookupSep); i >= 0 {
		col, op = key[:i], key[i+len(lookupSep):]
	}
	if col == "" {
		return nil, fmt.Errorf("%w: empty lookup field in %q", errs.ErrInvalidQueryShape, key)
	}
	fn, ok := lookups[op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown lookup %q", errs.ErrInvalidQueryShape, op)
	}
	return fn(col, v), nil
}

// Filter ANDs one lookup per key. Keys are applied in sorted order so the
// same map always renders the same SQL.
func Filter(kv map[string]any) (ast.Node, error) {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]ast.Node, 0, len(keys))
	for _, k := range keys {
		c, err := Lookup(k, kv[k])
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return And(conds...), nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	}
	val := ast.NewValue(v)
	switch val.ValueType {
	case ast.ValueInt:
		return val.Val.(int64) != 0
	case ast.ValueString:
		return val.Val.(string) != ""
	}
	return true
}
