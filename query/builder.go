// Package query builds immutable SQL statement trees. Every builder method
// returns a new builder; the receiver is left untouched, so partially built
// queries can be shared and extended independently.
package query

import (
	"reflect"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

// Statement is anything that can produce a complete statement tree.
type Statement interface {
	Build() (ast.Node, error)
}

type nodeStatement struct {
	node ast.Node
}

func (n nodeStatement) Build() (ast.Node, error) { return n.node, nil }

// Node wraps a hand-built tree as a Statement.
func Node(n ast.Node) Statement {
	return nodeStatement{node: n}
}

// appendCopy appends to a fresh backing array so builders never share one.
func appendCopy[T any](s []T, v ...T) []T {
	out := make([]T, len(s), len(s)+len(v))
	copy(out, s)
	return append(out, v...)
}

// errNode carries a construction error into the tree. Rendering it fails.
type errNode struct {
	err error
}

func (e errNode) Type() ast.NodeType       { return ast.NodeValue }
func (e errNode) Accept(ast.Visitor) error { return e.err }
func (e errNode) Fingerprint() uint64      { return 0 }

// operand turns a Go value into an expression. Nodes pass through unchanged.
func operand(v any) ast.Node {
	switch x := v.(type) {
	case ast.Node:
		return x
	case *SelectBuilder:
		return subquery(x)
	}
	return ast.NewValue(v)
}

// flatten expands a single slice argument into its elements.
func flatten(values []any) []any {
	if len(values) != 1 {
		return values
	}
	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return values
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func columnNodes(refs []string) []ast.Node {
	nodes := make([]ast.Node, len(refs))
	for i, s := range refs {
		nodes[i] = Col(s)
	}
	return nodes
}
