package ast

type NodeType int

const (
	NodeSelect NodeType = iota
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeCreateTable
	NodeColumn
	NodeTable
	NodeValue
	NodeArray
	NodeFunction
	NodeCast
	NodeGroupedExpr
	NodeBinaryExpr
	NodeUnaryExpr
	NodeSubqueryExpr
	NodeWhere
	NodeJoin
	NodeGroupBy
	NodeOrderBy
	NodeLimit
)

// Node is an immutable piece of a query tree. Nodes are never modified once
// built; builders copy what they extend.
type Node interface {
	Type() NodeType
	Accept(v Visitor) error
	Fingerprint() uint64
}

// IsStatement reports whether n is a complete statement that can be rendered on its own.
func IsStatement(n Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case NodeSelect, NodeInsert, NodeUpdate, NodeDelete, NodeCreateTable:
		return true
	}
	return false
}
