package ast

// GroupedExpr wraps an expression in parentheses, fixing its precedence.
type GroupedExpr struct {
	Expr Node
}

func (g *GroupedExpr) Type() NodeType         { return NodeGroupedExpr }
func (g *GroupedExpr) Accept(v Visitor) error { return v.VisitGroupedExpr(g) }
func (g *GroupedExpr) Fingerprint() uint64 {
	f := newFingerprinter("group")
	f.node(g.Expr)
	return f.sum()
}

type BinaryExpr struct {
	Left     Node
	Operator string
	Right    Node
}

func NewBinaryExpr(left Node, op string, right Node) *BinaryExpr {
	return &BinaryExpr{Left: left, Operator: op, Right: right}
}

func (b *BinaryExpr) Type() NodeType         { return NodeBinaryExpr }
func (b *BinaryExpr) Accept(v Visitor) error { return v.VisitBinaryExpr(b) }
func (b *BinaryExpr) Fingerprint() uint64 {
	f := newFingerprinter("bin")
	f.str(b.Operator)
	f.node(b.Left)
	f.node(b.Right)
	return f.sum()
}

// UnaryExpr is a prefix (NOT x, EXISTS (...)) or postfix (x IS NULL) operator.
type UnaryExpr struct {
	Operator string
	Operand  Node
	IsPrefix bool
}

func (u *UnaryExpr) Type() NodeType         { return NodeUnaryExpr }
func (u *UnaryExpr) Accept(v Visitor) error { return v.VisitUnaryExpr(u) }
func (u *UnaryExpr) Fingerprint() uint64 {
	f := newFingerprinter("unary")
	f.str(u.Operator)
	f.flag(u.IsPrefix)
	f.node(u.Operand)
	return f.sum()
}

type SubqueryExpr struct {
	Stmt Node
}

func (s *SubqueryExpr) Type() NodeType         { return NodeSubqueryExpr }
func (s *SubqueryExpr) Accept(v Visitor) error { return v.VisitSubqueryExpr(s) }
func (s *SubqueryExpr) Fingerprint() uint64 {
	f := newFingerprinter("subquery")
	f.node(s.Stmt)
	return f.sum()
}
