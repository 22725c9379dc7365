package ast

type WhereClause struct {
	Condition Node
}

func (w *WhereClause) Type() NodeType         { return NodeWhere }
func (w *WhereClause) Accept(v Visitor) error { return v.VisitWhereClause(w) }
func (w *WhereClause) Fingerprint() uint64 {
	f := newFingerprinter("where")
	f.node(w.Condition)
	return f.sum()
}

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

type JoinClause struct {
	JoinType JoinType
	Table    *Table
	On       Node
}

func (j *JoinClause) Type() NodeType         { return NodeJoin }
func (j *JoinClause) Accept(v Visitor) error { return v.VisitJoinClause(j) }
func (j *JoinClause) Fingerprint() uint64 {
	f := newFingerprinter("join")
	f.num(int(j.JoinType))
	if j.Table != nil {
		f.node(j.Table)
	}
	f.node(j.On)
	return f.sum()
}

type GroupByClause struct {
	Exprs []Node
}

func (g *GroupByClause) Type() NodeType         { return NodeGroupBy }
func (g *GroupByClause) Accept(v Visitor) error { return v.VisitGroupBy(g) }
func (g *GroupByClause) Fingerprint() uint64 {
	f := newFingerprinter("groupby")
	f.nodes(g.Exprs)
	return f.sum()
}

type OrderByClause struct {
	Expr Node
	Desc bool
}

func (o *OrderByClause) Type() NodeType         { return NodeOrderBy }
func (o *OrderByClause) Accept(v Visitor) error { return v.VisitOrderByClause(o) }
func (o *OrderByClause) Fingerprint() uint64 {
	f := newFingerprinter("order")
	f.node(o.Expr)
	f.flag(o.Desc)
	return f.sum()
}

// LimitClause bounds a result. Both values are bound as parameters.
type LimitClause struct {
	Count  *int
	Offset *int
}

func (l *LimitClause) Type() NodeType         { return NodeLimit }
func (l *LimitClause) Accept(v Visitor) error { return v.VisitLimitClause(l) }
func (l *LimitClause) Fingerprint() uint64 {
	f := newFingerprinter("limit")
	f.flag(l.Count != nil)
	if l.Count != nil {
		f.num(*l.Count)
	}
	f.flag(l.Offset != nil)
	if l.Offset != nil {
		f.num(*l.Offset)
	}
	return f.sum()
}
