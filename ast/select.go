package ast

type SelectStmt struct {
	Distinct  bool
	Columns   []Node
	From      *Table
	Joins     []*JoinClause
	Where     *WhereClause
	GroupBy   *GroupByClause
	Having    *WhereClause
	OrderBy   []*OrderByClause
	Limit     *LimitClause
	ForUpdate bool
}

func (s *SelectStmt) Type() NodeType         { return NodeSelect }
func (s *SelectStmt) Accept(v Visitor) error { return v.VisitSelect(s) }
func (s *SelectStmt) Fingerprint() uint64 {
	f := newFingerprinter("select")
	f.flag(s.Distinct)
	f.nodes(s.Columns)
	f.flag(s.From != nil)
	if s.From != nil {
		f.node(s.From)
	}
	f.num(len(s.Joins))
	for _, j := range s.Joins {
		f.node(j)
	}
	f.flag(s.Where != nil)
	if s.Where != nil {
		f.node(s.Where)
	}
	f.flag(s.GroupBy != nil)
	if s.GroupBy != nil {
		f.node(s.GroupBy)
	}
	f.flag(s.Having != nil)
	if s.Having != nil {
		f.node(s.Having)
	}
	f.num(len(s.OrderBy))
	for _, o := range s.OrderBy {
		f.node(o)
	}
	f.flag(s.Limit != nil)
	if s.Limit != nil {
		f.node(s.Limit)
	}
	f.flag(s.ForUpdate)
	return f.sum()
}
