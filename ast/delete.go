package ast

type DeleteStmt struct {
	Table     *Table
	Where     *WhereClause
	Returning []Node
}

func (d *DeleteStmt) Type() NodeType         { return NodeDelete }
func (d *DeleteStmt) Accept(v Visitor) error { return v.VisitDelete(d) }
func (d *DeleteStmt) Fingerprint() uint64 {
	f := newFingerprinter("delete")
	if d.Table != nil {
		f.node(d.Table)
	}
	f.flag(d.Where != nil)
	if d.Where != nil {
		f.node(d.Where)
	}
	f.nodes(d.Returning)
	return f.sum()
}
