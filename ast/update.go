package ast

type UpdateStmt struct {
	Table     *Table
	Set       []Assignment
	Where     *WhereClause
	Returning []Node
}

func (u *UpdateStmt) Type() NodeType         { return NodeUpdate }
func (u *UpdateStmt) Accept(v Visitor) error { return v.VisitUpdate(u) }
func (u *UpdateStmt) Fingerprint() uint64 {
	f := newFingerprinter("update")
	if u.Table != nil {
		f.node(u.Table)
	}
	fingerprintAssignments(f, u.Set)
	f.flag(u.Where != nil)
	if u.Where != nil {
		f.node(u.Where)
	}
	f.nodes(u.Returning)
	return f.sum()
}
