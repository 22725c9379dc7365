package ast

// Assignment is one "column = expr" pair. Slices of assignments keep their
// insertion order so rendering is deterministic.
type Assignment struct {
	Column string
	Value  Node
}

func fingerprintAssignments(f fingerprinter, as []Assignment) {
	f.num(len(as))
	for _, a := range as {
		f.str(a.Column)
		f.node(a.Value)
	}
}

// OnConflict describes an upsert. With DoNothing unset, UpdateColumns are
// overwritten from the proposed row and Updates are applied as given.
type OnConflict struct {
	Columns       []string
	DoNothing     bool
	UpdateColumns []string
	Updates       []Assignment
}

type InsertStmt struct {
	Table      *Table
	Columns    []string
	Rows       [][]Node
	OnConflict *OnConflict
	Returning  []Node
}

func (i *InsertStmt) Type() NodeType         { return NodeInsert }
func (i *InsertStmt) Accept(v Visitor) error { return v.VisitInsert(i) }
func (i *InsertStmt) Fingerprint() uint64 {
	f := newFingerprinter("insert")
	if i.Table != nil {
		f.node(i.Table)
	}
	f.num(len(i.Columns))
	for _, c := range i.Columns {
		f.str(c)
	}
	f.num(len(i.Rows))
	for _, row := range i.Rows {
		f.nodes(row)
	}
	f.flag(i.OnConflict != nil)
	if oc := i.OnConflict; oc != nil {
		for _, c := range oc.Columns {
			f.str(c)
		}
		f.flag(oc.DoNothing)
		f.num(len(oc.UpdateColumns))
		for _, c := range oc.UpdateColumns {
			f.str(c)
		}
		fingerprintAssignments(f, oc.Updates)
	}
	f.nodes(i.Returning)
	return f.sum()
}
