package ast

// Star selects every column. It is never quoted.
const Star = "*"

type Column struct {
	Table string
	Name  string
	Alias string
}

func NewColumn(table, name, alias string) *Column {
	return &Column{Table: table, Name: name, Alias: alias}
}

func (c *Column) Type() NodeType         { return NodeColumn }
func (c *Column) Accept(v Visitor) error { return v.VisitColumn(c) }
func (c *Column) Fingerprint() uint64 {
	f := newFingerprinter("col")
	f.str(c.Table)
	f.str(c.Name)
	f.str(c.Alias)
	return f.sum()
}

// As returns a copy of the column with a new alias.
func (c *Column) As(alias string) *Column {
	cp := *c
	cp.Alias = alias
	return &cp
}
