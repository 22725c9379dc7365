package ast

type Function struct {
	Name     string
	Args     []Node
	Distinct bool
	Alias    string
}

func NewFunction(name string, args ...Node) *Function {
	return &Function{Name: name, Args: args}
}

func (f *Function) Type() NodeType         { return NodeFunction }
func (f *Function) Accept(v Visitor) error { return v.VisitFunction(f) }
func (f *Function) Fingerprint() uint64 {
	fp := newFingerprinter("func")
	fp.str(f.Name)
	fp.flag(f.Distinct)
	fp.str(f.Alias)
	fp.nodes(f.Args)
	return fp.sum()
}

// As returns a copy of the call with an output alias.
func (f *Function) As(alias string) *Function {
	cp := *f
	cp.Alias = alias
	return &cp
}

// Cast renders CAST(expr AS type). TypeName is emitted verbatim and must come
// from code, not user input. An empty TypeName casts to the dialect's text type.
type Cast struct {
	Expr     Node
	TypeName string
}

func (c *Cast) Type() NodeType         { return NodeCast }
func (c *Cast) Accept(v Visitor) error { return v.VisitCast(c) }
func (c *Cast) Fingerprint() uint64 {
	f := newFingerprinter("cast")
	f.node(c.Expr)
	f.str(c.TypeName)
	return f.sum()
}
