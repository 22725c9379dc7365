package ast

// Array is a parenthesized list of parameters, as used by IN.
type Array struct {
	Values []Value
}

func NewArray(values []any) *Array {
	a := &Array{Values: make([]Value, 0, len(values))}
	for _, val := range values {
		a.Values = append(a.Values, normalize(val))
	}
	return a
}

func (a *Array) Type() NodeType         { return NodeArray }
func (a *Array) Accept(v Visitor) error { return v.VisitArray(a) }
func (a *Array) Fingerprint() uint64 {
	f := newFingerprinter("array")
	f.num(len(a.Values))
	for i := range a.Values {
		f.node(&a.Values[i])
	}
	return f.sum()
}
