package ast

type ColumnDef struct {
	Name          string
	Type          *DataType
	NotNull       bool
	Unique        bool
	PrimaryKey    bool
	AutoIncrement bool
	References    *ForeignKeyRef
}

type DataTypeKind int

const (
	TypeBasic DataTypeKind = iota
	TypeVector
	TypeArray
	TypeJSON
)

// DataType names a column type. When Name is empty the dialect picks the
// native type for Value.
type DataType struct {
	Kind      DataTypeKind
	Name      string
	Value     ValueType
	Dimension int // vectors
	Size      int // VARCHAR(n)
	Precision int // DECIMAL(p, s)
	Scale     int
}

type ForeignKeyRef struct {
	Table    string
	Columns  []string
	OnDelete string
	OnUpdate string
}

type CreateTableStmt struct {
	Table       *Table
	Columns     []*ColumnDef
	IfNotExists bool
}

func (c *CreateTableStmt) Type() NodeType         { return NodeCreateTable }
func (c *CreateTableStmt) Accept(v Visitor) error { return v.VisitCreateTable(c) }
func (c *CreateTableStmt) Fingerprint() uint64 {
	f := newFingerprinter("create")
	if c.Table != nil {
		f.node(c.Table)
	}
	f.flag(c.IfNotExists)
	f.num(len(c.Columns))
	for _, col := range c.Columns {
		f.str(col.Name)
		if col.Type != nil {
			f.num(int(col.Type.Kind))
			f.str(col.Type.Name)
			f.num(int(col.Type.Value))
			f.num(col.Type.Dimension)
			f.num(col.Type.Size)
			f.num(col.Type.Precision)
			f.num(col.Type.Scale)
		}
		f.flag(col.NotNull)
		f.flag(col.Unique)
		f.flag(col.PrimaryKey)
		f.flag(col.AutoIncrement)
		if ref := col.References; ref != nil {
			f.str(ref.Table)
			for _, c := range ref.Columns {
				f.str(c)
			}
			f.str(ref.OnDelete)
			f.str(ref.OnUpdate)
		}
	}
	return f.sum()
}
