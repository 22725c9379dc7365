package executor

import (
	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/database"
)

// Column describes one result column.
type Column struct {
	Name     string
	TypeCode uint32
}

// ResultSet holds the decoded rows of a statement in server order.
type ResultSet struct {
	Columns      []Column
	Rows         []Row
	Tag          string
	RowsAffected int64
}

// Maps returns every row keyed by column name.
func (rs *ResultSet) Maps() []map[string]ast.Value {
	out := make([]map[string]ast.Value, len(rs.Rows))
	for i, r := range rs.Rows {
		out[i] = r.Map()
	}
	return out
}

// Row is one decoded row. Values keep column order; lookups by name use the
// last column of that name.
type Row struct {
	index  *columnIndex
	values []ast.Value
}

type columnIndex struct {
	names []string
	pos   map[string]int
}

func newColumnIndex(fields []database.Field) *columnIndex {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return indexNames(names)
}

func indexNames(names []string) *columnIndex {
	idx := &columnIndex{names: names, pos: make(map[string]int, len(names))}
	for i, n := range names {
		idx.pos[n] = i
	}
	return idx
}

// NewRow builds a row outside of a query, for fakes and tests. columns and
// values must have the same length.
func NewRow(columns []string, values []ast.Value) Row {
	return Row{index: indexNames(columns), values: values}
}

func (r Row) Len() int { return len(r.values) }

// At returns the value of the i-th column.
func (r Row) At(i int) ast.Value { return r.values[i] }

func (r Row) Get(name string) (ast.Value, bool) {
	if r.index == nil {
		return ast.Value{}, false
	}
	i, ok := r.index.pos[name]
	if !ok {
		return ast.Value{}, false
	}
	return r.values[i], true
}

func (r Row) Columns() []string {
	if r.index == nil {
		return nil
	}
	return r.index.names
}

func (r Row) Values() []ast.Value { return r.values }

func (r Row) Map() map[string]ast.Value {
	m := make(map[string]ast.Value, len(r.values))
	for i, name := range r.Columns() {
		m[name] = r.values[i]
	}
	return m
}
