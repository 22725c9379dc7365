package query

import (
	"strings"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

// Col parses "table.column AS alias" into a column reference.
func Col(ref string) *ast.Column {
	table, name, alias := parseColumnString(ref)
	return ast.NewColumn(table, name, alias)
}

// Cols parses several column references.
func Cols(refs ...string) []ast.Node {
	return columnNodes(refs)
}

// Table parses "schema.table AS alias" into a table reference.
func Table(ref string) *ast.Table {
	schema, name, alias := parseColumnString(ref)
	return ast.NewTable(schema, name, alias)
}

// parseColumnString parses "prefix.name AS alias" formats.
// Returns prefix, name, alias (any can be empty)
func parseColumnString(ref string) (prefix, name, alias string) {
	ref = strings.TrimSpace(ref)
	if asIdx := strings.Index(strings.ToUpper(ref), " AS "); asIdx > 0 {
		alias = strings.TrimSpace(ref[asIdx+4:])
		ref = strings.TrimSpace(ref[:asIdx])
	}

	if dotIdx := strings.LastIndex(ref, "."); dotIdx > 0 {
		prefix = ref[:dotIdx]
		name = ref[dotIdx+1:]
	} else {
		name = ref
	}
	return
}
