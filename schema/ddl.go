package schema

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/query"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	uuidType     = reflect.TypeOf(uuid.UUID{})
	bytesType    = reflect.TypeOf([]byte(nil))
	nullWrappers = map[reflect.Type]ast.ValueType{
		reflect.TypeOf(sql.NullString{}):  ast.ValueString,
		reflect.TypeOf(sql.NullInt64{}):   ast.ValueInt,
		reflect.TypeOf(sql.NullInt32{}):   ast.ValueInt,
		reflect.TypeOf(sql.NullInt16{}):   ast.ValueInt,
		reflect.TypeOf(sql.NullFloat64{}): ast.ValueFloat,
		reflect.TypeOf(sql.NullBool{}):    ast.ValueBool,
		reflect.TypeOf(sql.NullTime{}):    ast.ValueTime,
		reflect.TypeOf(sql.NullByte{}):    ast.ValueInt,
		reflect.TypeOf(uuid.NullUUID{}):   ast.ValueString,
	}
)

func isNullWrapper(t reflect.Type) bool {
	_, ok := nullWrappers[t]
	return ok
}

// isLeafStruct reports struct types mapped to a single column.
func isLeafStruct(t reflect.Type) bool {
	return t == timeType || isNullWrapper(t)
}

func isInteger(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// dataType derives the column type of f from its tag and Go type.
func dataType(f *Field) (*ast.DataType, error) {
	t := f.Type
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if f.Tag.Dimension > 0 {
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array || t.Elem().Kind() != reflect.Float32 {
			return nil, fmt.Errorf("%w: field %s: vectors must be []float32", errs.ErrUnsupportedConstruct, f.Name)
		}
		return &ast.DataType{Kind: ast.TypeVector, Dimension: f.Tag.Dimension}, nil
	}
	if f.JSON {
		return &ast.DataType{Kind: ast.TypeJSON, Name: strings.ToUpper(f.Tag.Type), Value: ast.ValueString}, nil
	}

	dt := &ast.DataType{Name: strings.ToUpper(f.Tag.Type), Size: f.Tag.Size}
	switch {
	case t == timeType:
		dt.Value = ast.ValueTime
	case t == uuidType:
		dt.Value = ast.ValueString
		if dt.Size == 0 {
			dt.Size = 36
		}
	case t == bytesType || t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		dt.Value = ast.ValueBytes
	case isNullWrapper(t):
		dt.Value = nullWrappers[t]
	case isInteger(t):
		dt.Value = ast.ValueInt
	default:
		switch t.Kind() {
		case reflect.Bool:
			dt.Value = ast.ValueBool
		case reflect.Float32, reflect.Float64:
			dt.Value = ast.ValueFloat
		case reflect.String:
			dt.Value = ast.ValueString
		default:
			if dt.Name == "" {
				return nil, fmt.Errorf("%w: field %s of type %s needs an explicit type", errs.ErrUnsupportedConstruct, f.Name, f.Type)
			}
		}
	}
	return dt, nil
}

// CreateTable builds the CREATE TABLE statement for model.
func (c *Context) CreateTable(model any, ifNotExists bool) (*ast.CreateTableStmt, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}
	b := query.CreateTable(m.Table)
	if ifNotExists {
		b = b.IfNotExists()
	}
	for _, f := range m.Fields {
		dt, err := dataType(f)
		if err != nil {
			return nil, err
		}
		if f.Tag.Auto && dt.Value != ast.ValueInt {
			return nil, fmt.Errorf("%w: field %s: auto increment needs an integer column", errs.ErrUnsupportedConstruct, f.Name)
		}
		def := &ast.ColumnDef{
			Name:          f.Column,
			Type:          dt,
			PrimaryKey:    f.Tag.Primary,
			AutoIncrement: f.Tag.Auto,
			Unique:        f.Tag.Unique && !f.Tag.Primary,
			NotNull:       !f.Nullable(),
		}
		if f.Tag.ForeignKey != "" {
			table, col := f.Tag.references()
			def.References = &ast.ForeignKeyRef{Table: table, Columns: []string{col}, OnDelete: f.Tag.OnDelete}
		}
		b = b.ColumnDef(def)
	}
	return b.Stmt(), nil
}

// CreateTable builds the CREATE TABLE statement for model with the default
// Context.
func CreateTable(model any, ifNotExists bool) (*ast.CreateTableStmt, error) {
	return defaultContext.CreateTable(model, ifNotExists)
}
