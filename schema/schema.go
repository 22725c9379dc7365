// Package schema maps Go structs to tables: it derives table and column
// names, builds CREATE TABLE statements and insert/update queries from
// struct values, and scans result rows back into structs.
package schema

import (
	"fmt"
	"reflect"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 256

// TableNamer lets a model choose its own table name.
type TableNamer interface {
	TableName() string
}

// Field is one mapped struct field.
type Field struct {
	Name   string
	Column string
	Index  []int
	Type   reflect.Type
	Tag    *Tag
	// JSON fields are encoded as a JSON document.
	JSON   bool
}

// Nullable reports whether the column accepts NULL.
func (f *Field) Nullable() bool {
	if f.Tag.Primary || f.Tag.NotNull {
		return false
	}
	if f.JSON && hasNil(f.Type) {
		return true
	}
	return f.Tag.Null || f.Type.Kind() == reflect.Ptr || isNullWrapper(f.Type)
}

// Model is the mapping of one struct type.
type Model struct {
	Type       reflect.Type
	Table      string
	Fields     []*Field
	PrimaryKey *Field

	byColumn map[string]*Field
}

// Field returns the field mapped to column.
func (m *Model) Field(column string) (*Field, bool) {
	f, ok := m.byColumn[column]
	return f, ok
}

func (m *Model) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Context holds the naming strategy and the cache of parsed models.
// It is safe for concurrent use.
type Context struct {
	naming     NamingStrategy
	tagName    string
	generators *GeneratorRegistry
	now        func() time.Time
	models     *lru.Cache[reflect.Type, *Model]
}

type Option func(*Context)

func WithNamingStrategy(s NamingStrategy) Option {
	return func(c *Context) { c.naming = s }
}

// WithTagName reads mappings from a struct tag other than `db`.
func WithTagName(name string) Option {
	return func(c *Context) { c.tagName = name }
}

func WithGenerators(r *GeneratorRegistry) Option {
	return func(c *Context) { c.generators = r }
}

// WithClock replaces time.Now for auto_now fields.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// WithCacheSize bounds the number of struct types kept parsed.
func WithCacheSize(size int) Option {
	return func(c *Context) {
		if cache, err := lru.New[reflect.Type, *Model](size); err == nil {
			c.models = cache
		}
	}
}

func New(opts ...Option) *Context {
	c := &Context{
		naming:     DefaultNamingStrategy(),
		tagName:    "db",
		generators: NewGeneratorRegistry(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.models == nil {
		c.models, _ = lru.New[reflect.Type, *Model](defaultCacheSize)
	}
	return c
}

func (c *Context) Generators() *GeneratorRegistry { return c.generators }

// Model returns the mapping for v, which may be a struct, a pointer to one,
// or a reflect.Type of either.
func (c *Context) Model(v any) (*Model, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %v", t)
	}
	if m, ok := c.models.Get(t); ok {
		return m, nil
	}
	m, err := c.parse(t)
	if err != nil {
		return nil, err
	}
	c.models.Add(t, m)
	return m, nil
}

func (c *Context) parse(t reflect.Type) (*Model, error) {
	m := &Model{Type: t, Table: c.naming.TableName(t.Name()), byColumn: make(map[string]*Field)}
	if namer, ok := reflect.New(t).Interface().(TableNamer); ok {
		m.Table = namer.TableName()
	}
	if err := c.collect(m, t, nil); err != nil {
		return nil, fmt.Errorf("model %s: %w", t.Name(), err)
	}
	if len(m.Fields) == 0 {
		return nil, fmt.Errorf("model %s has no mapped fields", t.Name())
	}
	// An untagged integer id column becomes an auto-increment primary key.
	if f, ok := m.byColumn["id"]; ok && m.PrimaryKey == nil {
		f.Tag.Primary = true
		f.Tag.Auto = f.Tag.Generator == "" && isInteger(f.Type)
		m.PrimaryKey = f
	}
	return m, nil
}

// collect walks exported fields, flattening untagged embedded structs.
func (c *Context) collect(m *Model, t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		raw, tagged := sf.Tag.Lookup(c.tagName)
		if sf.Anonymous && !tagged && sf.Type.Kind() == reflect.Struct && !isLeafStruct(sf.Type) {
			if err := c.collect(m, sf.Type, append(index[:len(index):len(index)], i)); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		tag, err := ParseTag(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if tag.Skip {
			continue
		}
		f := &Field{
			Name:   sf.Name,
			Column: tag.Column,
			Index:  append(index[:len(index):len(index)], i),
			Type:   sf.Type,
			Tag:    tag,
			JSON:   tag.JSON || tag.Dimension == 0 && isJSONType(sf.Type),
		}
		if f.Column == "" {
			f.Column = c.naming.ColumnName(sf.Name)
		}
		if _, dup := m.byColumn[f.Column]; dup {
			return fmt.Errorf("column %q mapped twice", f.Column)
		}
		if tag.Generator != "" {
			if _, ok := c.generators.Get(tag.Generator); !ok {
				return fmt.Errorf("field %s: unknown ID generator %q", sf.Name, tag.Generator)
			}
		}
		if tag.Primary {
			if m.PrimaryKey != nil {
				return fmt.Errorf("more than one primary key")
			}
			m.PrimaryKey = f
		}
		m.byColumn[f.Column] = f
		m.Fields = append(m.Fields, f)
	}
	return nil
}

var defaultContext = New()

// Default returns the package-level Context used by the top-level helpers.
func Default() *Context { return defaultContext }
