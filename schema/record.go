package schema

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/query"
)

// structValue returns the addressable struct behind ptr.
func structValue(ptr any) (reflect.Value, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: expected a non-nil pointer to a struct, got %T", errs.ErrInvalidQueryShape, ptr)
	}
	return rv.Elem(), nil
}

// columnValue returns the field value in a form the query builders bind.
func columnValue(f *Field, fv reflect.Value) (any, error) {
	if f.JSON {
		return jsonValue(fv)
	}
	if fv.Kind() == reflect.Ptr && fv.IsNil() {
		return nil, nil
	}
	v := fv.Interface()
	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}
	return v, nil
}

// prepareInsert fills generated IDs and auto_now timestamps on zero fields.
func (c *Context) prepareInsert(m *Model, sv reflect.Value) error {
	now := c.now().UTC()
	for _, f := range m.Fields {
		fv := sv.FieldByIndex(f.Index)
		switch {
		case f.Tag.Generator != "" && fv.IsZero():
			id, err := c.generators.Generate(f.Tag.Generator)
			if err != nil {
				return err
			}
			if err := assignGo(fv, id); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		case f.Tag.AutoNow || f.Tag.AutoNowAdd && fv.IsZero():
			if err := assignGo(fv, now); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// Insert builds an INSERT for the struct ptr points to. Generated IDs and
// timestamps are written back into the struct first. A zero auto-increment
// key is left to the database; read it back with Returning and ScanRow.
func (c *Context) Insert(ptr any) (*query.InsertBuilder, error) {
	sv, err := structValue(ptr)
	if err != nil {
		return nil, err
	}
	m, err := c.Model(sv.Type())
	if err != nil {
		return nil, err
	}
	if err := c.prepareInsert(m, sv); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(m.Fields))
	vals := make([]any, 0, len(m.Fields))
	for _, f := range m.Fields {
		fv := sv.FieldByIndex(f.Index)
		if f.Tag.Auto && fv.IsZero() {
			continue
		}
		v, err := columnValue(f, fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		cols = append(cols, f.Column)
		vals = append(vals, v)
	}
	return query.Insert(m.Table).Columns(cols...).Values(vals...), nil
}

// Update builds an UPDATE of every non-key column, matched on the primary
// key. auto_now fields are refreshed.
func (c *Context) Update(ptr any) (*query.UpdateBuilder, error) {
	sv, err := structValue(ptr)
	if err != nil {
		return nil, err
	}
	m, err := c.Model(sv.Type())
	if err != nil {
		return nil, err
	}
	key, err := keyValue(m, sv)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	b := query.Update(m.Table)
	for _, f := range m.Fields {
		if f == m.PrimaryKey || f.Tag.AutoNowAdd {
			continue
		}
		fv := sv.FieldByIndex(f.Index)
		if f.Tag.AutoNow {
			if err := assignGo(fv, now); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		v, err := columnValue(f, fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		b = b.Set(f.Column, v)
	}
	return b.Where(query.Eq(m.PrimaryKey.Column, key)), nil
}

// Delete builds a DELETE matched on the primary key of the struct.
func (c *Context) Delete(ptr any) (*query.DeleteBuilder, error) {
	sv, err := structValue(ptr)
	if err != nil {
		return nil, err
	}
	m, err := c.Model(sv.Type())
	if err != nil {
		return nil, err
	}
	key, err := keyValue(m, sv)
	if err != nil {
		return nil, err
	}
	return query.Delete(m.Table).Where(query.Eq(m.PrimaryKey.Column, key)), nil
}

func keyValue(m *Model, sv reflect.Value) (any, error) {
	if m.PrimaryKey == nil {
		return nil, fmt.Errorf("%w: model %s has no primary key", errs.ErrInvalidQueryShape, m.Type.Name())
	}
	fv := sv.FieldByIndex(m.PrimaryKey.Index)
	if fv.IsZero() {
		return nil, fmt.Errorf("%w: model %s has a zero primary key", errs.ErrInvalidQueryShape, m.Type.Name())
	}
	return columnValue(m.PrimaryKey, fv)
}

// Select builds a SELECT of every mapped column of model.
func (c *Context) Select(model any) (*query.SelectBuilder, error) {
	m, err := c.Model(model)
	if err != nil {
		return nil, err
	}
	return query.Select(m.Columns()...).From(m.Table), nil
}
