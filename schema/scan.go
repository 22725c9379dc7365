package schema

import (
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/executor"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// ScanRow copies the columns of row into the struct ptr points to. Columns
// with no mapped field are ignored, as are fields with no column.
func (c *Context) ScanRow(row executor.Row, ptr any) error {
	sv, err := structValue(ptr)
	if err != nil {
		return err
	}
	m, err := c.Model(sv.Type())
	if err != nil {
		return err
	}
	return scanInto(m, row, sv)
}

// ScanAll appends one element per row of rs to the slice dest points to.
// The element type may be a struct or a pointer to one.
func (c *Context) ScanAll(rs *executor.ResultSet, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("scan destination must be a pointer to a slice, got %T", dest)
	}
	slice := dv.Elem()
	elem := slice.Type().Elem()
	isPtr := elem.Kind() == reflect.Ptr
	base := elem
	if isPtr {
		base = elem.Elem()
	}
	m, err := c.Model(base)
	if err != nil {
		return err
	}

	for i, row := range rs.Rows {
		item := reflect.New(base)
		if err := scanInto(m, row, item.Elem()); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if isPtr {
			slice = reflect.Append(slice, item)
		} else {
			slice = reflect.Append(slice, item.Elem())
		}
	}
	dv.Elem().Set(slice)
	return nil
}

func scanInto(m *Model, row executor.Row, sv reflect.Value) error {
	for i, col := range row.Columns() {
		f, ok := m.Field(col)
		if !ok {
			continue
		}
		dst := sv.FieldByIndex(f.Index)
		var err error
		if f.JSON {
			err = assignJSON(dst, row.At(i))
		} else {
			err = assign(dst, row.At(i))
		}
		if err != nil {
			return fmt.Errorf("column %q into field %s: %w", col, f.Name, err)
		}
	}
	return nil
}

func ScanRow(row executor.Row, ptr any) error { return defaultContext.ScanRow(row, ptr) }

func ScanAll(rs *executor.ResultSet, dest any) error { return defaultContext.ScanAll(rs, dest) }

// assign stores a decoded column value into dst, converting between the
// canonical value kinds and the field's Go type.
func assign(dst reflect.Value, v ast.Value) error {
	if dst.Kind() == reflect.Ptr {
		if v.ValueType == ast.ValueNull {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), v)
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(v.Val)
	}
	if v.ValueType == ast.ValueNull {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	return assignGo(dst, v.Val)
}

// assignGo stores a Go value of one of the canonical kinds, or a value
// directly assignable to dst.
func assignGo(dst reflect.Value, val any) error {
	src := reflect.ValueOf(val)
	if src.IsValid() && src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if dst.Kind() == reflect.Ptr && val != nil {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assignGo(dst.Elem(), val)
	}

	switch x := val.(type) {
	case int64:
		return setInt(dst, x)
	case bool:
		switch {
		case dst.Kind() == reflect.Bool:
			dst.SetBool(x)
			return nil
		case isInteger(dst.Type()):
			var n int64
			if x {
				n = 1
			}
			return setInt(dst, n)
		}
	case float64:
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(x)
			return nil
		}
		if isInteger(dst.Type()) && x == math.Trunc(x) && math.Abs(x) < 1<<63 {
			return setInt(dst, int64(x))
		}
	case string:
		switch {
		case dst.Kind() == reflect.String:
			dst.SetString(x)
			return nil
		case dst.Type() == timeType:
			t, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8:
			dst.SetBytes([]byte(x))
			return nil
		}
	case []byte:
		switch {
		case dst.Kind() == reflect.String:
			dst.SetString(string(x))
			return nil
		case dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8:
			dst.SetBytes(append([]byte(nil), x...))
			return nil
		}
	case fmt.Stringer:
		if dst.Kind() == reflect.String {
			dst.SetString(x.String())
			return nil
		}
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(val)
	}
	return fmt.Errorf("cannot store %T in %s", val, dst.Type())
}

func setInt(dst reflect.Value, n int64) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(float64(n))
	case reflect.Bool:
		dst.SetBool(n != 0)
	default:
		return fmt.Errorf("cannot store int64 in %s", dst.Type())
	}
	return nil
}
