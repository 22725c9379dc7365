package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// isJSONType reports Go types with no scalar column mapping: maps,
// interfaces, non-byte slices and structs that are not leaf values.
// Types that bind and scan themselves are left alone.
func isJSONType(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Interface {
		pt := reflect.PointerTo(t)
		if pt.Implements(valuerType) || pt.Implements(scannerType) {
			return false
		}
	}
	switch t.Kind() {
	case reflect.Map, reflect.Interface:
		return true
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Struct:
		return !isLeafStruct(t) && t != uuidType
	}
	return false
}

func hasNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}

// jsonValue encodes fv as a JSON document. A nil value binds NULL.
func jsonValue(fv reflect.Value) (any, error) {
	if hasNil(fv.Type()) && fv.IsNil() {
		return nil, nil
	}
	b, err := json.Marshal(fv.Interface())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// assignJSON decodes a JSON document column into dst, replacing its
// previous contents. NULL stores the zero value.
func assignJSON(dst reflect.Value, v ast.Value) error {
	if v.IsNull() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	var data []byte
	switch x := v.Val.(type) {
	case string:
		data = []byte(x)
	case []byte:
		data = x
	default:
		return fmt.Errorf("cannot decode JSON from %T", v.Val)
	}
	target := reflect.New(dst.Type())
	if err := json.Unmarshal(data, target.Interface()); err != nil {
		return err
	}
	dst.Set(target.Elem())
	return nil
}
