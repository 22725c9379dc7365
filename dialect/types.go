package dialect

import (
	"fmt"
	"strconv"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// typeMap names the native type for each parameter kind and for JSON
// documents.
type typeMap struct {
	values map[ast.ValueType]string
	json   string
}

func explicitType(dt *ast.DataType) string {
	switch {
	case dt.Precision > 0:
		return dt.Name + "(" + strconv.Itoa(dt.Precision) + ", " + strconv.Itoa(dt.Scale) + ")"
	case dt.Size > 0:
		return dt.Name + "(" + strconv.Itoa(dt.Size) + ")"
	}
	return dt.Name
}

func (m typeMap) resolve(d Dialect, def *ast.ColumnDef) (string, error) {
	dt := def.Type
	if dt == nil {
		return "", fmt.Errorf("%w: column %q has no type", errs.ErrInvalidQueryShape, def.Name)
	}
	switch dt.Kind {
	case ast.TypeVector:
		if !d.Supports(FeatureVector) {
			return "", fmt.Errorf("%w: %s on %s", errs.ErrUnsupportedConstruct, FeatureVector, d.Name())
		}
		return "VECTOR(" + strconv.Itoa(dt.Dimension) + ")", nil
	case ast.TypeArray:
		if !d.Supports(FeatureArrayTypes) {
			return "", fmt.Errorf("%w: %s on %s", errs.ErrUnsupportedConstruct, FeatureArrayTypes, d.Name())
		}
	case ast.TypeJSON:
		if dt.Name == "" {
			return m.json, nil
		}
	}

	name := explicitType(dt)
	if dt.Name == "" {
		if dt.Value == ast.ValueString && dt.Size > 0 {
			name = "VARCHAR(" + strconv.Itoa(dt.Size) + ")"
		} else {
			t, ok := m.values[dt.Value]
			if !ok {
				return "", fmt.Errorf("%w: no %s column type for %s", errs.ErrUnsupportedConstruct, d.Name(), dt.Value)
			}
			name = t
		}
	}
	if dt.Kind == ast.TypeArray {
		name += "[]"
	}
	return name, nil
}
