package ast

import (
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ValueType tags the kinds of parameter a query can bind.
type ValueType int

const (
	ValueNull ValueType = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueBytes
	ValueTime
	// ValueInvalid marks a Go value that cannot be bound. Rendering fails on it.
	ValueInvalid
)

var valueTypeNames = [...]string{"null", "bool", "int", "float", "string", "bytes", "time", "invalid"}

func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return "ValueType(" + strconv.Itoa(int(t)) + ")"
	}
	return valueTypeNames[t]
}

// Value is a bound parameter. Val always holds the canonical Go type for its
// ValueType: nil, bool, int64, float64, string, []byte or time.Time.
type Value struct {
	Val       any
	ValueType ValueType
}

// Null is the SQL NULL parameter.
var Null = Value{ValueType: ValueNull}

// NewValue normalizes a Go value into a Value. Pointers are dereferenced, nil
// becomes NULL and uuid.UUID is carried as its canonical string form.
func NewValue(val any) *Value {
	v := normalize(val)
	return &v
}

func Int(i int64) Value     { return Value{Val: i, ValueType: ValueInt} }
func Float(f float64) Value { return Value{Val: f, ValueType: ValueFloat} }
func String(s string) Value { return Value{Val: s, ValueType: ValueString} }
func Bool(b bool) Value     { return Value{Val: b, ValueType: ValueBool} }
func Bytes(b []byte) Value  { return Value{Val: b, ValueType: ValueBytes} }
func Time(t time.Time) Value {
	return Value{Val: t, ValueType: ValueTime}
}

func normalize(val any) Value {
	switch x := val.(type) {
	case nil:
		return Null
	case Value:
		return x
	case *Value:
		if x == nil {
			return Null
		}
		return *x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint:
		return fromUint(uint64(x), val)
	case uint64:
		return fromUint(x, val)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []byte:
		if x == nil {
			return Null
		}
		cp := make([]byte, len(x))
		copy(cp, x)
		return Bytes(cp)
	case time.Time:
		return Time(x)
	case uuid.UUID:
		return String(x.String())
	}
	return normalizeReflect(val)
}

func fromUint(u uint64, orig any) Value {
	if u > math.MaxInt64 {
		return Value{Val: orig, ValueType: ValueInvalid}
	}
	return Int(int64(u))
}

// normalizeReflect handles named types and pointers.
func normalizeReflect(val any) Value {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return Null
		}
		return normalize(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUint(rv.Uint(), val)
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return normalize(rv.Bytes())
		}
	}
	return Value{Val: val, ValueType: ValueInvalid}
}

func (v *Value) Type() NodeType           { return NodeValue }
func (v *Value) Accept(vis Visitor) error { return vis.VisitValue(v) }
func (v *Value) Fingerprint() uint64 {
	f := newFingerprinter("val")
	f.num(int(v.ValueType))
	if t, ok := v.Val.(time.Time); ok {
		// The same instant in another zone binds differently.
		f.str(t.Format(time.RFC3339Nano))
		f.str(t.Location().String())
		return f.sum()
	}
	f.str(v.Literal())
	return f.sum()
}

func (v *Value) IsNull() bool { return v.ValueType == ValueNull }

// Literal returns a stable textual form of the value, used for fingerprints
// and diagnostics. It is never spliced into SQL.
func (v *Value) Literal() string {
	switch v.ValueType {
	case ValueNull:
		return "NULL"
	case ValueBool:
		return strconv.FormatBool(v.Val.(bool))
	case ValueInt:
		return strconv.FormatInt(v.Val.(int64), 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Val.(float64), 'g', -1, 64)
	case ValueString:
		return v.Val.(string)
	case ValueBytes:
		return `\x` + hex.EncodeToString(v.Val.([]byte))
	case ValueTime:
		return v.Val.(time.Time).UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%T(%v)", v.Val, v.Val)
}

func (v Value) String() string {
	return v.ValueType.String() + ":" + v.Literal()
}
