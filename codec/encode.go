package codec

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// PgParams is a parameter list in the shape of the extended query protocol.
type PgParams struct {
	Values  [][]byte
	OIDs    []uint32
	Formats []int16
}

// EncodePg encodes values for a Postgres Bind message. Text is sent with the
// unknown OID so the server infers the type from context; bytes go in binary
// form. m must not be shared across goroutines.
func EncodePg(m *pgtype.Map, values []ast.Value) (*PgParams, error) {
	p := &PgParams{
		Values:  make([][]byte, len(values)),
		OIDs:    make([]uint32, len(values)),
		Formats: make([]int16, len(values)),
	}
	for i, v := range values {
		var (
			oid    uint32
			format = TextFormat
		)
		switch v.ValueType {
		case ast.ValueNull:
			continue
		case ast.ValueString:
			p.Values[i] = []byte(v.Val.(string))
			continue
		case ast.ValueBytes:
			oid, format = pgtype.ByteaOID, BinaryFormat
		case ast.ValueInt:
			oid = pgtype.Int8OID
		case ast.ValueFloat:
			oid = pgtype.Float8OID
		case ast.ValueBool:
			oid = pgtype.BoolOID
		case ast.ValueTime:
			oid = pgtype.TimestamptzOID
		default:
			return nil, fmt.Errorf("%w: cannot encode parameter %d of type %T", errs.ErrUnsupportedConstruct, i+1, v.Val)
		}

		buf, err := m.Encode(oid, format, v.Val, nil)
		if err != nil {
			return nil, fmt.Errorf("encode parameter %d: %w", i+1, err)
		}
		// Encode returns nil for SQL NULL; an empty value must stay non-nil.
		if buf == nil {
			buf = []byte{}
		}
		p.Values[i], p.OIDs[i], p.Formats[i] = buf, oid, format
	}
	return p, nil
}

// DriverArgs converts values into database/sql arguments.
func DriverArgs(values []ast.Value) ([]any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		if v.ValueType == ast.ValueInvalid {
			return nil, fmt.Errorf("%w: cannot encode parameter %d of type %T", errs.ErrUnsupportedConstruct, i+1, v.Val)
		}
		args[i] = v.Val
	}
	return args, nil
}

// FromDriver renders a value scanned by database/sql into wire form. declared
// is the code of the column's declared type, or zero when the driver reports
// none, in which case the code is inferred from the value.
func FromDriver(v driver.Value, declared uint32) (raw []byte, code uint32, format int16) {
	pick := func(inferred uint32) uint32 {
		if declared != 0 {
			return declared
		}
		return inferred
	}

	switch x := v.(type) {
	case nil:
		return nil, pick(pgtype.TextOID), TextFormat
	case []byte:
		code = pick(pgtype.ByteaOID)
		if code == pgtype.ByteaOID {
			return x, code, BinaryFormat
		}
		return x, code, TextFormat
	case string:
		return []byte(x), pick(pgtype.TextOID), TextFormat
	case int64:
		return strconv.AppendInt(nil, x, 10), pick(pgtype.Int8OID), TextFormat
	case uint64:
		return strconv.AppendUint(nil, x, 10), pick(pgtype.NumericOID), TextFormat
	case float64:
		return strconv.AppendFloat(nil, x, 'g', -1, 64), pick(pgtype.Float8OID), TextFormat
	case bool:
		return strconv.AppendBool(nil, x), pick(pgtype.BoolOID), TextFormat
	case time.Time:
		code = pick(pgtype.TimestamptzOID)
		if !isTimeCode(code) {
			code = pgtype.TimestamptzOID
		}
		return x.AppendFormat(nil, time.RFC3339Nano), code, TextFormat
	}
	return []byte(fmt.Sprint(v)), pick(pgtype.TextOID), TextFormat
}

func isTimeCode(code uint32) bool {
	return code == pgtype.DateOID || code == pgtype.TimestampOID || code == pgtype.TimestamptzOID
}
