package codec

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

// OIDs pgtype does not name.
const (
	qcharOID   = 18
	xmlOID     = 142
	unknownOID = 705
	moneyOID   = 790
	timetzOID  = 1266
)

// pgtype.Map caches scan plans and is not safe for concurrent use.
var typeMaps = sync.Pool{New: func() any { return pgtype.NewMap() }}

func scanBinary[T any](oid uint32, wrap func(T) (ast.Value, error)) DecodeFunc {
	return func(src []byte) (ast.Value, error) {
		m := typeMaps.Get().(*pgtype.Map)
		defer typeMaps.Put(m)

		var dst T
		if err := m.Scan(oid, pgtype.BinaryFormatCode, src, &dst); err != nil {
			return ast.Value{}, err
		}
		return wrap(dst)
	}
}

func textValue(src []byte) (ast.Value, error) { return ast.String(string(src)), nil }

func boolText(src []byte) (ast.Value, error) {
	switch strings.ToLower(string(src)) {
	case "t", "true", "1", "y", "yes", "on":
		return ast.Bool(true), nil
	case "f", "false", "0", "n", "no", "off":
		return ast.Bool(false), nil
	}
	return ast.Value{}, fmt.Errorf("invalid boolean %q", src)
}

func intText(src []byte) (ast.Value, error) {
	i, err := strconv.ParseInt(string(src), 10, 64)
	if err != nil {
		return ast.Value{}, err
	}
	return ast.Int(i), nil
}

func floatText(src []byte) (ast.Value, error) {
	f, err := strconv.ParseFloat(string(src), 64)
	if err != nil {
		return ast.Value{}, err
	}
	return ast.Float(f), nil
}

func byteaText(src []byte) (ast.Value, error) {
	if len(src) >= 2 && src[0] == '\\' && src[1] == 'x' {
		b, err := hex.DecodeString(string(src[2:]))
		if err != nil {
			return ast.Value{}, err
		}
		return ast.Bytes(b), nil
	}
	return rawBytes(src)
}

func rawBytes(src []byte) (ast.Value, error) {
	b := make([]byte, len(src))
	copy(b, src)
	return ast.Bytes(b), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// timeText parses the timestamp forms servers and drivers produce. Infinite
// timestamps have no time.Time form and are kept as text.
func timeText(src []byte) (ast.Value, error) {
	s := string(src)
	if s == "infinity" || s == "-infinity" {
		return ast.String(s), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ast.Time(t), nil
		}
	}
	return ast.Value{}, fmt.Errorf("invalid timestamp %q", s)
}

func uuidText(src []byte) (ast.Value, error) {
	u, err := uuid.ParseBytes(src)
	if err != nil {
		return ast.Value{}, err
	}
	return ast.String(u.String()), nil
}

func jsonbBinary(src []byte) (ast.Value, error) {
	if len(src) == 0 || src[0] != 1 {
		return ast.Value{}, fmt.Errorf("unknown jsonb version")
	}
	return ast.String(string(src[1:])), nil
}

var (
	intBinary = func(oid uint32) DecodeFunc {
		return scanBinary(oid, func(i int64) (ast.Value, error) { return ast.Int(i), nil })
	}
	floatBinary = func(oid uint32) DecodeFunc {
		return scanBinary(oid, func(f float64) (ast.Value, error) { return ast.Float(f), nil })
	}
	timeBinary = func(oid uint32) DecodeFunc {
		return scanBinary(oid, func(t time.Time) (ast.Value, error) { return ast.Time(t), nil })
	}
	boolBinary = scanBinary(pgtype.BoolOID, func(b bool) (ast.Value, error) { return ast.Bool(b), nil })
	uuidBinary = scanBinary(pgtype.UUIDOID, func(u pgtype.UUID) (ast.Value, error) {
		return ast.String(uuid.UUID(u.Bytes).String()), nil
	})
	numericBinary = scanBinary(pgtype.NumericOID, func(n pgtype.Numeric) (ast.Value, error) {
		v, err := n.Value()
		if err != nil {
			return ast.Value{}, err
		}
		if v == nil {
			return ast.Null, nil
		}
		return ast.String(v.(string)), nil
	})
)

func stringType(name string) Decoder {
	return Decoder{Name: name, Text: textValue, Binary: textValue}
}

var builtins = map[uint32]Decoder{
	pgtype.BoolOID:        {Name: "bool", Text: boolText, Binary: boolBinary},
	pgtype.ByteaOID:       {Name: "bytea", Text: byteaText, Binary: rawBytes},
	pgtype.Int2OID:        {Name: "int2", Text: intText, Binary: intBinary(pgtype.Int2OID)},
	pgtype.Int4OID:        {Name: "int4", Text: intText, Binary: intBinary(pgtype.Int4OID)},
	pgtype.Int8OID:        {Name: "int8", Text: intText, Binary: intBinary(pgtype.Int8OID)},
	pgtype.OIDOID:         {Name: "oid", Text: intText},
	pgtype.Float4OID:      {Name: "float4", Text: floatText, Binary: floatBinary(pgtype.Float4OID)},
	pgtype.Float8OID:      {Name: "float8", Text: floatText, Binary: floatBinary(pgtype.Float8OID)},
	pgtype.NumericOID:     {Name: "numeric", Text: textValue, Binary: numericBinary},
	pgtype.TextOID:        stringType("text"),
	pgtype.VarcharOID:     stringType("varchar"),
	pgtype.BPCharOID:      stringType("bpchar"),
	pgtype.NameOID:        stringType("name"),
	qcharOID:              stringType("char"),
	pgtype.JSONOID:        stringType("json"),
	pgtype.JSONBOID:       {Name: "jsonb", Text: textValue, Binary: jsonbBinary},
	unknownOID:            stringType("unknown"),
	xmlOID:                {Name: "xml", Text: textValue},
	moneyOID:              {Name: "money", Text: textValue},
	pgtype.UUIDOID:        {Name: "uuid", Text: uuidText, Binary: uuidBinary},
	pgtype.DateOID:        {Name: "date", Text: timeText, Binary: timeBinary(pgtype.DateOID)},
	pgtype.TimestampOID:   {Name: "timestamp", Text: timeText, Binary: timeBinary(pgtype.TimestampOID)},
	pgtype.TimestamptzOID: {Name: "timestamptz", Text: timeText, Binary: timeBinary(pgtype.TimestamptzOID)},
	pgtype.TimeOID:        {Name: "time", Text: textValue},
	timetzOID:             {Name: "timetz", Text: textValue},
	pgtype.IntervalOID:    {Name: "interval", Text: textValue},
	pgtype.InetOID:        {Name: "inet", Text: textValue},
	pgtype.CIDROID:        {Name: "cidr", Text: textValue},
	pgtype.MacaddrOID:     {Name: "macaddr", Text: textValue},
}
