package codec

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// typeNames maps declared column type names, as database/sql drivers report
// them, onto type codes.
var typeNames = map[string]uint32{
	// Character types
	"CHAR":              pgtype.TextOID,
	"VARCHAR":           pgtype.TextOID,
	"TEXT":              pgtype.TextOID,
	"TINYTEXT":          pgtype.TextOID,
	"MEDIUMTEXT":        pgtype.TextOID,
	"LONGTEXT":          pgtype.TextOID,
	"CLOB":              pgtype.TextOID,
	"NCHAR":             pgtype.TextOID,
	"NVARCHAR":          pgtype.TextOID,
	"NTEXT":             pgtype.TextOID,
	"CHARACTER":         pgtype.TextOID,
	"CHAR VARYING":      pgtype.TextOID,
	"CHARACTER VARYING": pgtype.TextOID,
	"VARYING CHARACTER": pgtype.TextOID,
	"NATIVE CHARACTER":  pgtype.TextOID,
	"NAME":              pgtype.TextOID,
	"BPCHAR":            pgtype.TextOID,
	"ENUM":              pgtype.TextOID,
	"SET":               pgtype.TextOID,

	// Integers
	"TINYINT":            pgtype.Int2OID,
	"SMALLINT":           pgtype.Int2OID,
	"INT2":               pgtype.Int2OID,
	"MEDIUMINT":          pgtype.Int4OID,
	"INT":                pgtype.Int4OID,
	"INT4":               pgtype.Int4OID,
	"INTEGER":            pgtype.Int8OID,
	"BIGINT":             pgtype.Int8OID,
	"INT8":               pgtype.Int8OID,
	"SERIAL":             pgtype.Int4OID,
	"BIGSERIAL":          pgtype.Int8OID,
	"YEAR":               pgtype.Int2OID,
	"OID":                pgtype.OIDOID,
	"UNSIGNED TINYINT":   pgtype.Int2OID,
	"UNSIGNED SMALLINT":  pgtype.Int4OID,
	"UNSIGNED MEDIUMINT": pgtype.Int4OID,
	"UNSIGNED INT":       pgtype.Int8OID,
	"UNSIGNED INTEGER":   pgtype.Int8OID,
	"UNSIGNED BIGINT":    pgtype.NumericOID,
	"UNSIGNED BIG INT":   pgtype.NumericOID,

	// Floating point and exact decimals
	"REAL":             pgtype.Float8OID,
	"FLOAT":            pgtype.Float8OID,
	"FLOAT4":           pgtype.Float4OID,
	"FLOAT8":           pgtype.Float8OID,
	"DOUBLE":           pgtype.Float8OID,
	"DOUBLE PRECISION": pgtype.Float8OID,
	"NUMERIC":          pgtype.NumericOID,
	"DECIMAL":          pgtype.NumericOID,
	"UNSIGNED DECIMAL": pgtype.NumericOID,
	"DEC":              pgtype.NumericOID,
	"FIXED":            pgtype.NumericOID,
	"MONEY":            moneyOID,

	// Boolean
	"BOOLEAN": pgtype.BoolOID,
	"BOOL":    pgtype.BoolOID,
	"BIT":     pgtype.BoolOID,

	// Date and time
	"DATE":        pgtype.DateOID,
	"DATETIME":    pgtype.TimestampOID,
	"TIMESTAMP":   pgtype.TimestampOID,
	"TIMESTAMPTZ": pgtype.TimestamptzOID,
	"TIME":        pgtype.TimeOID,
	"TIMETZ":      timetzOID,
	"INTERVAL":    pgtype.IntervalOID,

	// Binary
	"BINARY":     pgtype.ByteaOID,
	"VARBINARY":  pgtype.ByteaOID,
	"BLOB":       pgtype.ByteaOID,
	"TINYBLOB":   pgtype.ByteaOID,
	"MEDIUMBLOB": pgtype.ByteaOID,
	"LONGBLOB":   pgtype.ByteaOID,
	"BYTEA":      pgtype.ByteaOID,
	"GEOMETRY":   pgtype.ByteaOID,

	// Documents and identifiers
	"JSON":  pgtype.JSONOID,
	"JSONB": pgtype.JSONBOID,
	"XML":   xmlOID,
	"UUID":  pgtype.UUIDOID,

	// Network
	"INET":    pgtype.InetOID,
	"CIDR":    pgtype.CIDROID,
	"MACADDR": pgtype.MacaddrOID,
}

// TypeCodeForName resolves a declared type name such as "VARCHAR(255)" or
// "timestamp with time zone". Unknown names resolve to zero.
func TypeCodeForName(name string) uint32 {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return 0
	}
	if code, ok := typeNames[upper]; ok {
		return code
	}

	// Handle parameterized types like VARCHAR(255), DECIMAL(10,2), etc.
	if paren := strings.IndexByte(upper, '('); paren != -1 {
		if code, ok := typeNames[strings.TrimSpace(upper[:paren])]; ok {
			return code
		}
	}

	switch {
	case strings.HasPrefix(upper, "TIMESTAMP") && strings.Contains(upper, "WITH TIME ZONE") && !strings.Contains(upper, "WITHOUT"):
		return pgtype.TimestamptzOID
	case strings.HasPrefix(upper, "TIMESTAMP"):
		return pgtype.TimestampOID
	case strings.HasPrefix(upper, "TIME"):
		return pgtype.TimeOID
	}
	return 0
}
