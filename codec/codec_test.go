package codec

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

func TestDecodeText(t *testing.T) {
	r := NewRegistry()
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)

	tests := []struct {
		name string
		code uint32
		src  string
		want ast.Value
	}{
		{"bool t", pgtype.BoolOID, "t", ast.Bool(true)},
		{"bool false", pgtype.BoolOID, "false", ast.Bool(false)},
		{"bool digit", pgtype.BoolOID, "1", ast.Bool(true)},
		{"int4", pgtype.Int4OID, "-42", ast.Int(-42)},
		{"int8", pgtype.Int8OID, "9223372036854775807", ast.Int(9223372036854775807)},
		{"float8", pgtype.Float8OID, "1.5", ast.Float(1.5)},
		{"numeric keeps precision", pgtype.NumericOID, "12345678901234567890.01", ast.String("12345678901234567890.01")},
		{"text", pgtype.TextOID, "héllo", ast.String("héllo")},
		{"varchar", pgtype.VarcharOID, "", ast.String("")},
		{"bytea hex", pgtype.ByteaOID, `\x00ff`, ast.Bytes([]byte{0x00, 0xff})},
		{"uuid", pgtype.UUIDOID, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", ast.String("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{"timestamptz postgres", pgtype.TimestamptzOID, "2024-03-01 12:30:45.123+00", ast.Time(ts)},
		{"timestamp rfc3339", pgtype.TimestampOID, "2024-03-01T12:30:45.123Z", ast.Time(ts)},
		{"timestamp mysql", pgtype.TimestampOID, "2024-03-01 12:30:45.123", ast.Time(ts)},
		{"date", pgtype.DateOID, "2024-03-01", ast.Time(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))},
		{"infinite timestamp", pgtype.TimestamptzOID, "infinity", ast.String("infinity")},
		{"jsonb", pgtype.JSONBOID, `{"a":1}`, ast.String(`{"a":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Decode(tt.code, TextFormat, []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want.ValueType, got.ValueType)
			if tt.want.ValueType == ast.ValueTime {
				assert.True(t, tt.want.Val.(time.Time).Equal(got.Val.(time.Time)), "got %v", got.Val)
				return
			}
			assert.Equal(t, tt.want.Val, got.Val)
		})
	}
}

func TestDecodeBinary(t *testing.T) {
	r := NewRegistry()
	m := pgtype.NewMap()

	encode := func(oid uint32, v any) []byte {
		buf, err := m.Encode(oid, pgtype.BinaryFormatCode, v, nil)
		require.NoError(t, err)
		return buf
	}
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		code uint32
		src  []byte
		want ast.Value
	}{
		{"int2", pgtype.Int2OID, encode(pgtype.Int2OID, int16(7)), ast.Int(7)},
		{"int4", pgtype.Int4OID, encode(pgtype.Int4OID, int32(-9)), ast.Int(-9)},
		{"int8", pgtype.Int8OID, encode(pgtype.Int8OID, int64(1) << 40), ast.Int(1 << 40)},
		{"float8", pgtype.Float8OID, encode(pgtype.Float8OID, 2.25), ast.Float(2.25)},
		{"bool", pgtype.BoolOID, encode(pgtype.BoolOID, true), ast.Bool(true)},
		{"uuid", pgtype.UUIDOID, encode(pgtype.UUIDOID, pgtype.UUID{Bytes: id, Valid: true}), ast.String(id.String())},
		{"bytea", pgtype.ByteaOID, []byte{1, 2, 3}, ast.Bytes([]byte{1, 2, 3})},
		{"text", pgtype.TextOID, []byte("abc"), ast.String("abc")},
		{"jsonb", pgtype.JSONBOID, append([]byte{1}, `[1]`...), ast.String(`[1]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Decode(tt.code, BinaryFormat, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("timestamptz", func(t *testing.T) {
		got, err := r.Decode(pgtype.TimestamptzOID, BinaryFormat, encode(pgtype.TimestamptzOID, ts))
		require.NoError(t, err)
		require.Equal(t, ast.ValueTime, got.ValueType)
		assert.True(t, ts.Equal(got.Val.(time.Time)))
	})
}

func TestDecodeNullAndUnknown(t *testing.T) {
	r := NewRegistry()

	v, err := r.Decode(999999, TextFormat, nil)
	require.NoError(t, err)
	assert.Equal(t, ast.Null, v)

	_, err = r.Decode(999999, TextFormat, []byte("x"))
	assert.ErrorIs(t, err, errs.ErrUnsupportedColumnType)

	_, err = r.Decode(pgtype.IntervalOID, BinaryFormat, []byte{0})
	assert.ErrorIs(t, err, errs.ErrUnsupportedColumnType)

	_, err = r.Decode(pgtype.Int4OID, TextFormat, []byte("abc"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrUnsupportedColumnType)
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	const citextOID = 50000
	r.Register(citextOID, Decoder{Name: "citext", Text: textValue})

	v, err := r.Decode(citextOID, TextFormat, []byte("Abc"))
	require.NoError(t, err)
	assert.Equal(t, ast.String("Abc"), v)

	_, ok := NewRegistry().Lookup(citextOID)
	assert.False(t, ok, "registries must not share state")
}

func TestDecoderCopiesBytes(t *testing.T) {
	src := []byte{1, 2}
	v, err := NewRegistry().Decode(pgtype.ByteaOID, BinaryFormat, src)
	require.NoError(t, err)
	src[0] = 9
	assert.Equal(t, []byte{1, 2}, v.Val)
}

func TestEncodePg(t *testing.T) {
	m := pgtype.NewMap()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	p, err := EncodePg(m, []ast.Value{
		ast.Null,
		ast.String("abc"),
		ast.Int(42),
		ast.Float(1.5),
		ast.Bool(true),
		ast.Bytes([]byte{7}),
		ast.Time(ts),
		ast.String(""),
	})
	require.NoError(t, err)

	assert.Nil(t, p.Values[0])
	assert.Equal(t, []uint32{0, 0, pgtype.Int8OID, pgtype.Float8OID, pgtype.BoolOID, pgtype.ByteaOID, pgtype.TimestamptzOID, 0}, p.OIDs)
	assert.Equal(t, []int16{0, 0, 0, 0, 0, 1, 0, 0}, p.Formats)
	assert.Equal(t, "abc", string(p.Values[1]))
	assert.Equal(t, "42", string(p.Values[2]))
	assert.Equal(t, "1.5", string(p.Values[3]))
	assert.Equal(t, "t", string(p.Values[4]))
	assert.Equal(t, []byte{7}, p.Values[5])
	assert.NotNil(t, p.Values[7])

	_, err = EncodePg(m, []ast.Value{{Val: struct{}{}, ValueType: ast.ValueInvalid}})
	assert.ErrorIs(t, err, errs.ErrUnsupportedConstruct)
}

func TestDriverArgs(t *testing.T) {
	args, err := DriverArgs([]ast.Value{ast.Null, ast.Int(1), ast.String("x")})
	require.NoError(t, err)
	assert.Equal(t, []any{nil, int64(1), "x"}, args)

	_, err = DriverArgs([]ast.Value{{Val: make(chan int), ValueType: ast.ValueInvalid}})
	assert.ErrorIs(t, err, errs.ErrUnsupportedConstruct)
}

func TestFromDriverRoundTrip(t *testing.T) {
	r := NewRegistry()
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	tests := []struct {
		name     string
		value    any
		declared uint32
		want     ast.Value
	}{
		{"inferred int", int64(3), 0, ast.Int(3)},
		{"inferred float", 0.5, 0, ast.Float(0.5)},
		{"inferred text", "abc", 0, ast.String("abc")},
		{"inferred blob", []byte{1}, 0, ast.Bytes([]byte{1})},
		{"declared text bytes", []byte("abc"), pgtype.TextOID, ast.String("abc")},
		{"declared int bytes", []byte("12"), pgtype.Int8OID, ast.Int(12)},
		{"declared bool int", int64(1), pgtype.BoolOID, ast.Bool(true)},
		{"declared bool", true, pgtype.BoolOID, ast.Bool(true)},
		{"null", nil, pgtype.Int8OID, ast.Null},
		{"large unsigned", uint64(1 << 63), 0, ast.String("9223372036854775808")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, code, format := FromDriver(tt.value, tt.declared)
			got, err := r.Decode(code, format, raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("time", func(t *testing.T) {
		raw, code, format := FromDriver(ts, pgtype.TextOID)
		assert.Equal(t, uint32(pgtype.TimestamptzOID), code)
		got, err := r.Decode(code, format, raw)
		require.NoError(t, err)
		assert.True(t, ts.Equal(got.Val.(time.Time)))
	})
}

func TestTypeCodeForName(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"VARCHAR(255)", pgtype.TextOID},
		{"varchar", pgtype.TextOID},
		{"INTEGER", pgtype.Int8OID},
		{"INT4", pgtype.Int4OID},
		{"DECIMAL(10,2)", pgtype.NumericOID},
		{"UNSIGNED BIGINT", pgtype.NumericOID},
		{"BLOB", pgtype.ByteaOID},
		{"timestamp with time zone", pgtype.TimestamptzOID},
		{"timestamp without time zone", pgtype.TimestampOID},
		{"DATETIME", pgtype.TimestampOID},
		{"BOOLEAN", pgtype.BoolOID},
		{"", 0},
		{"GEOGRAPHY", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeCodeForName(tt.name))
		})
	}
}
