// Package codec converts between bound parameters and the wire encodings a
// transport speaks. Type codes are Postgres OIDs; transports that report
// declared type names map them onto the same code space.
package codec

import (
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Konsultn-Engineering/postmodel/ast"
	"github.com/Konsultn-Engineering/postmodel/errs"
)

// Wire formats of a column value.
const (
	TextFormat   int16 = pgtype.TextFormatCode
	BinaryFormat int16 = pgtype.BinaryFormatCode
)

// DecodeFunc turns one non-NULL wire value into a Value. src is only valid
// for the duration of the call.
type DecodeFunc func(src []byte) (ast.Value, error)

// Decoder holds the text and binary decoding of one type. Either may be nil.
type Decoder struct {
	Name   string
	Text   DecodeFunc
	Binary DecodeFunc
}

// Registry maps type codes to decoders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[uint32]Decoder
}

// NewRegistry returns a registry holding the built-in decoders.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[uint32]Decoder, len(builtins))}
	for code, d := range builtins {
		r.decoders[code] = d
	}
	return r
}

// Register installs d for code, replacing any previous decoder.
func (r *Registry) Register(code uint32, d Decoder) {
	r.mu.Lock()
	r.decoders[code] = d
	r.mu.Unlock()
}

func (r *Registry) Lookup(code uint32) (Decoder, bool) {
	r.mu.RLock()
	d, ok := r.decoders[code]
	r.mu.RUnlock()
	return d, ok
}

// Decode decodes src received as code in format. A nil src is NULL and
// decodes to ast.Null whatever the type.
func (r *Registry) Decode(code uint32, format int16, src []byte) (ast.Value, error) {
	if src == nil {
		return ast.Null, nil
	}
	d, ok := r.Lookup(code)
	if !ok {
		return ast.Value{}, fmt.Errorf("%w: type code %d", errs.ErrUnsupportedColumnType, code)
	}

	fn := d.Text
	if format == BinaryFormat {
		fn = d.Binary
	}
	if fn == nil {
		return ast.Value{}, fmt.Errorf("%w: %s has no decoder for format %d", errs.ErrUnsupportedColumnType, d.Name, format)
	}

	v, err := fn(src)
	if err != nil {
		return ast.Value{}, fmt.Errorf("decode %s: %w", d.Name, err)
	}
	return v, nil
}
