package codec

import (
	"math"

	"github.com/google/uuid"
	"github.com/prometheus/prometheus/tsdb/encoding"
)

// Encoder extends encoding.Encbuf with the primitives of the plan wire format.
// The zero value is ready to use.
type Encoder struct {
	encoding.Encbuf
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// PutTag writes a variant type tag.
func (e *Encoder) PutTag(tag uint64) {
	e.PutUvarint64(tag)
}

// PutCount writes the element count of a list. Negative counts are a programmer error.
func (e *Encoder) PutCount(n int) {
	if n < 0 {
		panic("negative list count")
	}
	e.PutUvarint(n)
}

// PutBool writes a boolean as a single byte.
func (e *Encoder) PutBool(b bool) {
	if b {
		e.PutByte(1)
	} else {
		e.PutByte(0)
	}
}

// PutInt32 writes a 32-bit integer as the unsigned varint of its bit pattern,
// so -1 takes five bytes and small non-negative values take one.
func (e *Encoder) PutInt32(x int32) {
	e.PutUvarint32(uint32(x))
}

func (e *Encoder) PutFloat64(x float64) {
	e.PutBE64(math.Float64bits(x))
}

// PutStr writes a length-prefixed UTF-8 string.
func (e *Encoder) PutStr(s string) {
	e.PutUvarintStr(s)
}

func (e *Encoder) PutBytes(b []byte) {
	e.B = append(e.B, b...)
}

// PutUUID writes the 128 bits of id in their canonical byte order.
func (e *Encoder) PutUUID(id uuid.UUID) {
	e.PutBytes(id[:])
}

// PutStrings writes a count-prefixed list of strings.
func (e *Encoder) PutStrings(values []string) {
	e.PutCount(len(values))
	for _, v := range values {
		e.PutStr(v)
	}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte {
	return e.Get()
}
