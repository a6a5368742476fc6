package codec

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/prometheus/tsdb/encoding"
)

const (
	DefaultMaxListLength = 1 << 20
	DefaultMaxDepth      = 256
)

type Option func(options *options)

type options struct {
	maxListLength int
	maxDepth      int
}

func getOptions(opts ...Option) *options {
	defaultOptions := &options{
		maxListLength: DefaultMaxListLength,
		maxDepth:      DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(defaultOptions)
	}

	return defaultOptions
}

// WithMaxListLength bounds the element count any single list may declare.
func WithMaxListLength(n int) Option {
	return func(options *options) {
		if n > 0 {
			options.maxListLength = n
		}
	}
}

// WithMaxDepth bounds how deeply nested trees may be.
func WithMaxDepth(n int) Option {
	return func(options *options) {
		if n > 0 {
			options.maxDepth = n
		}
	}
}

// Decoder reads the plan wire format from an in-memory buffer.
//
// Errors are sticky: after the first failure every read returns a zero value,
// and Err reports the failure. Callers read a group of fields and check Err once.
type Decoder struct {
	buf   encoding.Decbuf
	err   error
	depth int

	maxListLength int
	maxDepth      int
}

func NewDecoder(b []byte, opts ...Option) *Decoder {
	options := getOptions(opts...)
	return &Decoder{
		buf:           encoding.Decbuf{B: b},
		maxListLength: options.maxListLength,
		maxDepth:      options.maxDepth,
	}
}

// Err returns the first error encountered, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Fail records err as the decoder's error, unless one is already recorded,
// and returns the recorded error.
func (d *Decoder) Fail(err error) error {
	if d.err == nil {
		d.err = err
	}
	return d.err
}

// Len returns the number of bytes left to read.
func (d *Decoder) Len() int {
	return d.buf.Len()
}

// Finish verifies the whole input has been consumed.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.buf.Len() > 0 {
		return d.Fail(errors.Wrapf(ErrMalformedInput, "%d trailing bytes", d.buf.Len()))
	}
	return nil
}

func (d *Decoder) check(what string) bool {
	if d.err != nil {
		return false
	}
	if d.buf.E != nil {
		if d.buf.E == encoding.ErrInvalidSize {
			d.err = errors.Wrapf(ErrTruncatedInput, "couldn't read %s", what)
		} else {
			d.err = errors.Wrapf(d.buf.E, "couldn't read %s", what)
		}
		return false
	}
	return true
}

func (d *Decoder) Byte() byte {
	if d.err != nil {
		return 0
	}
	b := d.buf.Byte()
	if !d.check("byte") {
		return 0
	}
	return b
}

func (d *Decoder) Uvarint64() uint64 {
	if d.err != nil {
		return 0
	}
	x := d.buf.Uvarint64()
	if !d.check("uvarint") {
		return 0
	}
	return x
}

func (d *Decoder) Varint64() int64 {
	if d.err != nil {
		return 0
	}
	x := d.buf.Varint64()
	if !d.check("varint") {
		return 0
	}
	return x
}

// Uvarint32 reads an unsigned varint which must fit in 32 bits.
func (d *Decoder) Uvarint32() uint32 {
	x := d.Uvarint64()
	if d.err != nil {
		return 0
	}
	if x > math.MaxUint32 {
		d.Fail(errors.Wrapf(ErrMalformedInput, "uvarint %d overflows 32 bits", x))
		return 0
	}
	return uint32(x)
}

// Int32 reads a 32-bit integer written with Encoder.PutInt32.
func (d *Decoder) Int32() int32 {
	return int32(d.Uvarint32())
}

// Tag reads a variant type tag. Dispatching on it is up to the caller.
func (d *Decoder) Tag() uint64 {
	return d.Uvarint64()
}

// Count reads a list element count. Each element of every list in the protocol takes
// at least one byte, so counts larger than the remaining input are truncation.
func (d *Decoder) Count() int {
	x := d.Uvarint64()
	if d.err != nil {
		return 0
	}
	if x > uint64(d.maxListLength) {
		d.Fail(errors.Wrapf(ErrMalformedInput, "list count %d exceeds maximum %d", x, d.maxListLength))
		return 0
	}
	if x > uint64(d.buf.Len()) {
		d.Fail(errors.Wrapf(ErrTruncatedInput, "list count %d exceeds remaining %d bytes", x, d.buf.Len()))
		return 0
	}
	return int(x)
}

func (d *Decoder) Bool() bool {
	b := d.Byte()
	if d.err != nil {
		return false
	}
	switch b {
	case 0:
		return false
	case 1:
		return true
	}
	d.Fail(errors.Wrapf(ErrMalformedInput, "invalid boolean byte %#x", b))
	return false
}

func (d *Decoder) Float64() float64 {
	if d.err != nil {
		return 0
	}
	x := d.buf.Be64()
	if !d.check("float") {
		return 0
	}
	return math.Float64frombits(x)
}

// Bytes reads n raw bytes. The returned slice aliases the input.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.buf.Len() < n {
		d.Fail(errors.Wrapf(ErrTruncatedInput, "couldn't read %d bytes, %d left", n, d.buf.Len()))
		return nil
	}
	x := d.buf.B[:n]
	d.buf.B = d.buf.B[n:]
	return x
}

// Str reads a length-prefixed string. The string is copied out of the input,
// so it stays valid after the input buffer is reused.
func (d *Decoder) Str() string {
	l := d.Uvarint64()
	if d.err != nil {
		return ""
	}
	if l > uint64(d.buf.Len()) {
		d.Fail(errors.Wrapf(ErrTruncatedInput, "string length %d exceeds remaining %d bytes", l, d.buf.Len()))
		return ""
	}
	return string(d.Bytes(int(l)))
}

func (d *Decoder) UUID() uuid.UUID {
	var id uuid.UUID
	b := d.Bytes(len(id))
	if d.err != nil {
		return uuid.Nil
	}
	copy(id[:], b)
	return id
}

// Strings reads a count-prefixed list of strings.
func (d *Decoder) Strings() []string {
	n := d.Count()
	if d.err != nil {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = d.Str()
	}
	if d.err != nil {
		return nil
	}
	return out
}

// Enter must be called before decoding a nested tree node, paired with Leave.
// It fails the decoder once the configured maximum depth is exceeded.
func (d *Decoder) Enter() bool {
	d.depth++
	if d.depth > d.maxDepth {
		d.Fail(errors.Wrapf(ErrMalformedInput, "nesting depth exceeds maximum %d", d.maxDepth))
		return false
	}
	return d.err == nil
}

func (d *Decoder) Leave() {
	d.depth--
}
