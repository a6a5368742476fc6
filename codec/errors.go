package codec

import (
	"github.com/pkg/errors"
)

var (
	// ErrMalformedTag is returned when an encoded type tag is not part of the closed registry
	// of the family being decoded.
	ErrMalformedTag = errors.New("malformed tag")
	// ErrTruncatedInput is returned when the input ends before a declared count or length is satisfied.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrMalformedInput is returned for values which are well-framed but can't be valid,
	// like a boolean byte other than 0 or 1, an out of range scalar or trailing bytes.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvariantViolation is returned by constructors refusing to build an invalid structure.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrVersionMismatch is returned when a frame's protocol version isn't accepted by the reader.
	ErrVersionMismatch = errors.New("protocol version mismatch")
)

// InvariantViolation returns an ErrInvariantViolation with the given message.
func InvariantViolation(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvariantViolation, format, args...)
}
