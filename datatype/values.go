package datatype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cube2222/distplan/codec"
)

// Value is a literal value. Only the field matching Type is meaningful:
// Int for all integral types (timestamps as unix millis), Float for float and double,
// Str for strings and ips, Array for arrays.
type Value struct {
	Type    Type
	Boolean bool
	Int     int64
	Float   float64
	Str     string
	Array   []Value
}

func NewNull() Value {
	return Value{Type: Null}
}

func NewBoolean(value bool) Value {
	return Value{Type: Boolean, Boolean: value}
}

func NewInteger(value int32) Value {
	return Value{Type: Integer, Int: int64(value)}
}

func NewLong(value int64) Value {
	return Value{Type: Long, Int: value}
}

func NewDouble(value float64) Value {
	return Value{Type: Double, Float: value}
}

func NewString(value string) Value {
	return Value{Type: String, Str: value}
}

func NewTimestamp(value time.Time) Value {
	return Value{Type: Timestamp, Int: value.UnixMilli()}
}

// NewArray creates an array literal. All elements must be of the element type.
func NewArray(element Type, values []Value) (Value, error) {
	for i := range values {
		if !values[i].Type.Equal(element) && values[i].Type.TypeID != TypeIDNull {
			return Value{}, codec.InvariantViolation("array element %d is %s, expected %s", i, values[i].Type, element)
		}
	}
	elements := make([]Value, len(values))
	copy(elements, values)
	return Value{Type: ArrayOf(element), Array: elements}, nil
}

// Validate checks the value can be represented as a literal.
func (value Value) Validate() error {
	switch value.Type.TypeID {
	case TypeIDObject, TypeIDNotSupported:
		return codec.InvariantViolation("%s values can't be literals", value.Type)
	case TypeIDArray:
		for i := range value.Array {
			if err := value.Array[i].Validate(); err != nil {
				return errors.Wrapf(err, "invalid array element %d", i)
			}
		}
	default:
		if value.Type.TypeID < 0 || value.Type.TypeID >= typeIDCount {
			return codec.InvariantViolation("unknown type id %d", int(value.Type.TypeID))
		}
	}
	return nil
}

func (value Value) Equal(other Value) bool {
	if !value.Type.Equal(other.Type) {
		return false
	}

	switch value.Type.TypeID {
	case TypeIDNull:
		return true
	case TypeIDBoolean:
		return value.Boolean == other.Boolean
	case TypeIDByte, TypeIDShort, TypeIDInteger, TypeIDLong, TypeIDTimestamp:
		return value.Int == other.Int
	case TypeIDFloat, TypeIDDouble:
		// Compare bit patterns, so that NaN literals survive a round trip as equal.
		return math.Float64bits(value.Float) == math.Float64bits(other.Float)
	case TypeIDString, TypeIDIP:
		return value.Str == other.Str
	case TypeIDArray:
		if len(value.Array) != len(other.Array) {
			return false
		}
		for i := range value.Array {
			if !value.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (value Value) String() string {
	switch value.Type.TypeID {
	case TypeIDNull:
		return "NULL"
	case TypeIDBoolean:
		return strconv.FormatBool(value.Boolean)
	case TypeIDByte, TypeIDShort, TypeIDInteger, TypeIDLong:
		return strconv.FormatInt(value.Int, 10)
	case TypeIDTimestamp:
		return time.UnixMilli(value.Int).UTC().Format(time.RFC3339Nano)
	case TypeIDFloat, TypeIDDouble:
		return strconv.FormatFloat(value.Float, 'g', -1, 64)
	case TypeIDString, TypeIDIP:
		return fmt.Sprintf("'%s'", value.Str)
	case TypeIDArray:
		parts := make([]string, len(value.Array))
		for i := range value.Array {
			parts[i] = value.Array[i].String()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("<%s>", value.Type)
}

func EncodeValue(enc *codec.Encoder, value Value) {
	EncodeType(enc, value.Type)
	encodePayload(enc, value)
}

func encodePayload(enc *codec.Encoder, value Value) {
	switch value.Type.TypeID {
	case TypeIDNull:
	case TypeIDBoolean:
		enc.PutBool(value.Boolean)
	case TypeIDByte, TypeIDShort, TypeIDInteger, TypeIDLong, TypeIDTimestamp:
		enc.PutVarint64(value.Int)
	case TypeIDFloat, TypeIDDouble:
		enc.PutFloat64(value.Float)
	case TypeIDString, TypeIDIP:
		enc.PutStr(value.Str)
	case TypeIDArray:
		enc.PutCount(len(value.Array))
		for i := range value.Array {
			// Elements may be null, so each one carries its own type.
			EncodeValue(enc, value.Array[i])
		}
	default:
		panic(fmt.Sprintf("unencodable literal type %s", value.Type))
	}
}

func DecodeValue(dec *codec.Decoder) (Value, error) {
	if !dec.Enter() {
		dec.Leave()
		return Value{}, dec.Err()
	}
	defer dec.Leave()

	t, err := DecodeType(dec)
	if err != nil {
		return Value{}, errors.Wrap(err, "couldn't decode value type")
	}

	value := Value{Type: t}
	switch t.TypeID {
	case TypeIDNull:
	case TypeIDBoolean:
		value.Boolean = dec.Bool()
	case TypeIDByte, TypeIDShort, TypeIDInteger, TypeIDLong, TypeIDTimestamp:
		value.Int = dec.Varint64()
	case TypeIDFloat, TypeIDDouble:
		value.Float = dec.Float64()
	case TypeIDString, TypeIDIP:
		value.Str = dec.Str()
	case TypeIDArray:
		n := dec.Count()
		if err := dec.Err(); err != nil {
			return Value{}, err
		}
		value.Array = make([]Value, n)
		for i := range value.Array {
			element, err := DecodeValue(dec)
			if err != nil {
				return Value{}, errors.Wrapf(err, "couldn't decode array element %d", i)
			}
			value.Array[i] = element
		}
	default:
		return Value{}, dec.Fail(errors.Wrapf(codec.ErrMalformedInput, "%s values can't be literals", t))
	}

	if err := dec.Err(); err != nil {
		return Value{}, err
	}
	return value, nil
}
