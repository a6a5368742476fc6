package datatype

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/cube2222/distplan/codec"
)

// TypeID identifies a value type on the wire. The numeric values are part of the protocol.
type TypeID int

const (
	TypeIDNull TypeID = iota
	TypeIDNotSupported
	TypeIDBoolean
	TypeIDByte
	TypeIDShort
	TypeIDInteger
	TypeIDLong
	TypeIDFloat
	TypeIDDouble
	TypeIDString
	TypeIDIP
	TypeIDTimestamp
	TypeIDObject
	TypeIDArray

	typeIDCount
)

type Type struct {
	TypeID TypeID
	Array  struct {
		Element *Type
	}
}

var (
	Null         Type = Type{TypeID: TypeIDNull}
	NotSupported Type = Type{TypeID: TypeIDNotSupported}
	Boolean      Type = Type{TypeID: TypeIDBoolean}
	Byte         Type = Type{TypeID: TypeIDByte}
	Short        Type = Type{TypeID: TypeIDShort}
	Integer      Type = Type{TypeID: TypeIDInteger}
	Long         Type = Type{TypeID: TypeIDLong}
	Float        Type = Type{TypeID: TypeIDFloat}
	Double       Type = Type{TypeID: TypeIDDouble}
	String       Type = Type{TypeID: TypeIDString}
	IP           Type = Type{TypeID: TypeIDIP}
	Timestamp    Type = Type{TypeID: TypeIDTimestamp}
	Object       Type = Type{TypeID: TypeIDObject}
)

func ArrayOf(element Type) Type {
	t := Type{TypeID: TypeIDArray}
	t.Array.Element = &element
	return t
}

func (t Type) Equal(other Type) bool {
	if t.TypeID != other.TypeID {
		return false
	}
	if t.TypeID == TypeIDArray {
		return t.Array.Element.Equal(*other.Array.Element)
	}
	return true
}

// IsIntegral reports whether values of the type are carried in Value.Int.
func (t Type) IsIntegral() bool {
	switch t.TypeID {
	case TypeIDByte, TypeIDShort, TypeIDInteger, TypeIDLong, TypeIDTimestamp:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t.TypeID {
	case TypeIDNull:
		return "null"
	case TypeIDNotSupported:
		return "not_supported"
	case TypeIDBoolean:
		return "boolean"
	case TypeIDByte:
		return "byte"
	case TypeIDShort:
		return "short"
	case TypeIDInteger:
		return "integer"
	case TypeIDLong:
		return "long"
	case TypeIDFloat:
		return "float"
	case TypeIDDouble:
		return "double"
	case TypeIDString:
		return "string"
	case TypeIDIP:
		return "ip"
	case TypeIDTimestamp:
		return "timestamp"
	case TypeIDObject:
		return "object"
	case TypeIDArray:
		return fmt.Sprintf("array(%s)", *t.Array.Element)
	}
	return fmt.Sprintf("unknown(%d)", int(t.TypeID))
}

func EncodeType(enc *codec.Encoder, t Type) {
	enc.PutTag(uint64(t.TypeID))
	if t.TypeID == TypeIDArray {
		EncodeType(enc, *t.Array.Element)
	}
}

func DecodeType(dec *codec.Decoder) (Type, error) {
	if !dec.Enter() {
		dec.Leave()
		return Type{}, dec.Err()
	}
	defer dec.Leave()

	tag := dec.Tag()
	if err := dec.Err(); err != nil {
		return Type{}, err
	}
	if tag >= uint64(typeIDCount) {
		return Type{}, dec.Fail(errors.Wrapf(codec.ErrMalformedTag, "unknown type id %d", tag))
	}

	t := Type{TypeID: TypeID(tag)}
	if t.TypeID == TypeIDArray {
		element, err := DecodeType(dec)
		if err != nil {
			return Type{}, errors.Wrap(err, "couldn't decode array element type")
		}
		t.Array.Element = &element
	}
	return t, nil
}

func EncodeTypes(enc *codec.Encoder, types []Type) {
	enc.PutCount(len(types))
	for i := range types {
		EncodeType(enc, types[i])
	}
}

func DecodeTypes(dec *codec.Decoder) ([]Type, error) {
	n := dec.Count()
	if err := dec.Err(); err != nil {
		return nil, err
	}
	out := make([]Type, n)
	for i := range out {
		t, err := DecodeType(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't decode type with index %d", i)
		}
		out[i] = t
	}
	return out, nil
}

func TypesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ParseType is the inverse of Type.String.
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if strings.HasPrefix(name, "array(") && strings.HasSuffix(name, ")") {
		element, err := ParseType(name[len("array(") : len(name)-1])
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(element), nil
	}
	for id := TypeIDNull; id < typeIDCount; id++ {
		if id == TypeIDArray {
			continue
		}
		t := Type{TypeID: id}
		if t.String() == name {
			return t, nil
		}
	}
	return Type{}, errors.Errorf("unknown type '%s'", name)
}
