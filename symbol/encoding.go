package symbol

import (
	"github.com/pkg/errors"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
)

// Encode writes the symbol's tag followed by its fields, recursing depth-first into children.
func Encode(enc *codec.Encoder, s Symbol) {
	enc.PutTag(uint64(s.SymbolType))

	switch s.SymbolType {
	case SymbolTypeReference:
		enc.PutStr(s.Reference.Ident.Schema)
		enc.PutStr(s.Reference.Ident.Table)
		enc.PutStr(s.Reference.Ident.Column)
		enc.PutUvarint(int(s.Reference.Granularity))
		datatype.EncodeType(enc, s.Reference.Type)
	case SymbolTypeLiteral:
		datatype.EncodeValue(enc, s.Literal.Value)
	case SymbolTypeFunction:
		encodeFunctionInfo(enc, s.Function.Info)
		EncodeList(enc, s.Function.Arguments)
	case SymbolTypeAggregation:
		encodeFunctionInfo(enc, s.Aggregation.Info)
		enc.PutByte(byte(s.Aggregation.fromStep))
		enc.PutByte(byte(s.Aggregation.toStep))
		EncodeList(enc, s.Aggregation.Inputs)
	case SymbolTypeInputColumn:
		enc.PutUvarint(s.InputColumn.Index)
		datatype.EncodeType(enc, s.InputColumn.Type)
	default:
		panic("unexhaustive symbol type match")
	}
}

func encodeFunctionInfo(enc *codec.Encoder, info FunctionInfo) {
	enc.PutStr(info.Ident.Name)
	datatype.EncodeTypes(enc, info.Ident.ArgumentTypes)
	datatype.EncodeType(enc, info.ReturnType)
}

// EncodeList writes a count-prefixed list of symbols.
func EncodeList(enc *codec.Encoder, symbols []Symbol) {
	enc.PutCount(len(symbols))
	for i := range symbols {
		Encode(enc, symbols[i])
	}
}

// Decode reads a symbol written by Encode.
// Tags outside of the symbol registry fail with codec.ErrMalformedTag.
func Decode(dec *codec.Decoder) (Symbol, error) {
	if !dec.Enter() {
		dec.Leave()
		return Symbol{}, dec.Err()
	}
	defer dec.Leave()

	tag := dec.Tag()
	if err := dec.Err(); err != nil {
		return Symbol{}, errors.Wrap(err, "couldn't read symbol tag")
	}

	switch SymbolType(tag) {
	case SymbolTypeReference:
		ref := &Reference{}
		ref.Ident.Schema = dec.Str()
		ref.Ident.Table = dec.Str()
		ref.Ident.Column = dec.Str()
		granularity := dec.Uvarint64()
		if err := dec.Err(); err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode reference")
		}
		if granularity >= uint64(granularityCount) {
			return Symbol{}, dec.Fail(errors.Wrapf(codec.ErrMalformedInput, "invalid row granularity %d", granularity))
		}
		ref.Granularity = RowGranularity(granularity)
		t, err := datatype.DecodeType(dec)
		if err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode reference type")
		}
		ref.Type = t
		return Symbol{SymbolType: SymbolTypeReference, Reference: ref}, nil

	case SymbolTypeLiteral:
		value, err := datatype.DecodeValue(dec)
		if err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode literal")
		}
		return Symbol{SymbolType: SymbolTypeLiteral, Literal: &Literal{Value: value}}, nil

	case SymbolTypeFunction:
		info, err := decodeFunctionInfo(dec)
		if err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode function info")
		}
		arguments, err := DecodeList(dec)
		if err != nil {
			return Symbol{}, errors.Wrapf(err, "couldn't decode arguments of function %s", info.Ident.Name)
		}
		return Symbol{SymbolType: SymbolTypeFunction, Function: &Function{Info: info, Arguments: arguments}}, nil

	case SymbolTypeAggregation:
		info, err := decodeFunctionInfo(dec)
		if err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode aggregation info")
		}
		from := AggregationStep(dec.Byte())
		to := AggregationStep(dec.Byte())
		if err := dec.Err(); err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode aggregation steps")
		}
		inputs, err := DecodeList(dec)
		if err != nil {
			return Symbol{}, errors.Wrapf(err, "couldn't decode inputs of aggregation %s", info.Ident.Name)
		}
		s, err := NewAggregation(info, inputs, from, to)
		if err != nil {
			return Symbol{}, dec.Fail(errors.Wrapf(codec.ErrMalformedInput, "invalid aggregation: %s", err))
		}
		return s, nil

	case SymbolTypeInputColumn:
		index := dec.Uvarint32()
		if err := dec.Err(); err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode input column index")
		}
		t, err := datatype.DecodeType(dec)
		if err != nil {
			return Symbol{}, errors.Wrap(err, "couldn't decode input column type")
		}
		return Symbol{SymbolType: SymbolTypeInputColumn, InputColumn: &InputColumn{Index: int(index), Type: t}}, nil
	}

	return Symbol{}, dec.Fail(errors.Wrapf(codec.ErrMalformedTag, "unknown symbol tag %d", tag))
}

func decodeFunctionInfo(dec *codec.Decoder) (FunctionInfo, error) {
	name := dec.Str()
	if err := dec.Err(); err != nil {
		return FunctionInfo{}, err
	}
	argumentTypes, err := datatype.DecodeTypes(dec)
	if err != nil {
		return FunctionInfo{}, errors.Wrap(err, "couldn't decode argument types")
	}
	returnType, err := datatype.DecodeType(dec)
	if err != nil {
		return FunctionInfo{}, errors.Wrap(err, "couldn't decode return type")
	}
	return NewFunctionInfo(name, returnType, argumentTypes...), nil
}

// DecodeList reads a count-prefixed list of symbols.
func DecodeList(dec *codec.Decoder) ([]Symbol, error) {
	n := dec.Count()
	if err := dec.Err(); err != nil {
		return nil, err
	}
	out := make([]Symbol, n)
	for i := range out {
		s, err := Decode(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't decode symbol with index %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// Marshal encodes a single symbol into a fresh buffer.
func Marshal(s Symbol) []byte {
	enc := codec.NewEncoder()
	Encode(enc, s)
	return enc.Bytes()
}

// Unmarshal decodes a single symbol, which must span all of data.
func Unmarshal(data []byte, opts ...codec.Option) (Symbol, error) {
	dec := codec.NewDecoder(data, opts...)
	s, err := Decode(dec)
	if err != nil {
		return Symbol{}, err
	}
	if err := dec.Finish(); err != nil {
		return Symbol{}, err
	}
	return s, nil
}
