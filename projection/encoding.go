package projection

import (
	"github.com/pkg/errors"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/symbol"
)

func Encode(enc *codec.Encoder, p Projection) {
	enc.PutTag(uint64(p.ProjectionType))

	switch p.ProjectionType {
	case ProjectionTypeTopN:
		enc.PutInt32(p.TopN.offset)
		enc.PutInt32(p.TopN.limit)
		symbol.EncodeList(enc, p.TopN.outputs)
		// Unordered is a single zero-length marker.
		enc.PutCount(len(p.TopN.reverseFlags))
		if len(p.TopN.reverseFlags) > 0 {
			for _, reverse := range p.TopN.reverseFlags {
				enc.PutBool(reverse)
			}
			symbol.EncodeList(enc, p.TopN.orderBy)
		}
	case ProjectionTypeGroup:
		symbol.EncodeList(enc, p.Group.keys)
		symbol.EncodeList(enc, p.Group.values)
		enc.PutUvarint(int(p.Group.granularity))
	case ProjectionTypeAggregation:
		symbol.EncodeList(enc, p.Aggregation.aggregations)
	case ProjectionTypeFilter:
		symbol.Encode(enc, p.Filter.query)
		symbol.EncodeList(enc, p.Filter.outputs)
	default:
		panic("unexhaustive projection type match")
	}
}

func EncodeList(enc *codec.Encoder, projections []Projection) {
	enc.PutCount(len(projections))
	for i := range projections {
		Encode(enc, projections[i])
	}
}

// Decode reads a projection written by Encode.
// Projections which decode but break a construction invariant fail with codec.ErrMalformedInput.
func Decode(dec *codec.Decoder) (Projection, error) {
	tag := dec.Tag()
	if err := dec.Err(); err != nil {
		return Projection{}, errors.Wrap(err, "couldn't read projection tag")
	}

	var p Projection
	var err error
	switch ProjectionType(tag) {
	case ProjectionTypeTopN:
		p, err = decodeTopN(dec)
	case ProjectionTypeGroup:
		p, err = decodeGroup(dec)
	case ProjectionTypeAggregation:
		p, err = decodeAggregation(dec)
	case ProjectionTypeFilter:
		p, err = decodeFilter(dec)
	default:
		return Projection{}, dec.Fail(errors.Wrapf(codec.ErrMalformedTag, "unknown projection tag %d", tag))
	}
	if err != nil {
		return Projection{}, errors.Wrapf(err, "couldn't decode %s projection", ProjectionType(tag))
	}
	return p, nil
}

func decodeTopN(dec *codec.Decoder) (Projection, error) {
	offset := dec.Int32()
	limit := dec.Int32()
	if err := dec.Err(); err != nil {
		return Projection{}, err
	}
	outputs, err := symbol.DecodeList(dec)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode outputs")
	}

	n := dec.Count()
	if err := dec.Err(); err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode ordering")
	}
	var orderBy []symbol.Symbol
	var reverseFlags []bool
	if n > 0 {
		reverseFlags = make([]bool, n)
		for i := range reverseFlags {
			reverseFlags[i] = dec.Bool()
		}
		if err := dec.Err(); err != nil {
			return Projection{}, errors.Wrap(err, "couldn't decode reverse flags")
		}
		orderBy, err = symbol.DecodeList(dec)
		if err != nil {
			return Projection{}, errors.Wrap(err, "couldn't decode order by")
		}
	}

	return invariant(dec)(NewOrderedTopN(limit, offset, outputs, orderBy, reverseFlags))
}

func decodeGroup(dec *codec.Decoder) (Projection, error) {
	keys, err := symbol.DecodeList(dec)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode keys")
	}
	values, err := symbol.DecodeList(dec)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode values")
	}
	granularity := dec.Uvarint32()
	if err := dec.Err(); err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode granularity")
	}
	return invariant(dec)(NewGroup(keys, values, symbol.RowGranularity(granularity)))
}

func decodeAggregation(dec *codec.Decoder) (Projection, error) {
	aggregations, err := symbol.DecodeList(dec)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode aggregations")
	}
	return invariant(dec)(NewAggregation(aggregations))
}

func decodeFilter(dec *codec.Decoder) (Projection, error) {
	query, err := symbol.Decode(dec)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode query")
	}
	outputs, err := symbol.DecodeList(dec)
	if err != nil {
		return Projection{}, errors.Wrap(err, "couldn't decode outputs")
	}
	return invariant(dec)(NewFilter(query, outputs))
}

// invariant turns a construction failure of decoded fields into a decoder failure.
func invariant(dec *codec.Decoder) func(Projection, error) (Projection, error) {
	return func(p Projection, err error) (Projection, error) {
		if err != nil {
			return Projection{}, dec.Fail(errors.Wrapf(codec.ErrMalformedInput, "%s", err))
		}
		return p, nil
	}
}

func DecodeList(dec *codec.Decoder) ([]Projection, error) {
	n := dec.Count()
	if err := dec.Err(); err != nil {
		return nil, err
	}
	out := make([]Projection, n)
	for i := range out {
		p, err := Decode(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't decode projection with index %d", i)
		}
		out[i] = p
	}
	return out, nil
}

func Marshal(p Projection) []byte {
	enc := codec.NewEncoder()
	Encode(enc, p)
	return enc.Bytes()
}

// Unmarshal decodes a single projection, which must span all of data.
func Unmarshal(data []byte, opts ...codec.Option) (Projection, error) {
	dec := codec.NewDecoder(data, opts...)
	p, err := Decode(dec)
	if err != nil {
		return Projection{}, err
	}
	if err := dec.Finish(); err != nil {
		return Projection{}, err
	}
	return p, nil
}
