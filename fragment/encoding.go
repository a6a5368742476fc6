package fragment

import (
	"github.com/Masterminds/semver"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
	"github.com/cube2222/distplan/projection"
)

// Encode writes the fragment: correlation id, upstream count, execution nodes,
// input types and projections, in that order.
func Encode(enc *codec.Encoder, f *MergeFragment) {
	enc.PutUUID(f.id)
	enc.PutUvarint(f.upstreams)
	enc.PutStrings(f.nodes)
	datatype.EncodeTypes(enc, f.inputTypes)
	projection.EncodeList(enc, f.projections)
}

func Decode(dec *codec.Decoder) (*MergeFragment, error) {
	id := dec.UUID()
	upstreams := dec.Uvarint32()
	nodes := dec.Strings()
	if err := dec.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't decode merge fragment header")
	}
	inputTypes, err := datatype.DecodeTypes(dec)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode input types")
	}
	projections, err := projection.DecodeList(dec)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode projections")
	}
	if id == uuid.Nil {
		return nil, dec.Fail(errors.Wrap(codec.ErrMalformedInput, "missing correlation id"))
	}

	f, err := NewBuilder().
		WithID(id).
		WithUpstreams(int(upstreams)).
		WithNodes(nodes...).
		WithInputTypes(inputTypes...).
		WithProjections(projections...).
		Build()
	if err != nil {
		return nil, dec.Fail(errors.Wrapf(codec.ErrMalformedInput, "invalid merge fragment: %s", err))
	}
	if len(f.nodes) != len(nodes) {
		return nil, dec.Fail(errors.Wrap(codec.ErrMalformedInput, "duplicate execution nodes"))
	}
	return f, nil
}

func Marshal(f *MergeFragment) []byte {
	enc := codec.NewEncoder()
	Encode(enc, f)
	return enc.Bytes()
}

// Unmarshal decodes a fragment, which must span all of data.
func Unmarshal(data []byte, opts ...codec.Option) (*MergeFragment, error) {
	dec := codec.NewDecoder(data, opts...)
	f, err := Decode(dec)
	if err != nil {
		return nil, err
	}
	if err := dec.Finish(); err != nil {
		return nil, err
	}
	return f, nil
}

// MarshalFrame encodes the fragment into a frame stamped with the current protocol version.
func MarshalFrame(f *MergeFragment) []byte {
	return MarshalFrameVersion(f, codec.MustCurrentVersion())
}

func MarshalFrameVersion(f *MergeFragment, version *semver.Version) []byte {
	return codec.WriteFrame(version, Marshal(f))
}

var defaultAccepted = func() *semver.Constraints {
	c, err := semver.NewConstraint(codec.DefaultAcceptedVersions)
	if err != nil {
		panic(err)
	}
	return c
}()

// UnmarshalFrame checks the frame's protocol version against accepted before decoding the fragment.
// A nil constraint accepts the versions compatible with the current one.
func UnmarshalFrame(data []byte, accepted *semver.Constraints, opts ...codec.Option) (*MergeFragment, error) {
	if accepted == nil {
		accepted = defaultAccepted
	}
	frame, err := codec.ReadFrame(data, accepted)
	if err != nil {
		return nil, err
	}
	f, err := Unmarshal(frame.Body, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't decode merge fragment of protocol version %s", frame.Version)
	}
	return f, nil
}
