package codec

import (
	"math"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitivesRoundTrip(t *testing.T) {
	id := uuid.New()

	enc := NewEncoder()
	enc.PutTag(3)
	enc.PutCount(0)
	enc.PutCount(300)
	enc.PutBool(true)
	enc.PutBool(false)
	enc.PutInt32(-1)
	enc.PutInt32(10)
	enc.PutVarint64(-42)
	enc.PutFloat64(math.Pi)
	enc.PutStr("zażółć")
	enc.PutStr("")
	enc.PutUUID(id)
	enc.PutStrings([]string{"node1", "node2"})
	// Count needs that many bytes to follow.
	enc.PutBytes(make([]byte, 300))

	dec := NewDecoder(enc.Bytes())
	assert.Equal(t, uint64(3), dec.Tag())
	assert.Equal(t, 0, dec.Count())
	assert.Equal(t, uint64(300), dec.Uvarint64())
	assert.True(t, dec.Bool())
	assert.False(t, dec.Bool())
	assert.Equal(t, int32(-1), dec.Int32())
	assert.Equal(t, int32(10), dec.Int32())
	assert.Equal(t, int64(-42), dec.Varint64())
	assert.Equal(t, math.Pi, dec.Float64())
	assert.Equal(t, "zażółć", dec.Str())
	assert.Equal(t, "", dec.Str())
	assert.Equal(t, id, dec.UUID())
	assert.Equal(t, []string{"node1", "node2"}, dec.Strings())
	dec.Bytes(300)
	require.NoError(t, dec.Finish())
}

func TestNoLimitSentinelTakesFiveBytes(t *testing.T) {
	enc := NewEncoder()
	enc.PutInt32(-1)
	assert.Len(t, enc.Bytes(), 5)

	enc = NewEncoder()
	enc.PutInt32(10)
	assert.Equal(t, []byte{10}, enc.Bytes())
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		read    func(d *Decoder)
		wantErr error
	}{
		{
			name:    "empty input",
			input:   nil,
			read:    func(d *Decoder) { d.Tag() },
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "unterminated varint",
			input:   []byte{0x80, 0x80},
			read:    func(d *Decoder) { d.Uvarint64() },
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "invalid boolean",
			input:   []byte{2},
			read:    func(d *Decoder) { d.Bool() },
			wantErr: ErrMalformedInput,
		},
		{
			name:    "string longer than input",
			input:   []byte{5, 'a', 'b'},
			read:    func(d *Decoder) { d.Str() },
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "count longer than input",
			input:   []byte{3, 1},
			read:    func(d *Decoder) { d.Count() },
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "32 bit overflow",
			input:   []byte{0x80, 0x80, 0x80, 0x80, 0x10},
			read:    func(d *Decoder) { d.Uvarint32() },
			wantErr: ErrMalformedInput,
		},
		{
			name:    "short uuid",
			input:   make([]byte, 15),
			read:    func(d *Decoder) { d.UUID() },
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "trailing bytes",
			input:   []byte{1, 2},
			read:    func(d *Decoder) { d.Byte() },
			wantErr: ErrMalformedInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(tt.input)
			tt.read(dec)
			err := dec.Finish()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDecoderErrorsAreSticky(t *testing.T) {
	dec := NewDecoder([]byte{2, 7})
	dec.Bool()
	require.Error(t, dec.Err())
	assert.Equal(t, uint64(0), dec.Uvarint64())
	assert.Equal(t, "", dec.Str())
	assert.True(t, errors.Is(dec.Err(), ErrMalformedInput))
}

func TestMaxListLength(t *testing.T) {
	enc := NewEncoder()
	enc.PutCount(4)
	enc.PutBytes([]byte{0, 0, 0, 0})

	dec := NewDecoder(enc.Bytes(), WithMaxListLength(3))
	dec.Count()
	assert.True(t, errors.Is(dec.Err(), ErrMalformedInput))

	dec = NewDecoder(enc.Bytes(), WithMaxListLength(4))
	assert.Equal(t, 4, dec.Count())
	assert.NoError(t, dec.Err())
}

func TestMaxDepth(t *testing.T) {
	dec := NewDecoder(nil, WithMaxDepth(2))
	assert.True(t, dec.Enter())
	assert.True(t, dec.Enter())
	assert.False(t, dec.Enter())
	assert.True(t, errors.Is(dec.Err(), ErrMalformedInput))
}

func TestDecodedStringsDoNotAliasInput(t *testing.T) {
	enc := NewEncoder()
	enc.PutStr("abc")
	data := enc.Bytes()

	dec := NewDecoder(data)
	s := dec.Str()
	data[1] = 'x'
	assert.Equal(t, "abc", s)
}

func TestFrame(t *testing.T) {
	body := []byte{1, 2, 3}
	data := WriteFrame(MustCurrentVersion(), body)

	accepted, err := semver.NewConstraint(DefaultAcceptedVersions)
	require.NoError(t, err)

	frame, err := ReadFrame(data, accepted)
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion, frame.Version.String())
	assert.Equal(t, body, frame.Body)

	newer := WriteFrame(semver.MustParse("2.1.0"), body)
	_, err = ReadFrame(newer, accepted)
	assert.True(t, errors.Is(err, ErrVersionMismatch), "got %v", err)

	_, err = ReadFrame(newer, nil)
	assert.NoError(t, err)

	corrupted := append([]byte{}, data...)
	corrupted[0] = 0
	_, err = ReadFrame(corrupted, accepted)
	assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)

	_, err = ReadFrame(data[:1], accepted)
	assert.True(t, errors.Is(err, ErrTruncatedInput), "got %v", err)
}
