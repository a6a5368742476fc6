package fragment

import (
	"sync"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
	"github.com/cube2222/distplan/projection"
	"github.com/cube2222/distplan/symbol"
)

func exampleProjections(t *testing.T) []projection.Projection {
	name := symbol.NewColumn("doc", "users", "name", datatype.String)
	count, err := symbol.NewAggregation(
		symbol.NewFunctionInfo("count", datatype.Long, datatype.String),
		[]symbol.Symbol{name},
		symbol.StepPartial,
		symbol.StepFinal,
	)
	require.NoError(t, err)

	group, err := projection.NewGroup([]symbol.Symbol{name}, []symbol.Symbol{count}, symbol.GranularityCluster)
	require.NoError(t, err)
	topN, err := projection.NewTopN(10, 0, symbol.InputColumnsOf([]datatype.Type{datatype.String, datatype.Long}))
	require.NoError(t, err)

	return []projection.Projection{group, topN}
}

func exampleFragment(t *testing.T) *MergeFragment {
	f, err := NewBuilder().
		WithUpstreams(2).
		WithNodes("node1", "node2").
		WithInputTypes(datatype.Null, datatype.String).
		WithProjections(exampleProjections(t)...).
		Build()
	require.NoError(t, err)
	return f
}

func TestMergeFragmentRoundTrip(t *testing.T) {
	f := exampleFragment(t)

	got, err := Unmarshal(Marshal(f))
	require.NoError(t, err)

	assert.Equal(t, f.ID(), got.ID())
	assert.Equal(t, 2, got.Upstreams())
	assert.Equal(t, []string{"node1", "node2"}, got.Nodes())
	assert.True(t, datatype.TypesEqual([]datatype.Type{datatype.Null, datatype.String}, got.InputTypes()))

	projections := got.Projections()
	require.Len(t, projections, 2)
	assert.Equal(t, projection.ProjectionTypeGroup, projections[0].ProjectionType)
	assert.Equal(t, symbol.GranularityCluster, projections[0].Group.Granularity())
	values := projections[0].Group.Values()
	require.Len(t, values, 1)
	assert.Equal(t, symbol.StepPartial, values[0].Aggregation.FromStep())
	assert.Equal(t, symbol.StepFinal, values[0].Aggregation.ToStep())
	assert.Equal(t, projection.ProjectionTypeTopN, projections[1].ProjectionType)
	assert.Equal(t, int32(10), projections[1].TopN.Limit())
	assert.Equal(t, int32(0), projections[1].TopN.Offset())
	assert.False(t, projections[1].TopN.IsOrdered())

	assert.True(t, f.Equal(got))
	assert.Equal(t, Marshal(f), Marshal(got))
}

func TestMergeFragmentEncodingOrder(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	f, err := NewBuilder().
		WithID(id).
		WithUpstreams(3).
		WithNodes("b", "a").
		WithInputTypes(datatype.Long).
		Build()
	require.NoError(t, err)

	want := append([]byte{}, id[:]...)
	want = append(want,
		3,
		2, 1, 'a', 1, 'b',
		1, byte(datatype.TypeIDLong),
		0,
	)
	assert.Equal(t, want, Marshal(f))
}

func TestBuildValidation(t *testing.T) {
	for _, upstreams := range []int{0, -1} {
		_, err := NewBuilder().WithUpstreams(upstreams).Build()
		assert.True(t, errors.Is(err, codec.ErrInvariantViolation), "upstreams %d: got %v", upstreams, err)
	}

	_, err := NewBuilder().WithUpstreams(1).WithProjections(projection.Projection{}).Build()
	assert.True(t, errors.Is(err, codec.ErrInvariantViolation), "empty projection: got %v", err)
}

func TestBuildGeneratesID(t *testing.T) {
	a, err := NewBuilder().WithUpstreams(1).Build()
	require.NoError(t, err)
	b, err := NewBuilder().WithUpstreams(1).Build()
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.False(t, a.Equal(b))
}

func TestNodesAreASet(t *testing.T) {
	f, err := NewBuilder().
		WithUpstreams(1).
		WithNodes("node2", "node1").
		WithNodes("node2").
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"node1", "node2"}, f.Nodes())
	assert.True(t, f.HasNode("node1"))
	assert.False(t, f.HasNode("node3"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	f := exampleFragment(t)

	nodes := f.Nodes()
	nodes[0] = "other"
	types := f.InputTypes()
	types[0] = datatype.Long
	projections := f.Projections()
	projections[0] = projections[1]

	assert.Equal(t, []string{"node1", "node2"}, f.Nodes())
	assert.True(t, datatype.Null.Equal(f.InputTypes()[0]))
	assert.Equal(t, projection.ProjectionTypeGroup, f.Projections()[0].ProjectionType)
}

func TestBuilderDoesNotShareState(t *testing.T) {
	b := NewBuilder().WithUpstreams(1).WithNodes("node1").WithInputTypes(datatype.String)
	f, err := b.Build()
	require.NoError(t, err)

	b.WithNodes("node2").WithInputTypes(datatype.Long)
	assert.Equal(t, []string{"node1"}, f.Nodes())
	assert.Len(t, f.InputTypes(), 1)
}

func TestOutputTypes(t *testing.T) {
	f := exampleFragment(t)
	assert.True(t, datatype.TypesEqual([]datatype.Type{datatype.String, datatype.Long}, f.OutputTypes()))

	bare, err := NewBuilder().WithUpstreams(1).WithInputTypes(datatype.IP).Build()
	require.NoError(t, err)
	assert.True(t, datatype.TypesEqual([]datatype.Type{datatype.IP}, bare.OutputTypes()))
}

func TestDecodeTruncated(t *testing.T) {
	data := Marshal(exampleFragment(t))
	for i := 0; i < len(data); i++ {
		_, err := Unmarshal(data[:i])
		assert.True(t, errors.Is(err, codec.ErrTruncatedInput), "prefix of length %d: got %v", i, err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name  string
		write func(enc *codec.Encoder)
		want  error
	}{
		{
			name: "zero upstreams",
			write: func(enc *codec.Encoder) {
				enc.PutUUID(id)
				enc.PutUvarint(0)
				enc.PutStrings(nil)
				enc.PutCount(0)
				enc.PutCount(0)
			},
			want: codec.ErrMalformedInput,
		},
		{
			name: "duplicate nodes",
			write: func(enc *codec.Encoder) {
				enc.PutUUID(id)
				enc.PutUvarint(1)
				enc.PutStrings([]string{"node1", "node1"})
				enc.PutCount(0)
				enc.PutCount(0)
			},
			want: codec.ErrMalformedInput,
		},
		{
			name: "nil id",
			write: func(enc *codec.Encoder) {
				enc.PutUUID(uuid.Nil)
				enc.PutUvarint(1)
				enc.PutStrings(nil)
				enc.PutCount(0)
				enc.PutCount(0)
			},
			want: codec.ErrMalformedInput,
		},
		{
			name: "unknown projection tag",
			write: func(enc *codec.Encoder) {
				enc.PutUUID(id)
				enc.PutUvarint(1)
				enc.PutStrings(nil)
				enc.PutCount(0)
				enc.PutCount(1)
				enc.PutTag(99)
			},
			want: codec.ErrMalformedTag,
		},
		{
			name: "trailing bytes",
			write: func(enc *codec.Encoder) {
				enc.PutUUID(id)
				enc.PutUvarint(1)
				enc.PutStrings(nil)
				enc.PutCount(0)
				enc.PutCount(0)
				enc.PutByte(0)
			},
			want: codec.ErrMalformedInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := codec.NewEncoder()
			tt.write(enc)

			_, err := Unmarshal(enc.Bytes())
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestFrame(t *testing.T) {
	f := exampleFragment(t)

	got, err := UnmarshalFrame(MarshalFrame(f), nil)
	require.NoError(t, err)
	assert.True(t, f.Equal(got))

	future := codec.WriteFrame(semver.MustParse("2.0.0"), Marshal(f))
	_, err = UnmarshalFrame(future, nil)
	assert.True(t, errors.Is(err, codec.ErrVersionMismatch), "got %v", err)

	lenient, err := semver.NewConstraint(">= 1, < 3")
	require.NoError(t, err)
	got, err = UnmarshalFrame(future, lenient)
	require.NoError(t, err)
	assert.True(t, f.Equal(got))

	_, err = UnmarshalFrame(Marshal(f), nil)
	assert.Error(t, err)
}

func TestConcurrentEncode(t *testing.T) {
	f := exampleFragment(t)
	want := Marshal(f)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Marshal(f)
		}(i)
	}
	wg.Wait()

	for i := range results {
		assert.Equal(t, want, results[i])
	}
}

func TestExplain(t *testing.T) {
	node := Explain(exampleFragment(t), false)
	assert.Equal(t, "merge fragment", node.Name)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "group", node.Children[0].Node.Name)
	assert.Equal(t, "topn", node.Children[1].Node.Name)
}
