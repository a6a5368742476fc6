package fragment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
	"github.com/cube2222/distplan/projection"
)

// MergeFragment describes how the rows of several upstream producers are merged
// on a receiving node and post-processed by a pipeline of projections.
//
// A MergeFragment is immutable once built and safe for concurrent use.
// Accessors return copies.
type MergeFragment struct {
	id          uuid.UUID
	upstreams   int
	nodes       []string
	inputTypes  []datatype.Type
	projections []projection.Projection
}

// Builder collects the parts of a MergeFragment. The zero value is ready to use.
type Builder struct {
	id          uuid.UUID
	upstreams   int
	nodes       map[string]struct{}
	inputTypes  []datatype.Type
	projections []projection.Projection
}

func NewBuilder() *Builder {
	return &Builder{}
}

// WithID sets the correlation id. A random one is generated by Build otherwise.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithUpstreams sets the number of producers whose results are merged.
func (b *Builder) WithUpstreams(n int) *Builder {
	b.upstreams = n
	return b
}

// WithNodes adds execution nodes. Duplicates collapse.
func (b *Builder) WithNodes(nodes ...string) *Builder {
	if b.nodes == nil {
		b.nodes = make(map[string]struct{}, len(nodes))
	}
	for _, node := range nodes {
		b.nodes[node] = struct{}{}
	}
	return b
}

func (b *Builder) WithInputTypes(types ...datatype.Type) *Builder {
	b.inputTypes = append(b.inputTypes, types...)
	return b
}

func (b *Builder) WithProjections(projections ...projection.Projection) *Builder {
	b.projections = append(b.projections, projections...)
	return b
}

// Build validates the collected parts and returns the fragment.
// The builder may be reused afterwards, it doesn't share state with the result.
func (b *Builder) Build() (*MergeFragment, error) {
	if b.upstreams <= 0 || b.upstreams > math.MaxInt32 {
		return nil, codec.InvariantViolation("upstream count must be positive, got %d", b.upstreams)
	}
	for i := range b.projections {
		if b.projections[i].ProjectionType == 0 {
			return nil, codec.InvariantViolation("projection %d is empty", i)
		}
	}

	id := b.id
	if id == uuid.Nil {
		var err error
		if id, err = uuid.NewRandom(); err != nil {
			return nil, err
		}
	}

	nodes := make([]string, 0, len(b.nodes))
	for node := range b.nodes {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	inputTypes := make([]datatype.Type, len(b.inputTypes))
	copy(inputTypes, b.inputTypes)
	projections := make([]projection.Projection, len(b.projections))
	copy(projections, b.projections)

	return &MergeFragment{
		id:          id,
		upstreams:   b.upstreams,
		nodes:       nodes,
		inputTypes:  inputTypes,
		projections: projections,
	}, nil
}

func (f *MergeFragment) ID() uuid.UUID {
	return f.id
}

func (f *MergeFragment) Upstreams() int {
	return f.upstreams
}

// Nodes returns the execution nodes in sorted order.
func (f *MergeFragment) Nodes() []string {
	out := make([]string, len(f.nodes))
	copy(out, f.nodes)
	return out
}

func (f *MergeFragment) HasNode(node string) bool {
	i := sort.SearchStrings(f.nodes, node)
	return i < len(f.nodes) && f.nodes[i] == node
}

func (f *MergeFragment) InputTypes() []datatype.Type {
	out := make([]datatype.Type, len(f.inputTypes))
	copy(out, f.inputTypes)
	return out
}

func (f *MergeFragment) Projections() []projection.Projection {
	out := make([]projection.Projection, len(f.projections))
	copy(out, f.projections)
	return out
}

// OutputTypes returns the types of the rows the fragment emits:
// those of the last projection's outputs, or the input types without projections.
func (f *MergeFragment) OutputTypes() []datatype.Type {
	if len(f.projections) == 0 {
		return f.InputTypes()
	}
	outputs := f.projections[len(f.projections)-1].Outputs()
	out := make([]datatype.Type, len(outputs))
	for i := range outputs {
		out[i] = outputs[i].Type()
	}
	return out
}

func (f *MergeFragment) Equal(other *MergeFragment) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.id != other.id || f.upstreams != other.upstreams {
		return false
	}
	if len(f.nodes) != len(other.nodes) {
		return false
	}
	for i := range f.nodes {
		if f.nodes[i] != other.nodes[i] {
			return false
		}
	}
	if !datatype.TypesEqual(f.inputTypes, other.inputTypes) {
		return false
	}
	if len(f.projections) != len(other.projections) {
		return false
	}
	for i := range f.projections {
		if !f.projections[i].Equal(other.projections[i]) {
			return false
		}
	}
	return true
}

func (f *MergeFragment) String() string {
	types := make([]string, len(f.inputTypes))
	for i := range f.inputTypes {
		types[i] = f.inputTypes[i].String()
	}
	projections := make([]string, len(f.projections))
	for i := range f.projections {
		projections[i] = f.projections[i].String()
	}
	return fmt.Sprintf(
		"MergeFragment(id=%s, upstreams=%d, nodes=[%s], inputs=[%s], projections=[%s])",
		f.id, f.upstreams, strings.Join(f.nodes, ", "), strings.Join(types, ", "), strings.Join(projections, ", "),
	)
}
