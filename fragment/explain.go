package fragment

import (
	"fmt"
	"strings"

	"github.com/cube2222/distplan/graph"
	"github.com/cube2222/distplan/projection"
)

// Explain describes the fragment as a tree: the fragment itself is the root,
// with one child per projection in pipeline order.
func Explain(f *MergeFragment, withTypeInfo bool) *graph.Node {
	out := graph.NewNode("merge fragment")
	out.AddField("id", f.id.String())
	out.AddField("upstreams", fmt.Sprint(f.upstreams))
	out.AddField("nodes", strings.Join(f.nodes, ", "))

	types := make([]string, len(f.inputTypes))
	for i := range f.inputTypes {
		types[i] = f.inputTypes[i].String()
	}
	out.AddField("input types", strings.Join(types, ", "))

	for i := range f.projections {
		out.AddChild(fmt.Sprintf("projection_%d", i), projection.Explain(f.projections[i], withTypeInfo))
	}
	return out
}
