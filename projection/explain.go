package projection

import (
	"fmt"

	"github.com/cube2222/distplan/graph"
	"github.com/cube2222/distplan/symbol"
)

func Explain(p Projection, withTypeInfo bool) *graph.Node {
	return Visit[*graph.Node](p, &explainer{withTypeInfo: withTypeInfo})
}

type explainer struct {
	withTypeInfo bool
}

func (e *explainer) VisitTopN(topN *TopN) *graph.Node {
	out := graph.NewNode("topn")
	if topN.HasLimit() {
		out.AddField("limit", fmt.Sprint(topN.limit))
	} else {
		out.AddField("limit", "none")
	}
	out.AddField("offset", fmt.Sprint(topN.offset))
	e.addSymbols(out, "output", topN.outputs)
	for i := range topN.orderBy {
		name := fmt.Sprintf("order_%d_asc", i)
		if topN.reverseFlags[i] {
			name = fmt.Sprintf("order_%d_desc", i)
		}
		out.AddChild(name, symbol.Explain(topN.orderBy[i], e.withTypeInfo))
	}
	return out
}

func (e *explainer) VisitGroup(group *Group) *graph.Node {
	out := graph.NewNode("group")
	out.AddField("granularity", group.granularity.String())
	e.addSymbols(out, "key", group.keys)
	e.addSymbols(out, "value", group.values)
	return out
}

func (e *explainer) VisitAggregation(aggregation *Aggregation) *graph.Node {
	out := graph.NewNode("aggregation")
	e.addSymbols(out, "aggregation", aggregation.aggregations)
	return out
}

func (e *explainer) VisitFilter(filter *Filter) *graph.Node {
	out := graph.NewNode("filter")
	out.AddChild("query", symbol.Explain(filter.query, e.withTypeInfo))
	e.addSymbols(out, "output", filter.outputs)
	return out
}

func (e *explainer) addSymbols(node *graph.Node, prefix string, symbols []symbol.Symbol) {
	for i := range symbols {
		node.AddChild(fmt.Sprintf("%s_%d", prefix, i), symbol.Explain(symbols[i], e.withTypeInfo))
	}
}
