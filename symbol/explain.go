package symbol

import (
	"fmt"

	"github.com/cube2222/distplan/graph"
)

func Explain(s Symbol, withTypeInfo bool) *graph.Node {
	var out *graph.Node
	switch s.SymbolType {
	case SymbolTypeReference:
		out = graph.NewNode("reference")
		out.AddField("ident", s.Reference.Ident.String())
		out.AddField("granularity", s.Reference.Granularity.String())

	case SymbolTypeLiteral:
		out = graph.NewNode("literal")
		out.AddField("value", s.Literal.Value.String())

	case SymbolTypeFunction:
		out = graph.NewNode(s.Function.Info.Ident.Name)
		for i := range s.Function.Arguments {
			out.AddChild(fmt.Sprintf("arg_%d", i), Explain(s.Function.Arguments[i], withTypeInfo))
		}

	case SymbolTypeAggregation:
		out = graph.NewNode(s.Aggregation.Info.Ident.Name)
		out.AddField("steps", fmt.Sprintf("%s -> %s", s.Aggregation.fromStep, s.Aggregation.toStep))
		for i := range s.Aggregation.Inputs {
			out.AddChild(fmt.Sprintf("input_%d", i), Explain(s.Aggregation.Inputs[i], withTypeInfo))
		}

	case SymbolTypeInputColumn:
		out = graph.NewNode("input column")
		out.AddField("index", fmt.Sprint(s.InputColumn.Index))

	default:
		panic("unexhaustive symbol type match")
	}
	if withTypeInfo {
		out.AddField("type", s.Type().String())
	}
	return out
}
