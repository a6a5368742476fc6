package projection

import (
	"github.com/pkg/errors"

	"github.com/cube2222/distplan/symbol"
)

// Transform applies the symbol transformers to every symbol of the projection.
// The result is checked like a newly constructed projection.
func Transform(p Projection, t *symbol.Transformers) (Projection, error) {
	var out Projection
	var err error
	switch p.ProjectionType {
	case ProjectionTypeTopN:
		out, err = NewOrderedTopN(
			p.TopN.limit,
			p.TopN.offset,
			t.TransformSymbols(p.TopN.outputs),
			t.TransformSymbols(p.TopN.orderBy),
			p.TopN.reverseFlags,
		)
	case ProjectionTypeGroup:
		out, err = NewGroup(
			t.TransformSymbols(p.Group.keys),
			t.TransformSymbols(p.Group.values),
			p.Group.granularity,
		)
	case ProjectionTypeAggregation:
		out, err = NewAggregation(t.TransformSymbols(p.Aggregation.aggregations))
	case ProjectionTypeFilter:
		out, err = NewFilter(
			t.TransformSymbol(p.Filter.query),
			t.TransformSymbols(p.Filter.outputs),
		)
	default:
		panic("unexhaustive projection type match")
	}
	if err != nil {
		return Projection{}, errors.Wrapf(err, "invalid transformed %s projection", p.ProjectionType)
	}
	return out, nil
}
