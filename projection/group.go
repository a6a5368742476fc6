package projection

import (
	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
	"github.com/cube2222/distplan/symbol"
)

// Group groups rows by keys and computes the values, which are aggregations, per group.
// Granularity is the level at which the grouping has to run.
type Group struct {
	keys        []symbol.Symbol
	values      []symbol.Symbol
	granularity symbol.RowGranularity
}

func NewGroup(keys, values []symbol.Symbol, granularity symbol.RowGranularity) (Projection, error) {
	if err := checkAggregations(values); err != nil {
		return Projection{}, err
	}
	if granularity < symbol.GranularityDoc || granularity > symbol.GranularityCluster {
		return Projection{}, codec.InvariantViolation("invalid granularity %d", granularity)
	}
	return Projection{
		ProjectionType: ProjectionTypeGroup,
		Group: &Group{
			keys:        copySymbols(keys),
			values:      copySymbols(values),
			granularity: granularity,
		},
	}, nil
}

func (g *Group) Keys() []symbol.Symbol {
	return copySymbols(g.keys)
}

func (g *Group) Values() []symbol.Symbol {
	return copySymbols(g.values)
}

func (g *Group) Granularity() symbol.RowGranularity {
	return g.granularity
}

// Aggregation computes global aggregations over all input rows, emitting a single row.
type Aggregation struct {
	aggregations []symbol.Symbol
}

func NewAggregation(aggregations []symbol.Symbol) (Projection, error) {
	if err := checkAggregations(aggregations); err != nil {
		return Projection{}, err
	}
	return Projection{
		ProjectionType: ProjectionTypeAggregation,
		Aggregation: &Aggregation{
			aggregations: copySymbols(aggregations),
		},
	}, nil
}

func (a *Aggregation) Aggregations() []symbol.Symbol {
	return copySymbols(a.aggregations)
}

func checkAggregations(symbols []symbol.Symbol) error {
	for i := range symbols {
		if symbols[i].SymbolType != symbol.SymbolTypeAggregation {
			return codec.InvariantViolation("value %d is a %s, expected an aggregation", i, symbols[i].SymbolType)
		}
	}
	return nil
}

// Filter passes through the outputs of rows matching the query.
type Filter struct {
	query   symbol.Symbol
	outputs []symbol.Symbol
}

// NewFilter creates a filter. The query must evaluate to a boolean; a null query matches nothing.
func NewFilter(query symbol.Symbol, outputs []symbol.Symbol) (Projection, error) {
	switch query.Type().TypeID {
	case datatype.TypeIDBoolean, datatype.TypeIDNull:
	default:
		return Projection{}, codec.InvariantViolation("filter query must be a boolean, got %s", query.Type())
	}
	return Projection{
		ProjectionType: ProjectionTypeFilter,
		Filter: &Filter{
			query:   query,
			outputs: copySymbols(outputs),
		},
	}, nil
}

func (f *Filter) Query() symbol.Symbol {
	return f.query
}
