package projection

import (
	"fmt"
	"strings"

	"github.com/cube2222/distplan/symbol"
)

// Projection is a stage of the row pipeline run on the receiving side of a fragment.
// Each stage consumes the rows produced by the previous one.
type Projection struct {
	ProjectionType ProjectionType
	// Only one of the below may be non-null.
	TopN        *TopN
	Group       *Group
	Aggregation *Aggregation
	Filter      *Filter
}

// ProjectionType is the wire tag of a projection variant. The numeric values are part of the protocol.
type ProjectionType int

const (
	_ ProjectionType = iota
	ProjectionTypeTopN
	ProjectionTypeGroup
	ProjectionTypeAggregation
	ProjectionTypeFilter

	projectionTypeCount
)

func (t ProjectionType) String() string {
	switch t {
	case ProjectionTypeTopN:
		return "topn"
	case ProjectionTypeGroup:
		return "group"
	case ProjectionTypeAggregation:
		return "aggregation"
	case ProjectionTypeFilter:
		return "filter"
	}
	return "unknown"
}

// Outputs returns the symbols describing the rows the projection emits.
// The returned slice is a copy and may be modified by the caller.
func (p Projection) Outputs() []symbol.Symbol {
	var outputs []symbol.Symbol
	switch p.ProjectionType {
	case ProjectionTypeTopN:
		outputs = p.TopN.outputs
	case ProjectionTypeGroup:
		outputs = make([]symbol.Symbol, 0, len(p.Group.keys)+len(p.Group.values))
		outputs = append(outputs, p.Group.keys...)
		outputs = append(outputs, p.Group.values...)
		return outputs
	case ProjectionTypeAggregation:
		outputs = p.Aggregation.aggregations
	case ProjectionTypeFilter:
		outputs = p.Filter.outputs
	default:
		panic("unexhaustive projection type match")
	}
	return copySymbols(outputs)
}

func (p Projection) Equal(other Projection) bool {
	if p.ProjectionType != other.ProjectionType {
		return false
	}

	switch p.ProjectionType {
	case ProjectionTypeTopN:
		a, b := p.TopN, other.TopN
		if a.limit != b.limit || a.offset != b.offset || len(a.reverseFlags) != len(b.reverseFlags) {
			return false
		}
		for i := range a.reverseFlags {
			if a.reverseFlags[i] != b.reverseFlags[i] {
				return false
			}
		}
		return symbol.ListEqual(a.outputs, b.outputs) && symbol.ListEqual(a.orderBy, b.orderBy)
	case ProjectionTypeGroup:
		return p.Group.granularity == other.Group.granularity &&
			symbol.ListEqual(p.Group.keys, other.Group.keys) &&
			symbol.ListEqual(p.Group.values, other.Group.values)
	case ProjectionTypeAggregation:
		return symbol.ListEqual(p.Aggregation.aggregations, other.Aggregation.aggregations)
	case ProjectionTypeFilter:
		return p.Filter.query.Equal(other.Filter.query) &&
			symbol.ListEqual(p.Filter.outputs, other.Filter.outputs)
	}
	return false
}

func (p Projection) String() string {
	switch p.ProjectionType {
	case ProjectionTypeTopN:
		var sb strings.Builder
		sb.WriteString("TopN(")
		if p.TopN.limit == NoLimit {
			sb.WriteString("limit=none")
		} else {
			fmt.Fprintf(&sb, "limit=%d", p.TopN.limit)
		}
		fmt.Fprintf(&sb, ", offset=%d, outputs=[%s]", p.TopN.offset, joinSymbols(p.TopN.outputs))
		if p.TopN.IsOrdered() {
			order := make([]string, len(p.TopN.orderBy))
			for i := range p.TopN.orderBy {
				direction := "ASC"
				if p.TopN.reverseFlags[i] {
					direction = "DESC"
				}
				order[i] = fmt.Sprintf("%s %s", p.TopN.orderBy[i], direction)
			}
			fmt.Fprintf(&sb, ", order=[%s]", strings.Join(order, ", "))
		}
		sb.WriteString(")")
		return sb.String()
	case ProjectionTypeGroup:
		return fmt.Sprintf("Group(keys=[%s], values=[%s], granularity=%s)", joinSymbols(p.Group.keys), joinSymbols(p.Group.values), p.Group.granularity)
	case ProjectionTypeAggregation:
		return fmt.Sprintf("Aggregation(%s)", joinSymbols(p.Aggregation.aggregations))
	case ProjectionTypeFilter:
		return fmt.Sprintf("Filter(query=%s, outputs=[%s])", p.Filter.query, joinSymbols(p.Filter.outputs))
	}
	return "<invalid projection>"
}

func joinSymbols(symbols []symbol.Symbol) string {
	parts := make([]string, len(symbols))
	for i := range symbols {
		parts[i] = symbols[i].String()
	}
	return strings.Join(parts, ", ")
}

func copySymbols(symbols []symbol.Symbol) []symbol.Symbol {
	out := make([]symbol.Symbol, len(symbols))
	copy(out, symbols)
	return out
}
