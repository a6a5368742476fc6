package symbol

import (
	"github.com/cespare/xxhash/v2"
)

// Equal reports whether two symbol trees are structurally equal.
func (s Symbol) Equal(other Symbol) bool {
	if s.SymbolType != other.SymbolType {
		return false
	}

	switch s.SymbolType {
	case SymbolTypeReference:
		return s.Reference.Ident == other.Reference.Ident &&
			s.Reference.Granularity == other.Reference.Granularity &&
			s.Reference.Type.Equal(other.Reference.Type)
	case SymbolTypeLiteral:
		return s.Literal.Value.Equal(other.Literal.Value)
	case SymbolTypeFunction:
		return s.Function.Info.Equal(other.Function.Info) &&
			ListEqual(s.Function.Arguments, other.Function.Arguments)
	case SymbolTypeAggregation:
		return s.Aggregation.Info.Equal(other.Aggregation.Info) &&
			s.Aggregation.fromStep == other.Aggregation.fromStep &&
			s.Aggregation.toStep == other.Aggregation.toStep &&
			ListEqual(s.Aggregation.Inputs, other.Aggregation.Inputs)
	case SymbolTypeInputColumn:
		return s.InputColumn.Index == other.InputColumn.Index &&
			s.InputColumn.Type.Equal(other.InputColumn.Type)
	}
	return false
}

func ListEqual(a, b []Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal: equal symbols have equal encodings.
func (s Symbol) Hash() uint64 {
	return xxhash.Sum64(Marshal(s))
}
