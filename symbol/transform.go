package symbol

import (
	"github.com/cube2222/distplan/datatype"
)

// Transformers rewrites symbol trees bottom-up.
// SymbolTransformer is applied to every node after its children have been transformed.
// The input tree is never modified.
type Transformers struct {
	SymbolTransformer func(s Symbol) Symbol
}

func (t *Transformers) TransformSymbol(s Symbol) Symbol {
	var out Symbol
	switch s.SymbolType {
	case SymbolTypeReference:
		out = Symbol{
			SymbolType: s.SymbolType,
			Reference: &Reference{
				Ident:       s.Reference.Ident,
				Granularity: s.Reference.Granularity,
				Type:        s.Reference.Type,
			},
		}
	case SymbolTypeLiteral:
		out = Symbol{
			SymbolType: s.SymbolType,
			Literal: &Literal{
				Value: s.Literal.Value,
			},
		}
	case SymbolTypeFunction:
		out = Symbol{
			SymbolType: s.SymbolType,
			Function: &Function{
				Info:      s.Function.Info,
				Arguments: t.TransformSymbols(s.Function.Arguments),
			},
		}
	case SymbolTypeAggregation:
		out = Symbol{
			SymbolType: s.SymbolType,
			Aggregation: &Aggregation{
				Info:     s.Aggregation.Info,
				Inputs:   t.TransformSymbols(s.Aggregation.Inputs),
				fromStep: s.Aggregation.fromStep,
				toStep:   s.Aggregation.toStep,
			},
		}
	case SymbolTypeInputColumn:
		out = Symbol{
			SymbolType: s.SymbolType,
			InputColumn: &InputColumn{
				Index: s.InputColumn.Index,
				Type:  s.InputColumn.Type,
			},
		}
	default:
		panic("unexhaustive symbol type match")
	}
	if t.SymbolTransformer != nil {
		out = t.SymbolTransformer(out)
	}
	return out
}

func (t *Transformers) TransformSymbols(symbols []Symbol) []Symbol {
	if symbols == nil {
		return nil
	}
	out := make([]Symbol, len(symbols))
	for i := range symbols {
		out[i] = t.TransformSymbol(symbols[i])
	}
	return out
}

// BindInputColumns replaces every subtree equal to one of inputs with an input column
// pointing at that input's position. Outer matches win over matches of their children.
// This is how a stage refers to the columns produced by the stage before it.
func BindInputColumns(s Symbol, inputs []Symbol) Symbol {
	index := make(map[uint64][]int, len(inputs))
	for i := range inputs {
		h := inputs[i].Hash()
		index[h] = append(index[h], i)
	}
	return bindInputColumns(s, inputs, index)
}

func bindInputColumns(s Symbol, inputs []Symbol, index map[uint64][]int) Symbol {
	for _, i := range index[s.Hash()] {
		if inputs[i].Equal(s) {
			return Symbol{
				SymbolType:  SymbolTypeInputColumn,
				InputColumn: &InputColumn{Index: i, Type: s.Type()},
			}
		}
	}

	switch s.SymbolType {
	case SymbolTypeFunction:
		arguments := make([]Symbol, len(s.Function.Arguments))
		for i := range s.Function.Arguments {
			arguments[i] = bindInputColumns(s.Function.Arguments[i], inputs, index)
		}
		return Symbol{
			SymbolType: s.SymbolType,
			Function:   &Function{Info: s.Function.Info, Arguments: arguments},
		}
	case SymbolTypeAggregation:
		inputsOut := make([]Symbol, len(s.Aggregation.Inputs))
		for i := range s.Aggregation.Inputs {
			inputsOut[i] = bindInputColumns(s.Aggregation.Inputs[i], inputs, index)
		}
		return Symbol{
			SymbolType: s.SymbolType,
			Aggregation: &Aggregation{
				Info:     s.Aggregation.Info,
				Inputs:   inputsOut,
				fromStep: s.Aggregation.fromStep,
				toStep:   s.Aggregation.toStep,
			},
		}
	}
	return s
}

// InputColumnsOf returns input columns for each of the given output types, in order.
func InputColumnsOf(types []datatype.Type) []Symbol {
	out := make([]Symbol, len(types))
	for i := range types {
		out[i] = Symbol{
			SymbolType:  SymbolTypeInputColumn,
			InputColumn: &InputColumn{Index: i, Type: types[i]},
		}
	}
	return out
}
