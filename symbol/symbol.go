package symbol

import (
	"fmt"
	"math"
	"strings"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
)

// Symbol is a node of an expression tree.
//
// Symbols are immutable values: once constructed, neither the node nor any of its
// children are modified, so trees may be shared freely between projections.
// The variant fields are exported for reading only. Build symbols with the constructors.
type Symbol struct {
	SymbolType SymbolType
	// Only one of the below may be non-null.
	Reference   *Reference
	Literal     *Literal
	Function    *Function
	Aggregation *Aggregation
	InputColumn *InputColumn
}

// SymbolType is the wire tag of a symbol variant. The numeric values are part of the protocol.
type SymbolType int

const (
	_ SymbolType = iota
	SymbolTypeReference
	SymbolTypeLiteral
	SymbolTypeFunction
	SymbolTypeAggregation
	SymbolTypeInputColumn

	symbolTypeCount
)

func (t SymbolType) String() string {
	switch t {
	case SymbolTypeReference:
		return "reference"
	case SymbolTypeLiteral:
		return "literal"
	case SymbolTypeFunction:
		return "function"
	case SymbolTypeAggregation:
		return "aggregation"
	case SymbolTypeInputColumn:
		return "input_column"
	}
	return "unknown"
}

// RowGranularity is the level at which a referenced column's values exist.
type RowGranularity int

const (
	GranularityDoc RowGranularity = iota
	GranularityShard
	GranularityNode
	GranularityCluster

	granularityCount
)

func (g RowGranularity) String() string {
	switch g {
	case GranularityDoc:
		return "doc"
	case GranularityShard:
		return "shard"
	case GranularityNode:
		return "node"
	case GranularityCluster:
		return "cluster"
	}
	return "unknown"
}

type ReferenceIdent struct {
	Schema, Table, Column string
}

func (ident ReferenceIdent) String() string {
	return fmt.Sprintf("%s.%s.%s", ident.Schema, ident.Table, ident.Column)
}

type Reference struct {
	Ident       ReferenceIdent
	Granularity RowGranularity
	Type        datatype.Type
}

type Literal struct {
	Value datatype.Value
}

type FunctionIdent struct {
	Name          string
	ArgumentTypes []datatype.Type
}

type FunctionInfo struct {
	Ident      FunctionIdent
	ReturnType datatype.Type
}

func NewFunctionInfo(name string, returnType datatype.Type, argumentTypes ...datatype.Type) FunctionInfo {
	return FunctionInfo{
		Ident: FunctionIdent{
			Name:          name,
			ArgumentTypes: append([]datatype.Type(nil), argumentTypes...),
		},
		ReturnType: returnType,
	}
}

func copyFunctionInfo(info FunctionInfo) FunctionInfo {
	info.Ident.ArgumentTypes = append([]datatype.Type(nil), info.Ident.ArgumentTypes...)
	return info
}

func (info FunctionInfo) Equal(other FunctionInfo) bool {
	return info.Ident.Name == other.Ident.Name &&
		datatype.TypesEqual(info.Ident.ArgumentTypes, other.Ident.ArgumentTypes) &&
		info.ReturnType.Equal(other.ReturnType)
}

type Function struct {
	Info      FunctionInfo
	Arguments []Symbol
}

// AggregationStep is the phase of a two-phase aggregation a symbol represents.
type AggregationStep int

const (
	// StepIter consumes raw input rows.
	StepIter AggregationStep = iota
	// StepPartial is node-local pre-aggregation state.
	StepPartial
	// StepFinal is the cross-node combined result.
	StepFinal

	aggregationStepCount
)

func (s AggregationStep) String() string {
	switch s {
	case StepIter:
		return "ITER"
	case StepPartial:
		return "PARTIAL"
	case StepFinal:
		return "FINAL"
	}
	return "UNKNOWN"
}

// Aggregation is an aggregate function call which transforms its input from one step to another,
// e.g. from partial states computed on every node to the final result.
type Aggregation struct {
	Info   FunctionInfo
	Inputs []Symbol

	fromStep AggregationStep
	toStep   AggregationStep
}

func (a *Aggregation) FromStep() AggregationStep {
	return a.fromStep
}

func (a *Aggregation) ToStep() AggregationStep {
	return a.toStep
}

// InputColumn refers positionally to a column of the rows a projection receives.
type InputColumn struct {
	Index int
	Type  datatype.Type
}

func NewReference(ident ReferenceIdent, granularity RowGranularity, t datatype.Type) (Symbol, error) {
	if granularity < GranularityDoc || granularity >= granularityCount {
		return Symbol{}, codec.InvariantViolation("invalid row granularity %d", granularity)
	}
	return newReference(ident, granularity, t), nil
}

func newReference(ident ReferenceIdent, granularity RowGranularity, t datatype.Type) Symbol {
	return Symbol{
		SymbolType: SymbolTypeReference,
		Reference: &Reference{
			Ident:       ident,
			Granularity: granularity,
			Type:        t,
		},
	}
}

// NewColumn is a shorthand for a document level reference.
func NewColumn(schema, table, column string, t datatype.Type) Symbol {
	return newReference(ReferenceIdent{Schema: schema, Table: table, Column: column}, GranularityDoc, t)
}

func NewLiteral(value datatype.Value) (Symbol, error) {
	if err := value.Validate(); err != nil {
		return Symbol{}, err
	}
	return Symbol{
		SymbolType: SymbolTypeLiteral,
		Literal:    &Literal{Value: value},
	}, nil
}

// MustLiteral is like NewLiteral, but panics on invalid values.
func MustLiteral(value datatype.Value) Symbol {
	s, err := NewLiteral(value)
	if err != nil {
		panic(err)
	}
	return s
}

func NewFunction(info FunctionInfo, arguments ...Symbol) Symbol {
	return Symbol{
		SymbolType: SymbolTypeFunction,
		Function: &Function{
			Info:      copyFunctionInfo(info),
			Arguments: append([]Symbol(nil), arguments...),
		},
	}
}

// NewAggregation creates an aggregation going from one step to another.
// Steps only move forward: an aggregation can't go from FINAL back to PARTIAL.
func NewAggregation(info FunctionInfo, inputs []Symbol, from, to AggregationStep) (Symbol, error) {
	if from < 0 || from >= aggregationStepCount || to < 0 || to >= aggregationStepCount {
		return Symbol{}, codec.InvariantViolation("invalid aggregation steps %d -> %d", from, to)
	}
	if from > to {
		return Symbol{}, codec.InvariantViolation("aggregation can't go from %s to %s", from, to)
	}
	return Symbol{
		SymbolType: SymbolTypeAggregation,
		Aggregation: &Aggregation{
			Info:     copyFunctionInfo(info),
			Inputs:   append([]Symbol(nil), inputs...),
			fromStep: from,
			toStep:   to,
		},
	}, nil
}

func NewInputColumn(index int, t datatype.Type) (Symbol, error) {
	if index < 0 || uint64(index) > math.MaxUint32 {
		return Symbol{}, codec.InvariantViolation("input column index %d out of range", index)
	}
	return Symbol{
		SymbolType:  SymbolTypeInputColumn,
		InputColumn: &InputColumn{Index: index, Type: t},
	}, nil
}

// Type returns the type of the values the symbol evaluates to.
// Non-final aggregations evaluate to opaque aggregation state, typed as object.
func (s Symbol) Type() datatype.Type {
	switch s.SymbolType {
	case SymbolTypeReference:
		return s.Reference.Type
	case SymbolTypeLiteral:
		return s.Literal.Value.Type
	case SymbolTypeFunction:
		return s.Function.Info.ReturnType
	case SymbolTypeAggregation:
		if s.Aggregation.toStep == StepFinal {
			return s.Aggregation.Info.ReturnType
		}
		return datatype.Object
	case SymbolTypeInputColumn:
		return s.InputColumn.Type
	}

	panic("unexhaustive symbol type match")
}

func (s Symbol) String() string {
	switch s.SymbolType {
	case SymbolTypeReference:
		return s.Reference.Ident.String()
	case SymbolTypeLiteral:
		return s.Literal.Value.String()
	case SymbolTypeFunction:
		return fmt.Sprintf("%s(%s)", s.Function.Info.Ident.Name, joinSymbols(s.Function.Arguments))
	case SymbolTypeAggregation:
		return fmt.Sprintf("%s(%s)[%s->%s]", s.Aggregation.Info.Ident.Name, joinSymbols(s.Aggregation.Inputs), s.Aggregation.fromStep, s.Aggregation.toStep)
	case SymbolTypeInputColumn:
		return fmt.Sprintf("$%d", s.InputColumn.Index)
	}
	return "<invalid symbol>"
}

func joinSymbols(symbols []Symbol) string {
	parts := make([]string, len(symbols))
	for i := range symbols {
		parts[i] = symbols[i].String()
	}
	return strings.Join(parts, ", ")
}
