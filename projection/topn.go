package projection

import (
	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/symbol"
)

// NoLimit is the limit of a TopN which doesn't cap the number of rows.
const NoLimit int32 = -1

// TopN passes through at most limit rows after skipping offset rows,
// optionally ordering them first.
type TopN struct {
	limit        int32
	offset       int32
	outputs      []symbol.Symbol
	orderBy      []symbol.Symbol
	reverseFlags []bool
}

// NewTopN creates an unordered TopN.
func NewTopN(limit, offset int32, outputs []symbol.Symbol) (Projection, error) {
	return NewOrderedTopN(limit, offset, outputs, nil, nil)
}

// NewOrderedTopN creates a TopN ordering by orderBy. reverseFlags[i] sorts orderBy[i] descending,
// so both must have the same length. Empty orderBy and reverseFlags make an unordered TopN.
func NewOrderedTopN(limit, offset int32, outputs, orderBy []symbol.Symbol, reverseFlags []bool) (Projection, error) {
	if limit < 0 && limit != NoLimit {
		return Projection{}, codec.InvariantViolation("invalid limit %d", limit)
	}
	if offset < 0 {
		return Projection{}, codec.InvariantViolation("invalid offset %d", offset)
	}
	if len(orderBy) != len(reverseFlags) {
		return Projection{}, codec.InvariantViolation("got %d order by symbols but %d reverse flags", len(orderBy), len(reverseFlags))
	}

	topN := &TopN{
		limit:   limit,
		offset:  offset,
		outputs: copySymbols(outputs),
	}
	if len(orderBy) > 0 {
		topN.orderBy = copySymbols(orderBy)
		topN.reverseFlags = make([]bool, len(reverseFlags))
		copy(topN.reverseFlags, reverseFlags)
	}
	return Projection{
		ProjectionType: ProjectionTypeTopN,
		TopN:           topN,
	}, nil
}

func (t *TopN) Limit() int32 {
	return t.limit
}

func (t *TopN) Offset() int32 {
	return t.offset
}

func (t *TopN) HasLimit() bool {
	return t.limit != NoLimit
}

func (t *TopN) IsOrdered() bool {
	return len(t.reverseFlags) > 0
}

func (t *TopN) OrderBy() []symbol.Symbol {
	if !t.IsOrdered() {
		return nil
	}
	return copySymbols(t.orderBy)
}

func (t *TopN) ReverseFlags() []bool {
	if !t.IsOrdered() {
		return nil
	}
	out := make([]bool, len(t.reverseFlags))
	copy(out, t.reverseFlags)
	return out
}
