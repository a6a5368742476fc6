package projection

// Visitor has one method per projection variant.
type Visitor[T any] interface {
	VisitTopN(topN *TopN) T
	VisitGroup(group *Group) T
	VisitAggregation(aggregation *Aggregation) T
	VisitFilter(filter *Filter) T
}

// Visit dispatches p to the visitor method matching its variant.
func Visit[T any](p Projection, v Visitor[T]) T {
	switch p.ProjectionType {
	case ProjectionTypeTopN:
		return v.VisitTopN(p.TopN)
	case ProjectionTypeGroup:
		return v.VisitGroup(p.Group)
	case ProjectionTypeAggregation:
		return v.VisitAggregation(p.Aggregation)
	case ProjectionTypeFilter:
		return v.VisitFilter(p.Filter)
	}

	panic("unexhaustive projection type match")
}
