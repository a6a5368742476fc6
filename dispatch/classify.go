package dispatch

import (
	"github.com/cube2222/distplan/fragment"
	"github.com/cube2222/distplan/metrics"
	"github.com/cube2222/distplan/projection"
)

// ClassificationType is the type of every merge fragment execution.
// Merge fragments only ever carry the results of reads.
const ClassificationType = "SELECT"

// Classify labels the fragment with the kinds of its projections.
func Classify(f *fragment.MergeFragment) metrics.Classification {
	labels := make([]string, 0, len(f.Projections()))
	for _, p := range f.Projections() {
		labels = append(labels, projection.Visit[string](p, labeler{}))
	}
	return metrics.NewClassification(ClassificationType, labels...)
}

type labeler struct{}

func (labeler) VisitTopN(topN *projection.TopN) string {
	if topN.IsOrdered() {
		return "ordered_topn"
	}
	return "topn"
}

func (labeler) VisitGroup(group *projection.Group) string {
	return "group"
}

func (labeler) VisitAggregation(aggregation *projection.Aggregation) string {
	return "aggregation"
}

func (labeler) VisitFilter(filter *projection.Filter) string {
	return "filter"
}
