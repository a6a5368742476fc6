package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	durationDesc = prometheus.NewDesc(
		"distplan_execution_duration_ms",
		"Duration of fragment executions in milliseconds.",
		[]string{"type", "labels"}, nil,
	)
	maxDurationDesc = prometheus.NewDesc(
		"distplan_execution_duration_ms_max",
		"Maximum duration of fragment executions in milliseconds.",
		[]string{"type", "labels"}, nil,
	)
	failedDesc = prometheus.NewDesc(
		"distplan_execution_failed_total",
		"Number of failed fragment executions.",
		[]string{"type", "labels"}, nil,
	)
)

// Collector exposes classified metrics to prometheus.
type Collector struct {
	metrics *ClassifiedMetrics
}

func NewCollector(metrics *ClassifiedMetrics) *Collector {
	return &Collector{metrics: metrics}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- durationDesc
	ch <- maxDurationDesc
	ch <- failedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, snapshot := range c.metrics.Snapshot() {
		labels := []string{snapshot.Classification.Type, joinLabels(snapshot.Classification.Labels)}

		ch <- prometheus.MustNewConstSummary(
			durationDesc,
			uint64(snapshot.Count),
			float64(snapshot.SumMillis),
			map[float64]float64{
				0.5:  snapshot.P50,
				0.95: snapshot.P95,
				0.99: snapshot.P99,
			},
			labels...,
		)
		ch <- prometheus.MustNewConstMetric(maxDurationDesc, prometheus.GaugeValue, snapshot.Max, labels...)
		ch <- prometheus.MustNewConstMetric(failedDesc, prometheus.CounterValue, float64(snapshot.FailedCount), labels...)
	}
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`)

// joinLabels escapes commas in labels, so distinct label sets stay distinct series.
func joinLabels(labels []string) string {
	escaped := make([]string, len(labels))
	for i, label := range labels {
		escaped[i] = labelEscaper.Replace(label)
	}
	return strings.Join(escaped, ",")
}
