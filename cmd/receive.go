package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/cube2222/distplan/dispatch"
	"github.com/cube2222/distplan/fragment"
	"github.com/cube2222/distplan/metrics"
)

var receiveCmd = &cobra.Command{
	Use:   "receive <frame file>...",
	Short: "Receive merge fragments as an executing node would, then print the collected metrics.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := metrics.NewClassifiedMetrics(
			metrics.WithHighestTrackable(cfg.Metrics.HighestTrackable),
			metrics.WithSignificantDigits(cfg.Metrics.SignificantDigits),
		)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		executor := dispatch.ExecutorFunc(func(ctx context.Context, f *fragment.MergeFragment) error {
			_, err := fmt.Fprintln(w, f.String())
			return err
		})
		receiver, err := dispatch.NewReceiver(cfg, logger, m, executor)
		if err != nil {
			return err
		}

		var failed int
		for _, path := range args {
			frame, err := readFrame(cmd, path)
			if err != nil {
				return err
			}
			if err := receiver.Receive(cmd.Context(), frame); err != nil {
				failed++
			}
		}

		registry := prometheus.NewRegistry()
		if err := registry.Register(metrics.NewCollector(m)); err != nil {
			return errors.Wrap(err, "couldn't register metrics collector")
		}
		families, err := registry.Gather()
		if err != nil {
			return errors.Wrap(err, "couldn't gather metrics")
		}
		printMetricFamilies(w, families)

		if failed > 0 {
			return errors.Errorf("%d of %d frames failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	addHexFlag(receiveCmd)
	rootCmd.AddCommand(receiveCmd)
}

func printMetricFamilies(w io.Writer, families []*dto.MetricFamily) {
	table := newTable(w, "metric", "labels", "value")
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, len(metric.GetLabel()))
			for i, label := range metric.GetLabel() {
				labels[i] = label.GetName() + "=" + label.GetValue()
			}

			var value string
			switch family.GetType() {
			case dto.MetricType_SUMMARY:
				summary := metric.GetSummary()
				value = fmt.Sprintf("count=%d sum=%g", summary.GetSampleCount(), summary.GetSampleSum())
				for _, q := range summary.GetQuantile() {
					value += fmt.Sprintf(" p%g=%g", q.GetQuantile()*100, q.GetValue())
				}
			case dto.MetricType_GAUGE:
				value = strconv.FormatFloat(metric.GetGauge().GetValue(), 'g', -1, 64)
			case dto.MetricType_COUNTER:
				value = strconv.FormatFloat(metric.GetCounter().GetValue(), 'g', -1, 64)
			default:
				value = family.GetType().String()
			}
			table.Append([]string{family.GetName(), strings.Join(labels, ","), value})
		}
	}
	table.Render()
}
