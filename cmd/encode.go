package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/distplan/datatype"
	"github.com/cube2222/distplan/fragment"
	"github.com/cube2222/distplan/projection"
	"github.com/cube2222/distplan/symbol"
)

var (
	encodeUpstreams int
	encodeNodes     []string
	encodeLimit     int32
	encodeOut       string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a sample merge fragment grouping users by name.",
	Long: `Encode a merge fragment which combines partial per-node counts of users by name
and returns the top names by count. The frame is stamped with the configured protocol version.
It's written hex encoded to stdout, or raw to the --out file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := sampleFragment(encodeUpstreams, encodeNodes, encodeLimit)
		if err != nil {
			return errors.Wrap(err, "couldn't build merge fragment")
		}
		version, err := cfg.ProtocolVersion()
		if err != nil {
			return err
		}
		frame := fragment.MarshalFrameVersion(f, version)

		level.Debug(logger).Log("msg", "encoded merge fragment", "correlation", f.ID().String(), "bytes", len(frame), "version", version)

		if encodeOut != "" {
			if err := os.WriteFile(encodeOut, frame, 0644); err != nil {
				return errors.Wrap(err, "couldn't write frame")
			}
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(frame))
		return err
	},
}

func init() {
	encodeCmd.Flags().IntVar(&encodeUpstreams, "upstreams", 2, "Number of upstreams feeding the merge.")
	encodeCmd.Flags().StringSliceVar(&encodeNodes, "nodes", []string{"node1", "node2"}, "Nodes the merge runs on.")
	encodeCmd.Flags().Int32Var(&encodeLimit, "limit", 10, "Number of top names returned, -1 for all.")
	encodeCmd.Flags().StringVar(&encodeOut, "out", "", "File to write the raw frame to.")
	rootCmd.AddCommand(encodeCmd)
}

// sampleFragment is SELECT name, count(name) FROM doc.users GROUP BY name ORDER BY 2 DESC LIMIT n,
// merged from partial counts computed on the upstream nodes.
func sampleFragment(upstreams int, nodes []string, limit int32) (*fragment.MergeFragment, error) {
	name := symbol.NewColumn("doc", "users", "name", datatype.String)
	count, err := symbol.NewAggregation(
		symbol.NewFunctionInfo("count", datatype.Long, datatype.String),
		[]symbol.Symbol{name},
		symbol.StepPartial,
		symbol.StepFinal,
	)
	if err != nil {
		return nil, err
	}
	group, err := projection.NewGroup([]symbol.Symbol{name}, []symbol.Symbol{count}, symbol.GranularityCluster)
	if err != nil {
		return nil, err
	}

	outputs := symbol.InputColumnsOf([]datatype.Type{datatype.String, datatype.Long})
	topN, err := projection.NewOrderedTopN(limit, 0, outputs, []symbol.Symbol{outputs[1]}, []bool{true})
	if err != nil {
		return nil, err
	}

	return fragment.NewBuilder().
		WithUpstreams(upstreams).
		WithNodes(nodes...).
		WithInputTypes(datatype.String, datatype.Object).
		WithProjections(group, topN).
		Build()
}
