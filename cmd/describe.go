package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/datatype"
	"github.com/cube2222/distplan/fragment"
	"github.com/cube2222/distplan/graph"
)

var (
	describeDump     bool
	describeDot      bool
	describeExplain  bool
	describeTypeInfo bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <frame file>",
	Short: "Describe an encoded merge fragment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readFrame(cmd, args[0])
		if err != nil {
			return err
		}
		accepted, err := cfg.AcceptedVersions()
		if err != nil {
			return err
		}
		frame, err := codec.ReadFrame(data, accepted)
		if err != nil {
			return err
		}
		f, err := fragment.Unmarshal(frame.Body, cfg.DecoderOptions()...)
		if err != nil {
			return errors.Wrap(err, "couldn't decode merge fragment")
		}

		w := cmd.OutOrStdout()
		switch {
		case describeDump:
			spew.Fdump(w, f)
			return nil
		case describeDot:
			g, err := graph.Show(fragment.Explain(f, describeTypeInfo))
			if err != nil {
				return errors.Wrap(err, "couldn't build graph")
			}
			_, err = fmt.Fprintln(w, g.String())
			return err
		case describeExplain:
			return graph.WriteText(w, fragment.Explain(f, describeTypeInfo))
		}

		describeFragment(w, frame, f)
		return nil
	},
}

func init() {
	addHexFlag(describeCmd)
	describeCmd.Flags().BoolVar(&describeDump, "dump", false, "Dump the decoded structure.")
	describeCmd.Flags().BoolVar(&describeDot, "dot", false, "Print the explain graph in graphviz format.")
	describeCmd.Flags().BoolVar(&describeExplain, "explain", false, "Print the explain tree.")
	describeCmd.Flags().BoolVar(&describeTypeInfo, "types", false, "Include types in the explain graph.")
	rootCmd.AddCommand(describeCmd)
}

func describeFragment(w io.Writer, frame codec.Frame, f *fragment.MergeFragment) {
	summary := newTable(w, "field", "value")
	summary.Append([]string{"id", f.ID().String()})
	summary.Append([]string{"protocol version", frame.Version.String()})
	summary.Append([]string{"upstreams", strconv.Itoa(f.Upstreams())})
	summary.Append([]string{"nodes", strings.Join(f.Nodes(), ", ")})
	summary.Append([]string{"input types", typesString(f.InputTypes())})
	summary.Append([]string{"output types", typesString(f.OutputTypes())})
	summary.Render()

	projections := newTable(w, "#", "kind", "outputs", "projection")
	for i, p := range f.Projections() {
		projections.Append([]string{
			strconv.Itoa(i),
			p.ProjectionType.String(),
			strconv.Itoa(len(p.Outputs())),
			p.String(),
		})
	}
	projections.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetColWidth(64)
	table.SetRowLine(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

func typesString(types []datatype.Type) string {
	out := make([]string, len(types))
	for i := range types {
		out[i] = types[i].String()
	}
	return "[" + strings.Join(out, ", ") + "]"
}
