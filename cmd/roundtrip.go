package cmd

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/cube2222/distplan/codec"
	"github.com/cube2222/distplan/fragment"
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <frame file>",
	Short: "Decode and re-encode a merge fragment, reporting any difference.",
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

		reencoded := fragment.MarshalFrameVersion(f, frame.Version)
		if bytes.Equal(data, reencoded) {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ok: %d bytes, protocol version %s\n", len(data), frame.Version)
			return err
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(hex.Dump(data)),
			B:        difflib.SplitLines(hex.Dump(reencoded)),
			FromFile: "Received Frame",
			ToFile:   "Reencoded Frame",
			Context:  2,
		})
		if err != nil {
			return errors.Wrap(err, "couldn't diff frames")
		}
		fmt.Fprintln(cmd.OutOrStdout(), diff)
		return errors.Errorf("reencoded frame differs from the received one")
	},
}

func init() {
	addHexFlag(roundtripCmd)
	rootCmd.AddCommand(roundtripCmd)
}
