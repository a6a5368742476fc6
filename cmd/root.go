package cmd

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/distplan/config"
	"github.com/cube2222/distplan/logs"
)

var (
	configPath string
	hexInput   bool

	cfg    *config.Config
	logger log.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "distplan",
	Short: "Inspect and exchange distributed merge fragments.",
	Example: `distplan encode --upstreams 3 > fragment.hex
distplan describe --hex fragment.hex
distplan roundtrip --hex fragment.hex
distplan catalog --relations`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return errors.Wrap(err, "couldn't read config")
		}
		logger, err = logs.New(cmd.ErrOrStderr(), cfg.Logging.Level)
		if err != nil {
			return errors.Wrap(err, "couldn't create logger")
		}
		return nil
	},
}

func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file, ~/.distplan/config.yaml by default.")
}

// readFrame reads a frame from the named file, or stdin for "-".
func readFrame(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't open frame file")
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read frame")
	}
	if !hexInput {
		return data, nil
	}
	decoded, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't decode hex frame")
	}
	return decoded, nil
}

func addHexFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&hexInput, "hex", false, "The frame is hex encoded.")
}
