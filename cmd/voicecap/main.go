// Command voicecap exercises the capture pipeline without the tray: it lists
// input devices and records a probe from one of them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petems/voicetype/internal/config"
	"github.com/petems/voicetype/internal/logging"
)

type rootFlags struct {
	configDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "voicecap",
		Short:         "Inspect audio input devices and the capture pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "Directory holding config.json/config.yaml (default: platform config dir)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(newDevicesCmd(&flags))
	cmd.AddCommand(newProbeCmd(&flags))
	return cmd
}

func (f *rootFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configDir != "" {
		cfg, err = config.LoadFrom(f.configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log := logging.New()
		log.Error().Err(err).Msg("voicecap failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
