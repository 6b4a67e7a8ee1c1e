package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petems/voicetype/internal/audio"
	"github.com/petems/voicetype/internal/logging"
)

func newDevicesCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List input devices with their ordinal ids and native configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			log := logging.NewWithLevel(cfg.LogLevel)

			host, err := audio.NewPortAudioHost(cfg.Audio, log)
			if err != nil {
				return err
			}
			defer host.Close()

			return printDevices(cmd, audio.NewRegistry(host), host)
		},
	}
}

func printDevices(cmd *cobra.Command, reg *audio.Registry, host audio.Host) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRATE\tCHANNELS\tFORMAT\tDEFAULT")
	for dev, err := range reg.Devices() {
		if err != nil {
			return err
		}
		native, err := host.DefaultInputConfig(dev)
		if err != nil {
			return fmt.Errorf("device %s: %w", dev.ID, err)
		}
		def := ""
		if dev.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", dev.ID, dev.Name, native.SampleRate, native.Channels, native.Format, def)
	}
	return w.Flush()
}
