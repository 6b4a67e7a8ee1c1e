package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petems/voicetype/internal/audio"
	"github.com/petems/voicetype/internal/logging"
	"github.com/petems/voicetype/internal/wavdump"
)

type probeFlags struct {
	device   string
	duration time.Duration
	interval time.Duration
	wavPath  string
}

func newProbeCmd(root *rootFlags) *cobra.Command {
	var flags probeFlags

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Capture from a device for a while and report what reached the buffer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("device") {
				flags.device = cfg.Audio.DeviceID
			}
			log := logging.NewWithLevel(cfg.LogLevel)

			session, err := audio.Open(cfg.Audio, log)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			res, err := runProbe(ctx, session, flags, log)
			if err != nil {
				return err
			}
			res.print(cmd)

			if flags.wavPath != "" {
				if err := wavdump.WriteFile(flags.wavPath, res.samples, res.sampleRate, res.channels); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", flags.wavPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.device, "device", "d", "", "Device id from 'voicecap devices' (default: configured or system default)")
	cmd.Flags().DurationVar(&flags.duration, "duration", 5*time.Second, "How long to capture")
	cmd.Flags().DurationVar(&flags.interval, "drain-interval", 250*time.Millisecond, "How often the consumer drains the ring buffer")
	cmd.Flags().StringVar(&flags.wavPath, "wav", "", "Write the captured audio to this WAV file")
	return cmd
}

type probeResult struct {
	samples    []float32
	sampleRate int
	channels   int
	drains     int
	peak       float32
	stats      audio.Stats
}

// runProbe captures for flags.duration while a consumer goroutine drains the
// ring buffer, the same single-writer/single-reader pattern the app uses.
func runProbe(ctx context.Context, session *audio.Session, flags probeFlags, log zerolog.Logger) (*probeResult, error) {
	if flags.interval <= 0 {
		flags.interval = 250 * time.Millisecond
	}
	if err := session.StartByID(flags.device); err != nil {
		return nil, err
	}

	res := &probeResult{sampleRate: session.TargetRate(), channels: session.BufferedChannels()}
	captureCtx, stop := context.WithTimeout(ctx, flags.duration)
	defer stop()

	g, gctx := errgroup.WithContext(captureCtx)
	g.Go(func() error {
		ticker := time.NewTicker(flags.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				res.collect(session.Buffer().DrainAll())
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return session.Pause()
	})

	err := g.Wait()
	res.collect(session.Buffer().DrainAll())
	res.stats = session.Stats()
	if err != nil {
		log.Warn().Err(err).Msg("Probe ended with an error")
		return res, err
	}
	return res, nil
}

func (r *probeResult) collect(samples []float32) {
	if len(samples) == 0 {
		return
	}
	r.drains++
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		r.peak = max(r.peak, s)
	}
	r.samples = append(r.samples, samples...)
}

func (r *probeResult) print(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	seconds := float64(len(r.samples)/r.channels) / float64(r.sampleRate)
	fmt.Fprintf(out, "captured %d samples (%.2fs at %d Hz, %d ch) in %d drains, peak %.3f\n",
		len(r.samples), seconds, r.sampleRate, r.channels, r.drains, r.peak)
	fmt.Fprintf(out, "callbacks %d, frames in %d, written %d, empty blocks %d, faults %d\n",
		r.stats.Callbacks, r.stats.FramesIn, r.stats.SamplesWritten, r.stats.EmptyBlocks, r.stats.Faults)
}
