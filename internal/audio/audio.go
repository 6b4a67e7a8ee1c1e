// Package audio implements the capture pipeline: device enumeration, the
// hardware stream lifecycle, sample decoding, resampling and the ring buffer
// that holds the most recent audio for downstream transcription.
package audio

import (
	"github.com/rs/zerolog"

	"github.com/petems/voicetype/internal/config"
)

// Open builds a Session on the PortAudio host, sized from cfg.
func Open(cfg config.AudioConfig, log zerolog.Logger) (*Session, error) {
	host, err := NewPortAudioHost(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewSession(SessionConfig{
		Host:       host,
		Buffer:     NewRingBuffer(CapacityFor(cfg.TargetSampleRate, cfg.BufferSeconds)),
		TargetRate: cfg.TargetSampleRate,
		Downmix:    cfg.Downmix,
		Logger:     log,
	}), nil
}
