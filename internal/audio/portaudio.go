package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/petems/voicetype/internal/config"
)

type portAudioHost struct {
	format          SampleFormat
	framesPerBuffer int
	log             zerolog.Logger
}

// NewPortAudioHost initializes PortAudio. PortAudio converts to whatever
// sample format is requested, so the "native" format reported for every
// device is the one configured in cfg.SampleFormat.
func NewPortAudioHost(cfg config.AudioConfig, log zerolog.Logger) (Host, error) {
	format, err := ParseSampleFormat(cfg.SampleFormat)
	if err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioHost{
		format:          format,
		framesPerBuffer: cfg.FramesPerBuffer,
		log:             log,
	}, nil
}

func (p *portAudioHost) Devices() ([]HostDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]HostDevice, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, HostDevice{
				Name:    d.Name,
				Default: d == defaultDevice,
				Ref:     d,
			})
		}
	}
	return result, nil
}

func (p *portAudioHost) DefaultInputConfig(dev AudioDevice) (StreamConfig, error) {
	info, err := deviceInfo(dev)
	if err != nil {
		return StreamConfig{}, err
	}
	return StreamConfig{
		SampleRate: int(info.DefaultSampleRate),
		Channels:   inputChannels(info.MaxInputChannels),
		Format:     p.format,
	}, nil
}

func (p *portAudioHost) OpenInputStream(dev AudioDevice, cfg StreamConfig, onData func(Block), onError func(error)) (Stream, error) {
	info, err := deviceInfo(dev)
	if err != nil {
		return nil, err
	}

	s := &portAudioStream{log: p.log.With().Str("device", info.Name).Logger()}
	channels := cfg.Channels

	var callback any
	switch cfg.Format {
	case FormatI8:
		callback = func(in []int8, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.note(flags)
			onData(Block{Format: FormatI8, Channels: channels, I8: in})
		}
	case FormatI16:
		callback = func(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.note(flags)
			onData(Block{Format: FormatI16, Channels: channels, I16: in})
		}
	case FormatI32:
		callback = func(in []int32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.note(flags)
			onData(Block{Format: FormatI32, Channels: channels, I32: in})
		}
	case FormatF32:
		callback = func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			s.note(flags)
			onData(Block{Format: FormatF32, Channels: channels, F32: in})
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, cfg.Format)
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: p.framesPerBuffer,
	}, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	s.stream = stream
	s.onError = onError
	return s, nil
}

func (p *portAudioHost) Close() error {
	return portaudio.Terminate()
}

func deviceInfo(dev AudioDevice) (*portaudio.DeviceInfo, error) {
	info, ok := dev.Handle().(*portaudio.DeviceInfo)
	if !ok || info == nil {
		return nil, fmt.Errorf("%w: %q is not a PortAudio device", ErrDeviceNotFound, dev.Name)
	}
	return info, nil
}

// inputChannels caps capture at stereo; wider interfaces are rarely useful
// for dictation and multiply resampling cost.
func inputChannels(available int) int {
	switch {
	case available < 1:
		return 1
	case available > 2:
		return 2
	}
	return available
}

// portAudioStream adapts a callback-driven PortAudio stream.
type portAudioStream struct {
	stream  *portaudio.Stream
	onError func(error)
	log     zerolog.Logger

	overflows atomic.Uint64
}

// note counts input overflows from the callback; they are reported when the
// stream is paused or closed rather than logged from the audio thread.
func (s *portAudioStream) note(flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.InputOverflow != 0 {
		s.overflows.Add(1)
	}
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	return nil
}

func (s *portAudioStream) Pause() error {
	defer s.reportOverflows()
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop audio stream: %w", err)
	}
	return nil
}

func (s *portAudioStream) Close() error {
	defer s.reportOverflows()
	if err := s.stream.Close(); err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return fmt.Errorf("failed to close audio stream: %w", err)
	}
	return nil
}

func (s *portAudioStream) reportOverflows() {
	if n := s.overflows.Swap(0); n > 0 {
		s.log.Warn().Uint64("overflows", n).Msg("Input overflowed; samples were dropped by the driver")
	}
}
