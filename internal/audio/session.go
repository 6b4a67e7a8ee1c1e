package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CaptureState is the lifecycle state of a Session.
type CaptureState int

const (
	Idle CaptureState = iota
	Capturing
	Paused
)

func (s CaptureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("CaptureState(%d)", int(s))
}

// DefaultTargetRate is the pipeline's canonical sample rate.
const DefaultTargetRate = 16000

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Host     Host
	Registry *Registry     // defaults to NewRegistry(Host)
	Buffer   *RingBuffer   // defaults to 60s at TargetRate
	State    *ControlState // defaults to a fresh ControlState
	// TargetRate is the rate samples are resampled to before buffering.
	TargetRate int
	// Downmix averages multi-channel input to mono before buffering.
	Downmix bool
	Logger  zerolog.Logger
}

// Stats are running counters for the hot path. EmptyBlocks counts callbacks
// that put nothing into the buffer, including those still filling the
// resampler's filter delay.
type Stats struct {
	Callbacks      uint64
	FramesIn       uint64
	SamplesWritten uint64
	EmptyBlocks    uint64
	Faults         uint64
}

// Session owns the single live capture stream and wires its callback to
// Decode, a StreamResampler and the ring buffer. Start, Pause and Stop are serialized;
// the audio callback never takes the session lock.
type Session struct {
	host       Host
	registry   *Registry
	buf        *RingBuffer
	ctl        *ControlState
	targetRate int
	downmix    bool
	log        zerolog.Logger

	mu    sync.Mutex
	state CaptureState
	gen   uint64
	live  atomic.Pointer[liveStream]

	callbacks      atomic.Uint64
	framesIn       atomic.Uint64
	samplesWritten atomic.Uint64
	emptyBlocks    atomic.Uint64
	faults         atomic.Uint64
}

type liveStream struct {
	id     uuid.UUID
	gen    uint64
	device AudioDevice
	cfg    StreamConfig
	stream Stream
	dead   atomic.Bool

	// Touched from the audio callback, and by the session only once the
	// stream has stopped delivering.
	scratch []float32
	rs      *StreamResampler
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.TargetRate <= 0 {
		cfg.TargetRate = DefaultTargetRate
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry(cfg.Host)
	}
	if cfg.Buffer == nil {
		cfg.Buffer = NewRingBuffer(CapacityFor(cfg.TargetRate, 60))
	}
	if cfg.State == nil {
		cfg.State = &ControlState{}
	}
	return &Session{
		host:       cfg.Host,
		registry:   cfg.Registry,
		buf:        cfg.Buffer,
		ctl:        cfg.State,
		targetRate: cfg.TargetRate,
		downmix:    cfg.Downmix,
		log:        cfg.Logger,
	}
}

// StartByID resolves id through the registry and starts capturing from it.
// An empty id selects the default input device.
func (s *Session) StartByID(id string) error {
	var (
		dev AudioDevice
		err error
	)
	if id == "" {
		dev, err = s.registry.Default()
	} else {
		dev, err = s.registry.Resolve(id)
	}
	if err != nil {
		return err
	}
	return s.Start(dev)
}

// Start begins capturing from dev. A running or paused stream is torn down
// first, so at most one stream is ever live. If the device's native format
// cannot be decoded, Start fails before touching the current stream.
func (s *Session) Start(dev AudioDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.host.DefaultInputConfig(dev)
	if err != nil {
		return fmt.Errorf("failed to get input config for %q: %w", dev.Name, err)
	}
	if !cfg.Format.Supported() {
		return fmt.Errorf("%w: device %q delivers %s", ErrUnsupportedFormat, dev.Name, cfg.Format)
	}
	if cfg.SampleRate <= 0 || cfg.Channels < 1 {
		return fmt.Errorf("invalid input config for %q: %d Hz, %d channels", dev.Name, cfg.SampleRate, cfg.Channels)
	}
	rs, err := NewStreamResampler(cfg.SampleRate, s.targetRate, cfg.Channels)
	if err != nil {
		return err
	}

	s.teardownLocked()

	s.gen++
	ls := &liveStream{
		id:     uuid.New(),
		gen:    s.gen,
		device: dev,
		cfg:    cfg,
		rs:     rs,
	}
	stream, err := s.host.OpenInputStream(dev, cfg, s.onData(ls), s.onError(ls))
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	ls.stream = stream
	s.live.Store(ls)

	if err := stream.Start(); err != nil {
		s.live.Store(nil)
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	s.state = Capturing
	s.ctl.setCapturing(ls.gen)

	s.log.Info().
		Str("session", ls.id.String()).
		Str("device", dev.Name).
		Int("rate", cfg.SampleRate).
		Int("channels", cfg.Channels).
		Stringer("format", cfg.Format).
		Int("target_rate", s.targetRate).
		Msg("Capture started")
	return nil
}

// Pause stops the live stream from producing callbacks and flushes the
// resampler tail into the buffer. The stream is kept and buffered samples are
// left in place.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls := s.live.Load()
	if ls == nil || s.state == Idle {
		return ErrNoActiveStream
	}
	if ls.dead.Load() {
		s.teardownLocked()
		return fmt.Errorf("%w: session %s", ErrStreamDead, ls.id)
	}
	if s.state != Capturing {
		return fmt.Errorf("%w: capture already paused", ErrNoActiveStream)
	}

	if err := ls.stream.Pause(); err != nil {
		ls.dead.Store(true)
		s.faults.Add(1)
		s.teardownLocked()
		s.log.Error().Err(err).Str("session", ls.id.String()).Msg("Failed to pause stream")
		return fmt.Errorf("%w: %w", ErrHardwareStream, err)
	}

	s.state = Paused
	s.ctl.clearCapturing()
	s.flushLocked(ls)
	s.log.Info().
		Str("session", ls.id.String()).
		Int("buffered", s.buf.Len()).
		Msg("Capture paused")
	return nil
}

// Stop tears down any stream and returns the session to Idle.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	return nil
}

// Close stops capture and releases the host.
func (s *Session) Close() error {
	s.Stop()
	return s.host.Close()
}

func (s *Session) teardownLocked() {
	ls := s.live.Swap(nil)
	s.state = Idle
	s.ctl.clearCapturing()
	if ls == nil {
		return
	}
	if err := ls.stream.Close(); err != nil {
		s.log.Warn().Err(err).Str("session", ls.id.String()).Msg("Failed to close stream")
	}
	if !ls.dead.Load() {
		s.flushLocked(ls)
	}
	s.log.Debug().Str("session", ls.id.String()).Msg("Stream torn down")
}

// flushLocked writes the resampler's filter tail once the stream has stopped
// delivering callbacks. A second flush of the same stream writes nothing.
func (s *Session) flushLocked(ls *liveStream) {
	tail, err := ls.rs.Flush()
	if err != nil {
		s.log.Warn().Err(err).Str("session", ls.id.String()).Msg("Failed to flush resampler")
		return
	}
	if len(tail) > 0 {
		s.store(ls, tail)
	}
}

func (s *Session) store(ls *liveStream, out []float32) {
	if channels := ls.cfg.Channels; s.downmix && channels > 1 {
		out = downmixInterleaved(out, channels, len(out)/channels)
	}
	s.buf.Write(out)
	s.samplesWritten.Add(uint64(len(out)))
}

func (s *Session) onData(ls *liveStream) func(Block) {
	return func(b Block) {
		if ls.dead.Load() {
			return
		}
		s.callbacks.Add(1)

		ls.scratch = Decode(ls.scratch, b)
		channels := ls.cfg.Channels
		s.framesIn.Add(uint64(len(ls.scratch) / channels))

		out, err := ls.rs.Process(ls.scratch)
		if err != nil || len(out) == 0 {
			s.emptyBlocks.Add(1)
			return
		}
		s.store(ls, out)
	}
}

func (s *Session) onError(ls *liveStream) func(error) {
	return func(err error) {
		if ls.dead.Swap(true) {
			return
		}
		s.faults.Add(1)
		s.ctl.clearCapturingFor(ls.gen)
		s.log.Error().
			Err(fmt.Errorf("%w: %w", ErrHardwareStream, err)).
			Str("session", ls.id.String()).
			Str("device", ls.device.Name).
			Msg("Audio stream fault")
	}
}

// State returns the lifecycle state. An asynchronous stream fault does not
// change it: the session stays Capturing, with Capturing and Faulted
// reporting the fault, until the next Pause or Start tears the dead stream
// down.
func (s *Session) State() CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Device returns the device of the live stream, if any.
func (s *Session) Device() (AudioDevice, bool) {
	ls := s.live.Load()
	if ls == nil {
		return AudioDevice{}, false
	}
	return ls.device, true
}

// Faulted reports whether the live stream has reported a hardware fault.
func (s *Session) Faulted() bool {
	ls := s.live.Load()
	return ls != nil && ls.dead.Load()
}

// BufferedChannels reports how many interleaved channels the current stream
// writes into the buffer. It is 1 when downmixing or when no stream is open.
func (s *Session) BufferedChannels() int {
	ls := s.live.Load()
	if ls == nil || s.downmix {
		return 1
	}
	return ls.cfg.Channels
}

// Buffer returns the ring buffer the session writes into.
func (s *Session) Buffer() *RingBuffer {
	return s.buf
}

// Registry returns the device registry used by StartByID.
func (s *Session) Registry() *Registry {
	return s.registry
}

// TargetRate returns the rate of samples in the buffer.
func (s *Session) TargetRate() int {
	return s.targetRate
}

// SetKeyHeld records the hotkey state; safe from any goroutine.
func (s *Session) SetKeyHeld(held bool) {
	s.ctl.SetKeyHeld(held)
}

// KeyHeld reports the hotkey state.
func (s *Session) KeyHeld() bool {
	return s.ctl.KeyHeld()
}

// Capturing reports whether a stream is started and not paused.
func (s *Session) Capturing() bool {
	return s.ctl.Capturing()
}

func (s *Session) Stats() Stats {
	return Stats{
		Callbacks:      s.callbacks.Load(),
		FramesIn:       s.framesIn.Load(),
		SamplesWritten: s.samplesWritten.Load(),
		EmptyBlocks:    s.emptyBlocks.Load(),
		Faults:         s.faults.Load(),
	}
}
