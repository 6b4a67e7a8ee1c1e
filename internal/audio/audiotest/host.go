// Package audiotest provides an in-memory audio.Host for tests.
package audiotest

import (
	"errors"
	"sync"

	"github.com/petems/voicetype/internal/audio"
)

// Device describes one fake input device.
type Device struct {
	Name    string
	Default bool
	Config  audio.StreamConfig
}

// Host is a fake audio.Host. Streams it opens deliver blocks only when the
// test calls Stream.Emit.
type Host struct {
	mu      sync.Mutex
	devices []Device
	streams []*Stream
	closed  bool

	// OpenErr, when set, is returned by OpenInputStream.
	OpenErr error
	// PauseErr, when set, is returned by Pause on every opened stream.
	PauseErr error
}

func NewHost(devices ...Device) *Host {
	return &Host{devices: devices}
}

// SetDevices replaces the enumerated device list.
func (h *Host) SetDevices(devices ...Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devices = devices
}

func (h *Host) Devices() ([]audio.HostDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]audio.HostDevice, len(h.devices))
	for i, d := range h.devices {
		result[i] = audio.HostDevice{Name: d.Name, Default: d.Default, Ref: d.Name}
	}
	return result, nil
}

func (h *Host) DefaultInputConfig(dev audio.AudioDevice) (audio.StreamConfig, error) {
	d, err := h.lookup(dev)
	if err != nil {
		return audio.StreamConfig{}, err
	}
	return d.Config, nil
}

func (h *Host) OpenInputStream(dev audio.AudioDevice, cfg audio.StreamConfig, onData func(audio.Block), onError func(error)) (audio.Stream, error) {
	if _, err := h.lookup(dev); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	s := &Stream{
		Device:   dev,
		Config:   cfg,
		onData:   onData,
		onError:  onError,
		pauseErr: h.PauseErr,
	}
	h.streams = append(h.streams, s)
	return s, nil
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called.
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Streams returns every stream opened so far, oldest first.
func (h *Host) Streams() []*Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Stream(nil), h.streams...)
}

// Last returns the most recently opened stream, or nil.
func (h *Host) Last() *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.streams) == 0 {
		return nil
	}
	return h.streams[len(h.streams)-1]
}

// Live counts streams that are started and not closed.
func (h *Host) Live() int {
	n := 0
	for _, s := range h.Streams() {
		if s.Running() {
			n++
		}
	}
	return n
}

func (h *Host) lookup(dev audio.AudioDevice) (Device, error) {
	name, _ := dev.Handle().(string)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.devices {
		if d.Name == name {
			return d, nil
		}
	}
	return Device{}, errors.New("audiotest: unknown device " + dev.Name)
}

// Stream is a fake audio.Stream.
type Stream struct {
	Device audio.AudioDevice
	Config audio.StreamConfig

	mu       sync.Mutex
	onData   func(audio.Block)
	onError  func(error)
	pauseErr error
	started  bool
	closed   bool
}

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("audiotest: stream closed")
	}
	s.started = true
	return nil
}

func (s *Stream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseErr != nil {
		return s.pauseErr
	}
	s.started = false
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.closed = true
	return nil
}

// Running reports whether the stream would currently deliver callbacks.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.closed
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Emit delivers one block through the data callback, as the backend's audio
// thread would. It reports false and drops the block when the stream is not
// running. The stream lock is held for the call, mirroring a backend whose
// stop waits for the in-flight callback.
func (s *Stream) Emit(b audio.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return false
	}
	s.onData(b)
	return true
}

// Fail reports an asynchronous stream fault.
func (s *Stream) Fail(err error) {
	s.onError(err)
}
