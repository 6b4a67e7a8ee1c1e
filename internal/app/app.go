package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petems/voicetype/internal/audio"
	"github.com/petems/voicetype/internal/config"
	"github.com/rs/zerolog"
)

type Mode int

const (
	PushToTalk Mode = iota
	Toggle
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetProcessing()
	SetError()
}

// Consumer receives the audio captured during one push-to-talk or toggle
// cycle. Transcription lives behind this interface.
type Consumer interface {
	Consume(ctx context.Context, samples []float32, sampleRate int) error
}

type Config struct {
	Capture       *audio.Session
	Consumer      Consumer // Optional - can be nil
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

// App connects the hotkey and tray control surfaces to the capture session.
type App struct {
	capture  *audio.Session
	consumer Consumer
	cfg      *config.Config
	log      zerolog.Logger
	status   StatusUpdater

	mu sync.Mutex
}

func New(cfg Config) *App {
	return &App{
		capture:  cfg.Capture,
		consumer: cfg.Consumer,
		cfg:      cfg.Config,
		log:      cfg.Logger,
		status:   cfg.StatusUpdater,
	}
}

// OnHotkey is the hotkey callback. It always records the key state, then
// starts or stops capture according to the configured mode.
func (a *App) OnHotkey(pressed bool) {
	a.capture.SetKeyHeld(pressed)

	a.mu.Lock()
	defer a.mu.Unlock()

	mode := PushToTalk
	if a.cfg.Mode == config.ModeToggle {
		mode = Toggle
	}

	switch mode {
	case PushToTalk:
		if pressed {
			a.ensureStartedLocked(a.cfg.Audio.DeviceID)
		} else {
			a.stopLocked()
		}
	case Toggle:
		if !pressed {
			return
		}
		if !a.capture.Capturing() {
			a.ensureStartedLocked(a.cfg.Audio.DeviceID)
		} else {
			a.stopLocked()
		}
	}
}

// StartCapture starts capturing from the device with the given ordinal id.
// A running capture is replaced by one from the new device.
func (a *App) StartCapture(deviceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startLocked(deviceID)
}

// StopCapture pauses capture and hands the buffered audio to the consumer.
func (a *App) StopCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

// SetKeyHeld records the hotkey state without changing capture.
func (a *App) SetKeyHeld(held bool) {
	a.capture.SetKeyHeld(held)
}

// ensureStartedLocked starts capture unless it is already running, so key
// repeat does not restart the stream.
func (a *App) ensureStartedLocked(deviceID string) error {
	if a.capture.Capturing() {
		return nil
	}
	return a.startLocked(deviceID)
}

func (a *App) startLocked(deviceID string) error {
	a.log.Info().Str("device_id", deviceID).Msg("Starting capture")
	if err := a.capture.StartByID(deviceID); err != nil {
		a.log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to start capture")
		a.setError()
		return err
	}

	if a.status != nil {
		a.status.SetRecording()
	}
	return nil
}

func (a *App) stopLocked() error {
	if err := a.capture.Pause(); err != nil {
		if errors.Is(err, audio.ErrNoActiveStream) {
			return err
		}
		a.log.Error().Err(err).Msg("Failed to stop capture")
		a.setError()
		// Audio captured before the fault is still worth delivering.
	}

	if a.status != nil {
		a.status.SetProcessing()
	}

	samples := a.capture.Buffer().DrainAll()
	rate := a.capture.TargetRate()
	a.log.Info().
		Int("samples", len(samples)).
		Dur("duration", samplesDuration(len(samples), rate)).
		Msg("Capture stopped")

	if len(samples) == 0 || a.consumer == nil {
		if a.status != nil {
			a.status.SetIdle()
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.consumer.Consume(ctx, samples, rate); err != nil {
		a.log.Error().Err(err).Msg("Consumer error")
		a.setError()
		return fmt.Errorf("failed to consume captured audio: %w", err)
	}
	if a.status != nil {
		a.status.SetIdle()
	}
	return nil
}

func (a *App) setError() {
	if a.status != nil {
		a.status.SetError()
	}
}

func samplesDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.capture.Capturing() {
		a.stopLocked()
	}
	return a.capture.Close()
}

// Tray actions

func (a *App) SetMode(mode string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Mode = mode
	return a.cfg.Save()
}

func (a *App) SetDevice(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.capture.Capturing() {
		return fmt.Errorf("cannot change while capturing")
	}
	if _, err := a.capture.Registry().Resolve(id); err != nil {
		return err
	}

	a.cfg.Audio.DeviceID = id
	return a.cfg.Save()
}

func (a *App) IsCapturing() bool {
	return a.capture.Capturing()
}

func (a *App) ListDevices() ([]audio.AudioDevice, error) {
	return a.capture.Registry().List()
}

// LogConsumer is the default Consumer; it only records what was captured.
type LogConsumer struct {
	Logger zerolog.Logger
}

func (c LogConsumer) Consume(ctx context.Context, samples []float32, sampleRate int) error {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		peak = max(peak, s)
	}
	c.Logger.Info().
		Int("samples", len(samples)).
		Int("rate", sampleRate).
		Dur("duration", samplesDuration(len(samples), sampleRate)).
		Float32("peak", peak).
		Msg("Captured audio ready")
	return nil
}
