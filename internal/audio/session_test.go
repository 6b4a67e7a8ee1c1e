package audio_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/voicetype/internal/audio"
	"github.com/petems/voicetype/internal/audio/audiotest"
)

func newSession(host *audiotest.Host, targetRate int) *audio.Session {
	return audio.NewSession(audio.SessionConfig{
		Host:       host,
		TargetRate: targetRate,
		Logger:     zerolog.Nop(),
	})
}

func mic(name string, rate, channels int, format audio.SampleFormat) audiotest.Device {
	return audiotest.Device{
		Name:   name,
		Config: audio.StreamConfig{SampleRate: rate, Channels: channels, Format: format},
	}
}

func TestSessionPauseFromIdle(t *testing.T) {
	s := newSession(audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32)), 16000)

	assert.Equal(t, audio.Idle, s.State())
	require.ErrorIs(t, s.Pause(), audio.ErrNoActiveStream)
	assert.False(t, s.Capturing())
}

func TestSessionStartCapturesIntoBuffer(t *testing.T) {
	host := audiotest.NewHost(
		mic("a", 16000, 1, audio.FormatI16),
		mic("b", 44100, 1, audio.FormatI16),
		mic("c", 48000, 2, audio.FormatF32),
	)
	s := newSession(host, 10000)

	dev, err := s.Registry().Resolve("1")
	require.NoError(t, err)
	require.NoError(t, s.Start(dev))
	assert.Equal(t, audio.Capturing, s.State())
	assert.True(t, s.Capturing())

	// 100ms of a 440Hz tone at half scale.
	in := make([]int16, 4410)
	for i := range in {
		in[i] = int16(16384 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}
	require.True(t, host.Last().Emit(audio.Block{Format: audio.FormatI16, Channels: 1, I16: in}))
	assert.LessOrEqual(t, s.Buffer().Len(), 1000, "filter delay holds back the tail until pause")

	require.NoError(t, s.Pause())
	got := s.Buffer().DrainAll()
	require.Len(t, got, 1000)

	var peak float32
	for _, v := range got[100:900] {
		peak = max(peak, float32(math.Abs(float64(v))))
	}
	assert.InDelta(t, 0.5, peak, 0.15)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.Callbacks)
	assert.Equal(t, uint64(4410), stats.FramesIn)
	assert.Equal(t, uint64(1000), stats.SamplesWritten)
}

func TestSessionPreservesOrderAcrossBlocks(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID("0"))

	stream := host.Last()
	next := float32(0)
	for block := 0; block < 5; block++ {
		samples := make([]float32, 160)
		for i := range samples {
			samples[i] = next
			next++
		}
		require.True(t, stream.Emit(audio.Block{Format: audio.FormatF32, Channels: 1, F32: samples}))
	}

	got := s.Buffer().DrainAll()
	require.Len(t, got, 800)
	for i, v := range got {
		require.Equal(t, float32(i), v)
	}
}

func TestSessionStartTwiceReplacesStream(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)

	require.NoError(t, s.StartByID("0"))
	first := host.Last()
	require.NoError(t, s.StartByID("0"))
	second := host.Last()

	require.NotSame(t, first, second)
	assert.True(t, first.Closed())
	assert.True(t, second.Running())
	assert.Equal(t, 1, host.Live())
	assert.Equal(t, audio.Capturing, s.State())

	assert.False(t, first.Emit(audio.Block{Format: audio.FormatF32, Channels: 1, F32: []float32{1}}))
	assert.Zero(t, s.Buffer().Len())
}

func TestSessionPauseAndResume(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	block := audio.Block{Format: audio.FormatF32, Channels: 1, F32: []float32{0.1, 0.2}}

	require.NoError(t, s.StartByID("0"))
	require.True(t, host.Last().Emit(block))
	require.NoError(t, s.Pause())

	assert.Equal(t, audio.Paused, s.State())
	assert.False(t, s.Capturing())
	assert.False(t, host.Last().Emit(block), "paused stream must not deliver")
	require.ErrorIs(t, s.Pause(), audio.ErrNoActiveStream)

	require.NoError(t, s.StartByID("0"))
	assert.Equal(t, audio.Capturing, s.State())
	require.True(t, host.Last().Emit(block))

	assert.Equal(t, []float32{0.1, 0.2, 0.1, 0.2}, s.Buffer().DrainAll(), "prior session audio is kept")
	assert.Equal(t, 1, host.Live())
}

func TestSessionUnsupportedFormat(t *testing.T) {
	host := audiotest.NewHost(mic("u8 mic", 16000, 1, audio.FormatU8))
	s := newSession(host, 16000)
	s.Buffer().Write([]float32{0.5, 0.25})

	err := s.StartByID("0")
	require.ErrorIs(t, err, audio.ErrUnsupportedFormat)

	assert.Equal(t, audio.Idle, s.State())
	assert.False(t, s.Capturing())
	assert.Empty(t, host.Streams())
	assert.Equal(t, []float32{0.5, 0.25}, s.Buffer().Snapshot())
}

func TestSessionUnsupportedFormatKeepsCurrentStream(t *testing.T) {
	host := audiotest.NewHost(
		mic("good", 16000, 1, audio.FormatI16),
		mic("bad", 16000, 1, audio.FormatF64),
	)
	s := newSession(host, 16000)

	require.NoError(t, s.StartByID("0"))
	require.ErrorIs(t, s.StartByID("1"), audio.ErrUnsupportedFormat)

	assert.Equal(t, audio.Capturing, s.State())
	assert.True(t, host.Last().Running())
	dev, ok := s.Device()
	require.True(t, ok)
	assert.Equal(t, "good", dev.Name)
}

func TestSessionStartByIDErrors(t *testing.T) {
	host := audiotest.NewHost(
		mic("a", 16000, 1, audio.FormatF32),
		mic("b", 16000, 1, audio.FormatF32),
		mic("c", 16000, 1, audio.FormatF32),
	)
	s := newSession(host, 16000)

	require.ErrorIs(t, s.StartByID("99"), audio.ErrDeviceNotFound)
	require.ErrorIs(t, s.StartByID("first"), audio.ErrInvalidDeviceID)
	assert.Equal(t, audio.Idle, s.State())
}

func TestSessionOpenFailureLeavesIdle(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	host.OpenErr = errors.New("device busy")
	s := newSession(host, 16000)

	require.Error(t, s.StartByID("0"))
	assert.Equal(t, audio.Idle, s.State())
	assert.False(t, s.Capturing())
}

func TestSessionHardwareFault(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID("0"))

	host.Last().Fail(errors.New("device unplugged"))

	assert.True(t, s.Faulted())
	assert.False(t, s.Capturing())
	assert.Equal(t, audio.Capturing, s.State(), "state catches up on the next pause")
	assert.Equal(t, uint64(1), s.Stats().Faults)

	require.True(t, host.Last().Emit(audio.Block{Format: audio.FormatF32, Channels: 1, F32: []float32{1}}))
	assert.Zero(t, s.Buffer().Len(), "dead stream must not write")

	require.ErrorIs(t, s.Pause(), audio.ErrStreamDead)
	assert.Equal(t, audio.Idle, s.State())
	require.ErrorIs(t, s.Pause(), audio.ErrNoActiveStream)

	require.NoError(t, s.StartByID("0"))
	assert.Equal(t, audio.Capturing, s.State())
	assert.False(t, s.Faulted())
}

func TestSessionPauseFailureIsHardwareError(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	host.PauseErr = errors.New("stream stalled")
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID("0"))

	require.ErrorIs(t, s.Pause(), audio.ErrHardwareStream)
	assert.Equal(t, audio.Idle, s.State())
	assert.Equal(t, 0, host.Live())
}

func TestSessionDownmixesStereo(t *testing.T) {
	host := audiotest.NewHost(mic("stereo", 16000, 2, audio.FormatF32))
	s := audio.NewSession(audio.SessionConfig{
		Host:       host,
		TargetRate: 16000,
		Downmix:    true,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, s.StartByID("0"))

	host.Last().Emit(audio.Block{Format: audio.FormatF32, Channels: 2, F32: []float32{1, 0, 0.5, 0.5}})
	assert.Equal(t, []float32{0.5, 0.5}, s.Buffer().DrainAll())
}

func TestSessionResampledBlocksJoinAcrossCallbacks(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 48000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID("0"))

	// 200ms of tone in 512-frame callbacks, the way a backend delivers it.
	const frames = 9600
	in := make([]float32, frames)
	for i := range in {
		in[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	for off := 0; off < frames; off += 512 {
		require.True(t, host.Last().Emit(audio.Block{Format: audio.FormatF32, Channels: 1, F32: in[off:min(off+512, frames)]}))
	}
	require.NoError(t, s.Pause())

	got := s.Buffer().DrainAll()
	want := audio.Resample(in, 48000, 16000, 1)
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-4, "frame %d", i)
	}
	assert.Equal(t, uint64(frames), s.Stats().FramesIn)
}

func TestSessionBufferedChannels(t *testing.T) {
	host := audiotest.NewHost(mic("stereo", 16000, 2, audio.FormatF32))

	interleaved := newSession(host, 16000)
	assert.Equal(t, 1, interleaved.BufferedChannels())
	require.NoError(t, interleaved.StartByID("0"))
	assert.Equal(t, 2, interleaved.BufferedChannels())
	require.NoError(t, interleaved.Stop())

	mono := audio.NewSession(audio.SessionConfig{Host: host, TargetRate: 16000, Downmix: true, Logger: zerolog.Nop()})
	require.NoError(t, mono.StartByID("0"))
	assert.Equal(t, 1, mono.BufferedChannels())
}

// A fault from a stream that is being replaced must not clear the flag the
// replacement sets; run with -race.
func TestSessionLateFaultKeepsSuccessorCapturing(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID("0"))

	for i := 0; i < 200; i++ {
		old := host.Last()
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			old.Fail(errors.New("device unplugged"))
		}()
		require.NoError(t, s.StartByID("0"))
		wg.Wait()

		require.NotSame(t, old, host.Last())
		require.True(t, s.Capturing(), "iteration %d", i)
		require.False(t, s.Faulted())
	}
}

func TestSessionStopAndClose(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID(""))

	require.NoError(t, s.Stop())
	assert.Equal(t, audio.Idle, s.State())
	assert.True(t, host.Last().Closed())
	require.NoError(t, s.Stop())

	require.NoError(t, s.Close())
	assert.True(t, host.Closed())
}

func TestSessionKeyHeldFromManyGoroutines(t *testing.T) {
	s := newSession(audiotest.NewHost(), 16000)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(held bool) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.SetKeyHeld(held)
				_ = s.KeyHeld()
				_ = s.Capturing()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	s.SetKeyHeld(true)
	assert.True(t, s.KeyHeld())
	s.SetKeyHeld(false)
	assert.False(t, s.KeyHeld())
}

// Control calls race with the audio thread; run with -race.
func TestSessionConcurrentControlAndCallbacks(t *testing.T) {
	host := audiotest.NewHost(mic("mic", 16000, 1, audio.FormatF32))
	s := newSession(host, 16000)
	require.NoError(t, s.StartByID("0"))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		block := audio.Block{Format: audio.FormatF32, Channels: 1, F32: make([]float32, 160)}
		for {
			select {
			case <-stop:
				return
			default:
				for _, st := range host.Streams() {
					st.Emit(block)
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.Buffer().DrainAll()
			}
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.StartByID("0"))
		require.NoError(t, s.Pause())
		s.SetKeyHeld(i%2 == 0)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, audio.Paused, s.State())
	assert.Equal(t, 0, host.Live())
}
