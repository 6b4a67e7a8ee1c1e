package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(frames, rate int, freq, amplitude float64) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestResampleDurationLaw(t *testing.T) {
	tests := []struct {
		name     string
		frames   int
		src, dst int
		channels int
	}{
		{name: "44.1k to 10k", frames: 4410, src: 44100, dst: 10000, channels: 1},
		{name: "48k to 16k", frames: 480, src: 48000, dst: 16000, channels: 1},
		{name: "44.1k to 16k stereo", frames: 512, src: 44100, dst: 16000, channels: 2},
		{name: "8k to 16k", frames: 160, src: 8000, dst: 16000, channels: 1},
		{name: "22.05k to 16k", frames: 1000, src: 22050, dst: 16000, channels: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]float32, tt.frames*tt.channels)
			copy(in, sine(len(in), tt.src, 440, 0.5))

			out := Resample(in, tt.src, tt.dst, tt.channels)
			want := math.Round(float64(tt.frames) * float64(tt.dst) / float64(tt.src))

			require.Zero(t, len(out)%tt.channels)
			assert.Equal(t, int(want), len(out)/tt.channels)
		})
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, -0.4}
	out := Resample(in, 16000, 16000, 2)

	assert.Equal(t, in, out)
	out[0] = 9
	assert.Equal(t, float32(0.1), in[0], "identity must not alias the input")
}

func TestResampleFailuresYieldEmpty(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}

	assert.Empty(t, Resample(in, 0, 16000, 1))
	assert.Empty(t, Resample(in, 44100, 0, 1))
	assert.Empty(t, Resample(in, 44100, 16000, 0))
	assert.Empty(t, Resample(in, 44100, 16000, 2), "ragged interleaving")
	assert.Empty(t, Resample(nil, 44100, 16000, 1))
}

func TestResamplePreservesInterleaving(t *testing.T) {
	const frames = 2048
	in := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		in[2*i] = 0.5
		in[2*i+1] = -0.5
	}

	out := Resample(in, 48000, 16000, 2)
	require.NotEmpty(t, out)

	mid := (len(out) / 2) &^ 1
	assert.Greater(t, out[mid], float32(0.25))
	assert.Less(t, out[mid+1], float32(-0.25))
}

func TestStreamResamplerMatchesOneShot(t *testing.T) {
	const (
		src, dst = 48000, 16000
		block    = 512
	)
	// 250ms with a tone loud enough that a restarted filter would ring at
	// every block edge.
	in := sine(12000, src, 440, 0.8)
	whole := Resample(in, src, dst, 1)
	require.Len(t, whole, 4000)

	r, err := NewStreamResampler(src, dst, 1)
	require.NoError(t, err)

	var got []float32
	for off := 0; off < len(in); off += block {
		out, err := r.Process(in[off:min(off+block, len(in))])
		require.NoError(t, err)
		got = append(got, out...)
	}
	tail, err := r.Flush()
	require.NoError(t, err)
	got = append(got, tail...)

	require.Len(t, got, len(whole))
	for i := range whole {
		require.InDelta(t, whole[i], got[i], 1e-4, "frame %d", i)
	}
}

func TestStreamResamplerStereoStaysAligned(t *testing.T) {
	r, err := NewStreamResampler(44100, 16000, 2)
	require.NoError(t, err)

	block := make([]float32, 2*441)
	for i := 0; i < len(block); i += 2 {
		block[i] = 0.5
		block[i+1] = -0.5
	}
	var got []float32
	for i := 0; i < 20; i++ {
		out, err := r.Process(block)
		require.NoError(t, err)
		require.Zero(t, len(out)%2)
		got = append(got, out...)
	}
	tail, err := r.Flush()
	require.NoError(t, err)
	got = append(got, tail...)

	require.Len(t, got, 2*3200)
	mid := (len(got) / 2) &^ 1
	assert.Greater(t, got[mid], float32(0.25))
	assert.Less(t, got[mid+1], float32(-0.25))
}

func TestStreamResamplerPassThrough(t *testing.T) {
	r, err := NewStreamResampler(16000, 16000, 1)
	require.NoError(t, err)

	in := []float32{0.1, 0.2, 0.3}
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	tail, err := r.Flush()
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestStreamResamplerRejectsMisuse(t *testing.T) {
	_, err := NewStreamResampler(0, 16000, 1)
	require.Error(t, err)

	r, err := NewStreamResampler(48000, 16000, 2)
	require.NoError(t, err)
	_, err = r.Process([]float32{0.1, 0.2, 0.3})
	require.Error(t, err, "ragged interleaving")

	_, err = r.Flush()
	require.NoError(t, err)
	tail, err := r.Flush()
	require.NoError(t, err)
	assert.Empty(t, tail, "second flush is a no-op")
	_, err = r.Process([]float32{0.1, 0.2})
	require.Error(t, err, "process after flush")
}
