package audio

import (
	"fmt"
	"math"

	resampler "github.com/tphakala/go-audio-resampler"
)

// monoEngine is one channel of the streaming polyphase resampler.
type monoEngine interface {
	Process(in []float32) ([]float32, error)
	Flush() ([]float32, error)
}

func newMonoEngine(srcRate, dstRate int) (monoEngine, error) {
	return resampler.NewEngineFloat32(float64(srcRate), float64(dstRate), resampler.QualityHigh)
}

// StreamResampler converts one continuous interleaved stream between rates,
// carrying filter history from block to block. It is not safe for concurrent
// use; a capture stream owns one and feeds it from its callback.
type StreamResampler struct {
	srcRate, dstRate, channels int

	engines []monoEngine // nil when the rates match
	planes  [][]float32
	outs    [][]float32
	last    []float32 // most recent output frame, used to pad the tail

	framesIn  int64
	framesOut int64
	flushed   bool
}

func NewStreamResampler(srcRate, dstRate, channels int) (*StreamResampler, error) {
	if srcRate <= 0 || dstRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("invalid resampler config: %d Hz to %d Hz, %d channels", srcRate, dstRate, channels)
	}
	r := &StreamResampler{
		srcRate:  srcRate,
		dstRate:  dstRate,
		channels: channels,
		planes:   make([][]float32, channels),
		outs:     make([][]float32, channels),
		last:     make([]float32, channels),
	}
	if srcRate != dstRate {
		if err := r.reset(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *StreamResampler) reset() error {
	engines := make([]monoEngine, r.channels)
	for ch := range engines {
		e, err := newMonoEngine(r.srcRate, r.dstRate)
		if err != nil {
			return fmt.Errorf("failed to build resampler: %w", err)
		}
		engines[ch] = e
	}
	r.engines = engines
	return nil
}

// Process feeds one interleaved block and returns the output frames the
// filter has ready, which lags the input by the filter delay. On error the
// block is dropped and the filter restarts from silence.
func (r *StreamResampler) Process(samples []float32) ([]float32, error) {
	if r.flushed {
		return nil, fmt.Errorf("resampler already flushed")
	}
	if len(samples)%r.channels != 0 {
		return nil, fmt.Errorf("%d samples is not a whole number of %d-channel frames", len(samples), r.channels)
	}
	frames := len(samples) / r.channels
	if frames == 0 {
		return nil, nil
	}

	if r.engines == nil {
		out := make([]float32, len(samples))
		copy(out, samples)
		copy(r.last, out[len(out)-r.channels:])
		r.framesIn += int64(frames)
		r.framesOut += int64(frames)
		return out, nil
	}

	for ch := 0; ch < r.channels; ch++ {
		plane := r.plane(ch, frames)
		for i := range plane {
			plane[i] = samples[i*r.channels+ch]
		}
		converted, err := r.engines[ch].Process(plane)
		if err != nil {
			// Channels must stay in step, so every engine restarts.
			if rerr := r.reset(); rerr != nil {
				return nil, fmt.Errorf("%w (restart: %w)", err, rerr)
			}
			return nil, err
		}
		r.outs[ch] = converted
	}
	r.framesIn += int64(frames)
	return r.interleave(r.expected() - r.framesOut), nil
}

// Flush drains the filter tail. Together with everything Process returned,
// the stream then holds exactly round(framesIn*dstRate/srcRate) frames; a
// short tail is padded by holding the last frame. Flush ends the stream.
func (r *StreamResampler) Flush() ([]float32, error) {
	if r.flushed {
		return nil, nil
	}
	r.flushed = true

	var out []float32
	if r.engines != nil && r.framesIn > 0 {
		for ch, e := range r.engines {
			tail, err := e.Flush()
			if err != nil {
				return nil, fmt.Errorf("failed to flush resampler: %w", err)
			}
			r.outs[ch] = tail
		}
		out = r.interleave(r.expected() - r.framesOut)
	}
	for r.framesOut < r.expected() {
		out = append(out, r.last...)
		r.framesOut++
	}
	return out, nil
}

// expected is the output length the input so far maps to.
func (r *StreamResampler) expected() int64 {
	return int64(math.Round(float64(r.framesIn) * float64(r.dstRate) / float64(r.srcRate)))
}

func (r *StreamResampler) plane(ch, frames int) []float32 {
	if cap(r.planes[ch]) < frames {
		r.planes[ch] = make([]float32, frames)
	}
	r.planes[ch] = r.planes[ch][:frames]
	return r.planes[ch]
}

// interleave merges r.outs into a new slice, emitting at most limit frames.
func (r *StreamResampler) interleave(limit int64) []float32 {
	n := len(r.outs[0])
	for _, o := range r.outs[1:] {
		n = min(n, len(o))
	}
	n = int(min(int64(n), max(limit, 0)))
	if n == 0 {
		return nil
	}

	out := make([]float32, n*r.channels)
	for ch, o := range r.outs {
		for i := 0; i < n; i++ {
			out[i*r.channels+ch] = o[i]
		}
		r.last[ch] = o[n-1]
	}
	r.framesOut += int64(n)
	return out
}

// Resample converts a complete interleaved signal from srcRate to dstRate.
// The result holds round(frames*dstRate/srcRate) frames. Any failure yields
// an empty result.
func Resample(samples []float32, srcRate, dstRate, channels int) []float32 {
	if channels < 1 || len(samples) == 0 || len(samples)%channels != 0 {
		return nil
	}
	r, err := NewStreamResampler(srcRate, dstRate, channels)
	if err != nil {
		return nil
	}
	out, err := r.Process(samples)
	if err != nil {
		return nil
	}
	tail, err := r.Flush()
	if err != nil {
		return nil
	}
	return append(out, tail...)
}

// downmixInterleaved averages interleaved channels into a new mono slice.
func downmixInterleaved(input []float32, channels, frames int) []float32 {
	if channels <= 1 {
		out := make([]float32, frames)
		copy(out, input)
		return out
	}

	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		base := f * channels
		for c := 0; c < channels; c++ {
			sum += input[base+c]
		}
		out[f] = sum / float32(channels)
	}
	return out
}
