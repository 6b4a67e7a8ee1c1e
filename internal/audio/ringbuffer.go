package audio

import (
	"math/bits"
	"sync"
)

// RingBuffer is a fixed-capacity circular buffer of decoded samples.
// When full, the oldest unread samples are overwritten, so the buffer always
// holds a sliding window of the most recent audio.
//
// Writes come from the audio callback and drains from a single consumer.
// The mutex is only ever held for index arithmetic and the copy itself.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []float32
	mask uint64
	head uint64 // total samples ever written
	tail uint64 // first unread sample
}

// NewRingBuffer allocates a buffer holding at least minCapacity samples,
// rounded up to the next power of two.
func NewRingBuffer(minCapacity int) *RingBuffer {
	c := nextPowerOfTwo(minCapacity)
	return &RingBuffer{
		buf:  make([]float32, c),
		mask: uint64(c - 1),
	}
}

// CapacityFor returns the sample count needed for seconds of audio at rate.
func CapacityFor(rate, seconds int) int {
	return nextPowerOfTwo(rate * seconds)
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Push appends one sample, evicting the oldest when full.
func (r *RingBuffer) Push(sample float32) {
	r.mu.Lock()
	r.buf[r.head&r.mask] = sample
	r.head++
	if r.head-r.tail > uint64(len(r.buf)) {
		r.tail = r.head - uint64(len(r.buf))
	}
	r.mu.Unlock()
}

// Write appends samples in order, evicting the oldest as needed.
func (r *RingBuffer) Write(samples []float32) {
	if len(samples) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := uint64(len(r.buf))
	n := uint64(len(samples))
	if n > c {
		// Only the newest c samples survive; account for the skipped ones.
		r.head += n - c
		samples = samples[n-c:]
		n = c
	}

	start := r.head & r.mask
	first := copy(r.buf[start:], samples)
	copy(r.buf, samples[first:])

	r.head += n
	if r.head-r.tail > c {
		r.tail = r.head - c
	}
}

// DrainAll removes and returns every buffered sample, oldest first.
func (r *RingBuffer) DrainAll() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.copyLocked()
	r.tail = r.head
	return out
}

// Snapshot returns the buffered samples without consuming them.
func (r *RingBuffer) Snapshot() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyLocked()
}

func (r *RingBuffer) copyLocked() []float32 {
	n := r.head - r.tail
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	start := r.tail & r.mask
	first := copy(out, r.buf[start:])
	copy(out[first:], r.buf[:n-uint64(first)])
	return out
}

// Len returns the number of unread samples.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.head - r.tail)
}

// Cap returns the fixed capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}
