package audio

import "sync/atomic"

// ControlState holds process-wide flags that any goroutine, including the
// audio callback, may read without locking.
type ControlState struct {
	// capturing holds the generation of the stream that is capturing, or 0.
	capturing atomic.Uint64
	keyHeld   atomic.Bool
}

// SetKeyHeld records whether the capture hotkey is physically held.
func (c *ControlState) SetKeyHeld(held bool) {
	c.keyHeld.Store(held)
}

// KeyHeld reports the last value passed to SetKeyHeld.
func (c *ControlState) KeyHeld() bool {
	return c.keyHeld.Load()
}

// Capturing reports whether a stream is started and not paused.
func (c *ControlState) Capturing() bool {
	return c.capturing.Load() != 0
}

func (c *ControlState) setCapturing(gen uint64) {
	c.capturing.Store(gen)
}

func (c *ControlState) clearCapturing() {
	c.capturing.Store(0)
}

// clearCapturingFor clears the flag only while gen still owns it, so a late
// fault from a replaced stream cannot clear its successor's flag.
func (c *ControlState) clearCapturingFor(gen uint64) bool {
	return c.capturing.CompareAndSwap(gen, 0)
}
