package audio

// HostDevice is an input device as reported by a Host, in enumeration order.
type HostDevice struct {
	Name    string
	Default bool
	// Ref is the backend's own handle for the device.
	Ref any
}

// StreamConfig is a device's native input configuration.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
}

// Stream is a live hardware input stream.
type Stream interface {
	// Start begins (or resumes) delivering callbacks.
	Start() error
	// Pause stops callbacks. It returns once no callback is running.
	Pause() error
	// Close releases the stream; it must not be used afterwards.
	Close() error
}

// Host provides the device and stream primitives of an audio backend.
type Host interface {
	Devices() ([]HostDevice, error)
	DefaultInputConfig(dev AudioDevice) (StreamConfig, error)
	// OpenInputStream builds a stream that calls onData once per hardware
	// block from the backend's audio thread, and onError on stream faults.
	// Blocks passed to onData are only valid for the duration of the call.
	OpenInputStream(dev AudioDevice, cfg StreamConfig, onData func(Block), onError func(error)) (Stream, error)
	Close() error
}
