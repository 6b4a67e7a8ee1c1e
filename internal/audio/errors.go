package audio

import "errors"

var (
	// ErrInvalidDeviceID is returned when a device id is not a non-negative ordinal.
	ErrInvalidDeviceID = errors.New("invalid device id")
	// ErrDeviceNotFound is returned when a device ordinal is past the end of the
	// current enumeration.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrUnsupportedFormat is returned by Session.Start when the device's native
	// sample format cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrNoActiveStream is returned by Session.Pause when nothing is capturing.
	ErrNoActiveStream = errors.New("no active stream")
	// ErrStreamDead is returned by Session.Pause when the live stream faulted
	// after it was started. A new Start is required.
	ErrStreamDead = errors.New("stream already dead")
	// ErrHardwareStream wraps faults reported by the audio backend.
	ErrHardwareStream = errors.New("hardware stream error")
)
