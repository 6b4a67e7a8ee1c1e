package audio

import (
	"fmt"
	"iter"
	"strconv"
)

// AudioDevice identifies a selectable input device. ID is the device's
// position in the enumeration it came from and is only meaningful until the
// device list is enumerated again.
type AudioDevice struct {
	ID      string
	Name    string
	Default bool

	handle any
}

// Handle returns the backend handle the device was enumerated with.
func (d AudioDevice) Handle() any {
	return d.handle
}

// Registry enumerates input devices and resolves ordinal ids.
type Registry struct {
	host Host
}

func NewRegistry(host Host) *Registry {
	return &Registry{host: host}
}

// Devices enumerates the host's input devices lazily. Every range over the
// returned sequence enumerates afresh.
func (r *Registry) Devices() iter.Seq2[AudioDevice, error] {
	return func(yield func(AudioDevice, error) bool) {
		devices, err := r.host.Devices()
		if err != nil {
			yield(AudioDevice{}, fmt.Errorf("failed to enumerate devices: %w", err))
			return
		}
		for i, d := range devices {
			if !yield(newAudioDevice(i, d), nil) {
				return
			}
		}
	}
}

// List collects one enumeration.
func (r *Registry) List() ([]AudioDevice, error) {
	var result []AudioDevice
	for dev, err := range r.Devices() {
		if err != nil {
			return nil, err
		}
		result = append(result, dev)
	}
	return result, nil
}

// Resolve parses id as an ordinal into the current enumeration.
func (r *Registry) Resolve(id string) (AudioDevice, error) {
	index, err := strconv.Atoi(id)
	if err != nil || index < 0 {
		return AudioDevice{}, fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
	}

	devices, err := r.host.Devices()
	if err != nil {
		return AudioDevice{}, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if index >= len(devices) {
		return AudioDevice{}, fmt.Errorf("%w: %s (%d available)", ErrDeviceNotFound, id, len(devices))
	}
	return newAudioDevice(index, devices[index]), nil
}

// Default returns the host's default input device, or the first device when
// the host does not flag one.
func (r *Registry) Default() (AudioDevice, error) {
	devices, err := r.List()
	if err != nil {
		return AudioDevice{}, err
	}
	if len(devices) == 0 {
		return AudioDevice{}, fmt.Errorf("%w: no input devices", ErrDeviceNotFound)
	}
	for _, d := range devices {
		if d.Default {
			return d, nil
		}
	}
	return devices[0], nil
}

func newAudioDevice(index int, d HostDevice) AudioDevice {
	return AudioDevice{
		ID:      strconv.Itoa(index),
		Name:    d.Name,
		Default: d.Default,
		handle:  d.Ref,
	}
}
